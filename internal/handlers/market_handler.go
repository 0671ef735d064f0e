package handlers

import (
	"net/http"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nivesh/internal/interfaces"
	"github.com/ternarybob/nivesh/internal/models"
)

// MarketHandler serves market data endpoints
type MarketHandler struct {
	market interfaces.MarketDataService
	logger arbor.ILogger
}

// NewMarketHandler creates a market data handler
func NewMarketHandler(market interfaces.MarketDataService, logger arbor.ILogger) *MarketHandler {
	return &MarketHandler{
		market: market,
		logger: logger,
	}
}

// StatusHandler handles GET /api/market/status: a one-shot view of the
// benchmark indices and gold. The three fetches run concurrently;
// whatever fails is reported as unavailable.
func (h *MarketHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	type entry struct {
		name   string
		fetch  func() (*models.Quote, error)
		quote  *models.Quote
		failed bool
	}

	entries := []*entry{
		{name: "nifty", fetch: func() (*models.Quote, error) { return h.market.FetchIndex(r.Context(), "nifty") }},
		{name: "sensex", fetch: func() (*models.Quote, error) { return h.market.FetchIndex(r.Context(), "sensex") }},
		{name: "gold", fetch: func() (*models.Quote, error) {
			return h.market.FetchQuote(r.Context(), models.GoldInstrument().Code)
		}},
	}

	var wg sync.WaitGroup
	for _, e := range entries {
		wg.Add(1)
		go func(e *entry) {
			defer wg.Done()
			quote, err := e.fetch()
			if err != nil {
				h.logger.Warn().Err(err).Str("name", e.name).Msg("Market status fetch failed")
				e.failed = true
				return
			}
			e.quote = quote
		}(e)
	}
	wg.Wait()

	response := make(map[string]interface{}, len(entries))
	for _, e := range entries {
		if e.failed {
			response[e.name] = map[string]string{"status": "unavailable"}
		} else {
			response[e.name] = e.quote
		}
	}

	WriteJSON(w, http.StatusOK, response)
}

// QuoteHandler handles GET /api/market/quote?symbol=TCS
func (h *MarketHandler) QuoteHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol query parameter is required")
		return
	}

	quote, err := h.market.FetchQuote(r.Context(), symbol)
	if err != nil {
		WriteError(w, http.StatusBadGateway, "price unavailable for "+symbol)
		return
	}

	WriteJSON(w, http.StatusOK, quote)
}
