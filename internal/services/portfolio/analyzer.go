package portfolio

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nivesh/internal/interfaces"
	"github.com/ternarybob/nivesh/internal/models"
)

// Service values user holdings against live quotes. Snapshots are derived
// per request and never cached: holdings travel with the request and are
// discarded afterwards.
type Service struct {
	market   interfaces.MarketDataService
	currency string
	logger   arbor.ILogger
}

// NewService creates a portfolio analyzer
func NewService(market interfaces.MarketDataService, currency string, logger arbor.ILogger) *Service {
	if currency == "" {
		currency = "INR"
	}
	return &Service{
		market:   market,
		currency: currency,
		logger:   logger,
	}
}

// Analyze prices the given holdings and returns a snapshot. Unresolvable
// tickers appear as positions with a nil quote, are listed once in
// Unresolved and are excluded from TotalValue. Position order matches the
// caller's holding order.
func (s *Service) Analyze(ctx context.Context, userID string, holdings []models.Holding) (*models.PortfolioSnapshot, error) {
	if len(holdings) == 0 {
		return nil, fmt.Errorf("no holdings to analyze")
	}
	for _, holding := range holdings {
		if holding.Quantity <= 0 {
			return nil, fmt.Errorf("holding %s has non-positive quantity %v", holding.Ticker, holding.Quantity)
		}
		if strings.TrimSpace(holding.Ticker) == "" {
			return nil, fmt.Errorf("holding with empty ticker")
		}
	}

	symbols := make([]string, 0, len(holdings))
	for _, holding := range holdings {
		symbols = append(symbols, holding.Ticker)
	}
	quotes := s.market.FetchMany(ctx, symbols)

	snapshot := &models.PortfolioSnapshot{
		UserID:    userID,
		Positions: make([]models.Position, 0, len(holdings)),
		Currency:  s.currency,
		AsOf:      time.Now(),
	}

	unresolvedSeen := make(map[string]bool)
	for _, holding := range holdings {
		code := models.ParseInstrument(holding.Ticker).Code
		position := models.Position{Holding: holding}

		if quote, ok := quotes[code]; ok {
			position.Quote = quote
			position.Value = math.Round(quote.Price*holding.Quantity*100) / 100
			snapshot.TotalValue += position.Value
		} else if !unresolvedSeen[code] {
			unresolvedSeen[code] = true
			snapshot.Unresolved = append(snapshot.Unresolved, holding.Ticker)
		}

		snapshot.Positions = append(snapshot.Positions, position)
	}
	snapshot.TotalValue = math.Round(snapshot.TotalValue*100) / 100

	s.logger.Info().
		Str("user_id", userID).
		Int("positions", len(snapshot.Positions)).
		Int("unresolved", len(snapshot.Unresolved)).
		Float64("total_value", snapshot.TotalValue).
		Msg("Portfolio analyzed")

	return snapshot, nil
}

// holdingPattern matches "TICKER:QTY", "TICKER QTY" and "TICKER x QTY"
var holdingPattern = regexp.MustCompile(`(?i)\b([A-Z][A-Z0-9&.\-]{1,19})\s*(?::|x|\*)?\s*(\d+(?:\.\d+)?)\b`)

// holdingStopwords are chat words that look like tickers next to numbers
var holdingStopwords = map[string]bool{
	"ANALYZE": true, "PORTFOLIO": true, "MY": true, "WITH": true,
	"AND": true, "HAVE": true, "HOLD": true, "SHARES": true,
	"OF": true, "STOCKS": true, "QTY": true, "THE": true,
}

// ParseHoldings extracts holdings from free text. JSON arrays of
// {"ticker","quantity"} objects are tried first, then the colon/space
// pair notation used in chat ("RELIANCE:100, TCS 50").
func ParseHoldings(text string) ([]models.Holding, error) {
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, "[") {
		var holdings []models.Holding
		if err := json.Unmarshal([]byte(trimmed), &holdings); err == nil && len(holdings) > 0 {
			return holdings, nil
		}
	}

	var holdings []models.Holding
	for _, match := range holdingPattern.FindAllStringSubmatch(trimmed, -1) {
		ticker := strings.ToUpper(match[1])
		if holdingStopwords[ticker] {
			continue
		}
		quantity, err := strconv.ParseFloat(match[2], 64)
		if err != nil || quantity <= 0 {
			continue
		}
		holdings = append(holdings, models.Holding{
			Ticker:   ticker,
			Quantity: quantity,
		})
	}

	if len(holdings) == 0 {
		return nil, fmt.Errorf("no holdings found in text")
	}
	return holdings, nil
}
