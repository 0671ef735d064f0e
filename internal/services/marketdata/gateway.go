package marketdata

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nivesh/internal/common"
	"github.com/ternarybob/nivesh/internal/interfaces"
	"github.com/ternarybob/nivesh/internal/models"
)

// Gateway is the single entry point for market data. Providers are tried
// in registration order; the first usable quote wins. Quotes are cached
// for a short freshness window so a burst of intents in one request does
// not hit the providers repeatedly.
type Gateway struct {
	providers      []interfaces.QuoteProvider
	attemptTimeout time.Duration
	freshness      time.Duration
	currency       string
	sem            chan struct{}
	logger         arbor.ILogger

	mu       sync.Mutex
	cache    map[string]cachedQuote
	lastSeen map[string]time.Time
}

type cachedQuote struct {
	quote   *models.Quote
	fetched time.Time
}

// NewGateway creates a market data gateway over an ordered provider chain
func NewGateway(providers []interfaces.QuoteProvider, cfg *common.Config, logger arbor.ILogger) *Gateway {
	concurrency := cfg.Market.FetchConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	return &Gateway{
		providers:      providers,
		attemptTimeout: cfg.Providers.AttemptTimeout,
		freshness:      cfg.Market.FreshnessWindow,
		currency:       cfg.Market.Currency,
		sem:            make(chan struct{}, concurrency),
		logger:         logger,
		cache:          make(map[string]cachedQuote),
		lastSeen:       make(map[string]time.Time),
	}
}

// FetchQuote resolves a stock/ETF symbol to a normalized quote
func (g *Gateway) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	return g.fetch(ctx, models.ParseInstrument(symbol))
}

// FetchIndex resolves an index name or alias to a normalized quote
func (g *Gateway) FetchIndex(ctx context.Context, name string) (*models.Quote, error) {
	inst := models.ParseInstrument(name)
	if inst.Kind != models.InstrumentIndex {
		return nil, fmt.Errorf("%s is not a known index: %w", name, interfaces.ErrDataUnavailable)
	}
	return g.fetch(ctx, inst)
}

// FetchMany fetches distinct symbols concurrently, bounded by the
// configured concurrency. Unresolvable symbols are absent from the result.
func (g *Gateway) FetchMany(ctx context.Context, symbols []string) map[string]*models.Quote {
	distinct := make([]string, 0, len(symbols))
	seen := make(map[string]bool, len(symbols))
	for _, symbol := range symbols {
		code := models.ParseInstrument(symbol).Code
		if !seen[code] {
			seen[code] = true
			distinct = append(distinct, symbol)
		}
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	results := make(map[string]*models.Quote, len(distinct))

	for _, symbol := range distinct {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()

			select {
			case g.sem <- struct{}{}:
				defer func() { <-g.sem }()
			case <-ctx.Done():
				return
			}

			quote, err := g.fetch(ctx, models.ParseInstrument(symbol))
			if err != nil {
				g.logger.Warn().
					Str("symbol", symbol).
					Err(err).
					Msg("Symbol unresolved in batch fetch")
				return
			}

			mu.Lock()
			results[quote.Symbol] = quote
			mu.Unlock()
		}(symbol)
	}

	wg.Wait()
	return results
}

// fetch walks the provider chain for one instrument
func (g *Gateway) fetch(ctx context.Context, inst models.Instrument) (*models.Quote, error) {
	key := inst.String()

	if quote := g.cachedFresh(key); quote != nil {
		g.logger.Debug().Str("symbol", key).Msg("Quote served from freshness cache")
		return quote, nil
	}

	for _, provider := range g.providers {
		attemptCtx, cancel := context.WithTimeout(ctx, g.attemptTimeout)
		quote, err := provider.GetQuote(attemptCtx, inst)
		cancel()

		if err != nil {
			g.logger.Warn().
				Str("symbol", key).
				Str("provider", provider.Name()).
				Err(err).
				Msg("Provider attempt failed, moving to next tier")
			continue
		}

		if err := g.normalize(quote); err != nil {
			g.logger.Warn().
				Str("symbol", key).
				Str("provider", provider.Name()).
				Err(err).
				Msg("Provider returned malformed quote, moving to next tier")
			continue
		}

		g.store(key, quote)

		g.logger.Info().
			Str("symbol", key).
			Str("provider", provider.Name()).
			Str("source", string(quote.Source)).
			Float64("price", quote.Price).
			Msg("Quote resolved")

		return quote, nil
	}

	return nil, fmt.Errorf("all providers exhausted for %s: %w", key, interfaces.ErrDataUnavailable)
}

// normalize enforces the quote invariants: positive price, two-decimal
// rounding, upper-cased currency with a configured default.
func (g *Gateway) normalize(quote *models.Quote) error {
	if quote == nil {
		return fmt.Errorf("nil quote")
	}
	if quote.Price <= 0 || math.IsNaN(quote.Price) || math.IsInf(quote.Price, 0) {
		return fmt.Errorf("invalid price %v", quote.Price)
	}

	quote.Price = round2(quote.Price)
	quote.Change = round2(quote.Change)
	quote.ChangePct = round2(quote.ChangePct)

	if quote.Currency == "" {
		quote.Currency = g.currency
	}
	quote.Currency = strings.ToUpper(quote.Currency)

	if quote.Timestamp.IsZero() {
		quote.Timestamp = time.Now()
	}
	return nil
}

// store caches a copy of the quote and clamps its timestamp so it never
// moves backwards for the same symbol within this gateway's lifetime.
// The cache keeps its own copy so callers cannot mutate cached state.
func (g *Gateway) store(key string, quote *models.Quote) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if last, ok := g.lastSeen[key]; ok && quote.Timestamp.Before(last) {
		quote.Timestamp = last
	}
	g.lastSeen[key] = quote.Timestamp

	cached := *quote
	g.cache[key] = cachedQuote{quote: &cached, fetched: time.Now()}
}

// cachedFresh returns a copy of the cached quote, or nil when the entry
// is missing or stale. Each caller owns its returned Quote.
func (g *Gateway) cachedFresh(key string) *models.Quote {
	if g.freshness <= 0 {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.cache[key]
	if !ok || time.Since(entry.fetched) > g.freshness {
		return nil
	}

	quote := *entry.quote
	return &quote
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
