package interfaces

import (
	"context"

	"github.com/ternarybob/nivesh/internal/models"
)

// QuoteProvider is one tier of the market data fallback chain. Providers
// return raw quotes; normalization and validation happen in the gateway.
type QuoteProvider interface {
	// Name returns the provider identifier used in logs and quote attribution
	Name() string

	// Source returns the fallback tier this provider occupies
	Source() models.QuoteSource

	// GetQuote fetches the latest price for an instrument
	GetQuote(ctx context.Context, inst models.Instrument) (*models.Quote, error)
}

// MarketDataService is the single entry point for price data. It owns the
// provider fallback order, the freshness cache, and quote normalization.
type MarketDataService interface {
	// FetchQuote resolves a stock/ETF symbol to a normalized quote, trying
	// providers in order. Returns ErrDataUnavailable (wrapped) when all fail.
	FetchQuote(ctx context.Context, symbol string) (*models.Quote, error)

	// FetchIndex resolves an index name or alias (nifty, sensex, banknifty)
	// to a normalized quote.
	FetchIndex(ctx context.Context, name string) (*models.Quote, error)

	// FetchMany fetches distinct symbols concurrently. The result map holds
	// an entry per resolved symbol; unresolvable symbols are simply absent.
	FetchMany(ctx context.Context, symbols []string) map[string]*models.Quote
}
