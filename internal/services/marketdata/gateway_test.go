package marketdata

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nivesh/internal/common"
	"github.com/ternarybob/nivesh/internal/interfaces"
	"github.com/ternarybob/nivesh/internal/models"
)

// stubProvider is a scriptable QuoteProvider for gateway tests
type stubProvider struct {
	name   string
	source models.QuoteSource
	price  float64
	ts     time.Time
	err    error
	calls  int64
}

func (p *stubProvider) Name() string               { return p.name }
func (p *stubProvider) Source() models.QuoteSource { return p.source }

func (p *stubProvider) GetQuote(ctx context.Context, inst models.Instrument) (*models.Quote, error) {
	atomic.AddInt64(&p.calls, 1)
	if p.err != nil {
		return nil, p.err
	}
	ts := p.ts
	if ts.IsZero() {
		ts = time.Now()
	}
	return &models.Quote{
		Symbol:    inst.Code,
		Price:     p.price,
		Currency:  "inr",
		Timestamp: ts,
		Source:    p.source,
		Provider:  p.name,
	}, nil
}

func testConfig() *common.Config {
	cfg := common.NewDefaultConfig()
	cfg.Market.FreshnessWindow = 0 // No caching unless a test enables it
	return cfg
}

func newTestGateway(cfg *common.Config, providers ...interfaces.QuoteProvider) *Gateway {
	return NewGateway(providers, cfg, arbor.NewLogger())
}

func TestFetchQuotePrimaryWins(t *testing.T) {
	primary := &stubProvider{name: "yahoo", source: models.QuoteSourcePrimary, price: 2950.556}
	fallback := &stubProvider{name: "nse", source: models.QuoteSourceFallback1, price: 2949}
	g := newTestGateway(testConfig(), primary, fallback)

	quote, err := g.FetchQuote(context.Background(), "RELIANCE")
	require.NoError(t, err)

	assert.Equal(t, models.QuoteSourcePrimary, quote.Source)
	assert.Equal(t, "yahoo", quote.Provider)
	assert.Equal(t, 2950.56, quote.Price) // Rounded to 2dp
	assert.Equal(t, "INR", quote.Currency)
	assert.EqualValues(t, 0, atomic.LoadInt64(&fallback.calls))
}

func TestFetchQuoteFallbackAttribution(t *testing.T) {
	primary := &stubProvider{name: "yahoo", source: models.QuoteSourcePrimary, err: errors.New("timeout")}
	fallback := &stubProvider{name: "nse", source: models.QuoteSourceFallback1, price: 2948.10}
	g := newTestGateway(testConfig(), primary, fallback)

	quote, err := g.FetchQuote(context.Background(), "RELIANCE")
	require.NoError(t, err)

	assert.Equal(t, models.QuoteSourceFallback1, quote.Source)
	assert.Equal(t, "nse", quote.Provider)
}

func TestFetchQuoteMalformedPriceSkipsProvider(t *testing.T) {
	bad := &stubProvider{name: "yahoo", source: models.QuoteSourcePrimary, price: 0}
	good := &stubProvider{name: "nse", source: models.QuoteSourceFallback1, price: 105.5}
	g := newTestGateway(testConfig(), bad, good)

	quote, err := g.FetchQuote(context.Background(), "TCS")
	require.NoError(t, err)
	assert.Equal(t, models.QuoteSourceFallback1, quote.Source)
	assert.Greater(t, quote.Price, 0.0)
}

func TestFetchQuoteAllProvidersFail(t *testing.T) {
	p1 := &stubProvider{name: "yahoo", source: models.QuoteSourcePrimary, err: errors.New("down")}
	p2 := &stubProvider{name: "nse", source: models.QuoteSourceFallback1, price: -5}
	g := newTestGateway(testConfig(), p1, p2)

	quote, err := g.FetchQuote(context.Background(), "RELIANCE")
	require.Error(t, err)
	assert.Nil(t, quote)
	assert.True(t, errors.Is(err, interfaces.ErrDataUnavailable))
}

func TestFreshnessCacheAvoidsRefetch(t *testing.T) {
	cfg := testConfig()
	cfg.Market.FreshnessWindow = 5 * time.Second
	primary := &stubProvider{name: "yahoo", source: models.QuoteSourcePrimary, price: 22550.35}
	g := newTestGateway(cfg, primary)

	first, err := g.FetchQuote(context.Background(), "nifty")
	require.NoError(t, err)
	second, err := g.FetchQuote(context.Background(), "nifty")
	require.NoError(t, err)

	assert.Equal(t, first.Price, second.Price)
	assert.EqualValues(t, 1, atomic.LoadInt64(&primary.calls))
}

func TestCachedQuoteIsNotSharedWithCallers(t *testing.T) {
	cfg := testConfig()
	cfg.Market.FreshnessWindow = 5 * time.Second
	primary := &stubProvider{name: "yahoo", source: models.QuoteSourcePrimary, price: 4100.25}
	g := newTestGateway(cfg, primary)

	first, err := g.FetchQuote(context.Background(), "TCS")
	require.NoError(t, err)

	// Mutating a returned quote must not leak into later cache hits
	first.Price = 1
	first.Currency = "XXX"

	second, err := g.FetchQuote(context.Background(), "TCS")
	require.NoError(t, err)
	assert.Equal(t, 4100.25, second.Price)
	assert.Equal(t, "INR", second.Currency)
	assert.EqualValues(t, 1, atomic.LoadInt64(&primary.calls))

	// The second caller's copy is independent too
	second.Price = 2
	third, err := g.FetchQuote(context.Background(), "TCS")
	require.NoError(t, err)
	assert.Equal(t, 4100.25, third.Price)
}

func TestTimestampNeverMovesBackwards(t *testing.T) {
	now := time.Now()
	provider := &stubProvider{name: "yahoo", source: models.QuoteSourcePrimary, price: 100, ts: now}
	g := newTestGateway(testConfig(), provider)

	first, err := g.FetchQuote(context.Background(), "INFY")
	require.NoError(t, err)

	// Provider regresses its timestamp; gateway clamps to the last seen value
	provider.ts = now.Add(-time.Minute)
	second, err := g.FetchQuote(context.Background(), "INFY")
	require.NoError(t, err)

	assert.False(t, second.Timestamp.Before(first.Timestamp))
}

func TestFetchIndexRejectsNonIndex(t *testing.T) {
	g := newTestGateway(testConfig(), &stubProvider{name: "yahoo", source: models.QuoteSourcePrimary, price: 1})

	_, err := g.FetchIndex(context.Background(), "RELIANCE")
	require.Error(t, err)
	assert.True(t, errors.Is(err, interfaces.ErrDataUnavailable))
}

func TestFetchManyPartialResults(t *testing.T) {
	provider := &selectiveProvider{known: map[string]float64{"RELIANCE": 2950, "TCS": 4100}}
	g := newTestGateway(testConfig(), provider)

	results := g.FetchMany(context.Background(), []string{"RELIANCE", "TCS", "BOGUS", "RELIANCE"})

	assert.Len(t, results, 2)
	assert.Contains(t, results, "RELIANCE")
	assert.Contains(t, results, "TCS")
	assert.NotContains(t, results, "BOGUS")
}

// selectiveProvider resolves only the symbols it knows
type selectiveProvider struct {
	known map[string]float64
}

func (p *selectiveProvider) Name() string               { return "yahoo" }
func (p *selectiveProvider) Source() models.QuoteSource { return models.QuoteSourcePrimary }

func (p *selectiveProvider) GetQuote(ctx context.Context, inst models.Instrument) (*models.Quote, error) {
	price, ok := p.known[inst.Code]
	if !ok {
		return nil, errors.New("unknown symbol")
	}
	return &models.Quote{
		Symbol:    inst.Code,
		Price:     price,
		Currency:  "INR",
		Timestamp: time.Now(),
		Source:    models.QuoteSourcePrimary,
		Provider:  "yahoo",
	}, nil
}
