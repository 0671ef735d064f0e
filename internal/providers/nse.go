package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/nivesh/internal/models"
)

// DefaultNSEBaseURL is the base URL for the NSE India public API.
const DefaultNSEBaseURL = "https://www.nseindia.com/api"

// NSEClient is the first fallback provider, backed by the NSE India API.
// The exchange endpoint rejects requests without browser-like headers.
type NSEClient struct {
	baseURL    string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// NSEOption configures the NSEClient.
type NSEOption func(*NSEClient)

// WithNSEBaseURL sets a custom base URL.
func WithNSEBaseURL(baseURL string) NSEOption {
	return func(c *NSEClient) {
		c.baseURL = baseURL
	}
}

// WithNSEHTTPClient sets a custom HTTP client.
func WithNSEHTTPClient(httpClient *http.Client) NSEOption {
	return func(c *NSEClient) {
		c.httpClient = httpClient
	}
}

// WithNSELogger sets a logger.
func WithNSELogger(logger arbor.ILogger) NSEOption {
	return func(c *NSEClient) {
		c.logger = logger
	}
}

// WithNSERateLimit sets the minimum interval between requests.
func WithNSERateLimit(interval time.Duration) NSEOption {
	return func(c *NSEClient) {
		c.limiter = rate.NewLimiter(rate.Limit(perInterval(interval)), 1)
	}
}

// NewNSEClient creates a new NSE India client.
func NewNSEClient(opts ...NSEOption) *NSEClient {
	c := &NSEClient{
		baseURL: DefaultNSEBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(1), 1),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name returns the provider identifier
func (c *NSEClient) Name() string {
	return "nse"
}

// Source returns the fallback tier
func (c *NSEClient) Source() models.QuoteSource {
	return models.QuoteSourceFallback1
}

type nseEquityResponse struct {
	PriceInfo struct {
		LastPrice float64 `json:"lastPrice"`
		Change    float64 `json:"change"`
		PChange   float64 `json:"pChange"`
	} `json:"priceInfo"`
}

type nseIndicesResponse struct {
	Data []struct {
		Index         string  `json:"index"`
		Last          float64 `json:"last"`
		Variation     float64 `json:"variation"`
		PercentChange float64 `json:"percentChange"`
	} `json:"data"`
}

// GetQuote fetches the latest price for an instrument. Stocks use the
// quote-equity endpoint; indices are looked up in the allIndices feed.
func (c *NSEClient) GetQuote(ctx context.Context, inst models.Instrument) (*models.Quote, error) {
	if inst.Kind == models.InstrumentIndex {
		return c.getIndex(ctx, inst)
	}
	return c.getEquity(ctx, inst)
}

func (c *NSEClient) getEquity(ctx context.Context, inst models.Instrument) (*models.Quote, error) {
	endpoint := "/quote-equity"
	params := url.Values{}
	params.Set("symbol", inst.NSESymbol())

	var result nseEquityResponse
	if err := c.get(ctx, endpoint, params, &result); err != nil {
		return nil, err
	}

	if result.PriceInfo.LastPrice == 0 {
		return nil, fmt.Errorf("no price data for %s", inst.Code)
	}

	return &models.Quote{
		Symbol:    inst.Code,
		Price:     result.PriceInfo.LastPrice,
		Currency:  "INR",
		Change:    result.PriceInfo.Change,
		ChangePct: result.PriceInfo.PChange,
		Timestamp: time.Now(),
		Source:    c.Source(),
		Provider:  c.Name(),
	}, nil
}

func (c *NSEClient) getIndex(ctx context.Context, inst models.Instrument) (*models.Quote, error) {
	name := inst.NSESymbol()
	if name == "" {
		return nil, fmt.Errorf("index %s not listed on NSE", inst.Code)
	}

	var result nseIndicesResponse
	if err := c.get(ctx, "/allIndices", nil, &result); err != nil {
		return nil, err
	}

	for _, entry := range result.Data {
		if entry.Index != name {
			continue
		}
		return &models.Quote{
			Symbol:    inst.Code,
			Price:     entry.Last,
			Currency:  "INR",
			Change:    entry.Variation,
			ChangePct: entry.PercentChange,
			Timestamp: time.Now(),
			Source:    c.Source(),
			Provider:  c.Name(),
		}, nil
	}

	return nil, fmt.Errorf("index %s not found in NSE feed", name)
}

// get performs a GET request with the browser headers NSE expects
func (c *NSEClient) get(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &RateLimitError{Provider: c.Name(), RetryAfter: time.Second}
	}

	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", yahooUserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	if c.logger != nil {
		c.logger.Debug().
			Str("url", c.baseURL+endpoint).
			Msg("NSE India request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   endpoint,
			Provider:   c.Name(),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
