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

const (
	// DefaultYahooBaseURL is the base URL for the Yahoo Finance chart API.
	DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

	// DefaultTimeout is the default HTTP timeout shared by the providers.
	DefaultTimeout = 10 * time.Second

	yahooUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// YahooClient is the primary quote provider, backed by the Yahoo Finance
// chart API. Indian listings are queried with the .NS suffix.
type YahooClient struct {
	baseURL    string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// YahooOption configures the YahooClient.
type YahooOption func(*YahooClient)

// WithYahooBaseURL sets a custom base URL.
func WithYahooBaseURL(baseURL string) YahooOption {
	return func(c *YahooClient) {
		c.baseURL = baseURL
	}
}

// WithYahooHTTPClient sets a custom HTTP client.
func WithYahooHTTPClient(httpClient *http.Client) YahooOption {
	return func(c *YahooClient) {
		c.httpClient = httpClient
	}
}

// WithYahooLogger sets a logger.
func WithYahooLogger(logger arbor.ILogger) YahooOption {
	return func(c *YahooClient) {
		c.logger = logger
	}
}

// WithYahooRateLimit sets the minimum interval between requests.
func WithYahooRateLimit(interval time.Duration) YahooOption {
	return func(c *YahooClient) {
		c.limiter = rate.NewLimiter(rate.Limit(perInterval(interval)), 1)
	}
}

// NewYahooClient creates a new Yahoo Finance client.
func NewYahooClient(opts ...YahooOption) *YahooClient {
	c := &YahooClient{
		baseURL: DefaultYahooBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(2), 1),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name returns the provider identifier
func (c *YahooClient) Name() string {
	return "yahoo"
}

// Source returns the fallback tier
func (c *YahooClient) Source() models.QuoteSource {
	return models.QuoteSourcePrimary
}

// chartResponse mirrors the subset of the Yahoo chart payload we consume
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"previousClose"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetQuote fetches the latest price for an instrument
func (c *YahooClient) GetQuote(ctx context.Context, inst models.Instrument) (*models.Quote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &RateLimitError{Provider: c.Name(), RetryAfter: time.Second}
	}

	symbol := inst.YahooSymbol()
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", "1d")

	endpoint := "/v8/finance/chart/" + url.PathEscape(symbol)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", yahooUserAgent)

	if c.logger != nil {
		c.logger.Debug().
			Str("symbol", symbol).
			Str("url", c.baseURL+endpoint).
			Msg("Yahoo Finance request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   endpoint,
			Provider:   c.Name(),
		}
	}

	var result chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if result.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart error: %s", result.Chart.Error.Description)
	}
	if len(result.Chart.Result) == 0 {
		return nil, fmt.Errorf("no chart data for %s", symbol)
	}

	meta := result.Chart.Result[0].Meta
	prevClose := meta.PreviousClose
	if prevClose == 0 {
		prevClose = meta.ChartPreviousClose
	}

	quote := &models.Quote{
		Symbol:    inst.Code,
		Price:     meta.RegularMarketPrice,
		Currency:  meta.Currency,
		Timestamp: time.Unix(meta.RegularMarketTime, 0),
		Source:    c.Source(),
		Provider:  c.Name(),
	}
	if prevClose > 0 {
		quote.Change = meta.RegularMarketPrice - prevClose
		quote.ChangePct = quote.Change / prevClose * 100
	}

	return quote, nil
}
