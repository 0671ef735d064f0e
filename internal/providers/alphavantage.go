package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/nivesh/internal/models"
)

// DefaultAlphaVantageBaseURL is the base URL for the Alpha Vantage API.
const DefaultAlphaVantageBaseURL = "https://www.alphavantage.co"

// AlphaVantageClient is the last-resort fallback provider. The free tier
// is heavily rate limited (5 requests/minute) so it is only reached when
// both Yahoo and NSE have failed.
type AlphaVantageClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// AlphaVantageOption configures the AlphaVantageClient.
type AlphaVantageOption func(*AlphaVantageClient)

// WithAlphaVantageBaseURL sets a custom base URL.
func WithAlphaVantageBaseURL(baseURL string) AlphaVantageOption {
	return func(c *AlphaVantageClient) {
		c.baseURL = baseURL
	}
}

// WithAlphaVantageHTTPClient sets a custom HTTP client.
func WithAlphaVantageHTTPClient(httpClient *http.Client) AlphaVantageOption {
	return func(c *AlphaVantageClient) {
		c.httpClient = httpClient
	}
}

// WithAlphaVantageLogger sets a logger.
func WithAlphaVantageLogger(logger arbor.ILogger) AlphaVantageOption {
	return func(c *AlphaVantageClient) {
		c.logger = logger
	}
}

// WithAlphaVantageRateLimit sets the minimum interval between requests.
func WithAlphaVantageRateLimit(interval time.Duration) AlphaVantageOption {
	return func(c *AlphaVantageClient) {
		c.limiter = rate.NewLimiter(rate.Limit(perInterval(interval)), 1)
	}
}

// NewAlphaVantageClient creates a new Alpha Vantage client.
func NewAlphaVantageClient(apiKey string, opts ...AlphaVantageOption) *AlphaVantageClient {
	c := &AlphaVantageClient{
		baseURL: DefaultAlphaVantageBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(perInterval(12*time.Second)), 1),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name returns the provider identifier
func (c *AlphaVantageClient) Name() string {
	return "alphavantage"
}

// Source returns the fallback tier
func (c *AlphaVantageClient) Source() models.QuoteSource {
	return models.QuoteSourceFallback2
}

// globalQuoteResponse mirrors the GLOBAL_QUOTE payload. All values are
// strings in the Alpha Vantage wire format.
type globalQuoteResponse struct {
	GlobalQuote map[string]string `json:"Global Quote"`
	Note        string            `json:"Note"`
	Information string            `json:"Information"`
}

// GetQuote fetches the latest price for an instrument via GLOBAL_QUOTE
func (c *AlphaVantageClient) GetQuote(ctx context.Context, inst models.Instrument) (*models.Quote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &RateLimitError{Provider: c.Name(), RetryAfter: 12 * time.Second}
	}

	symbol := inst.AlphaVantageSymbol()
	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", symbol)
	params.Set("apikey", c.apiKey)

	endpoint := "/query"
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("symbol", symbol).
			Str("url", c.baseURL+endpoint).
			Msg("Alpha Vantage request")
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

	var result globalQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	// The API answers 200 with a Note when the rate limit is exhausted
	if result.Note != "" || result.Information != "" {
		return nil, &RateLimitError{Provider: c.Name(), RetryAfter: time.Minute}
	}
	if len(result.GlobalQuote) == 0 {
		return nil, fmt.Errorf("no quote data for %s", symbol)
	}

	price, err := strconv.ParseFloat(result.GlobalQuote["05. price"], 64)
	if err != nil {
		return nil, fmt.Errorf("malformed price for %s: %w", symbol, err)
	}

	quote := &models.Quote{
		Symbol:    inst.Code,
		Price:     price,
		Currency:  "INR",
		Timestamp: time.Now(),
		Source:    c.Source(),
		Provider:  c.Name(),
	}
	if change, err := strconv.ParseFloat(result.GlobalQuote["09. change"], 64); err == nil {
		quote.Change = change
	}
	if pct := strings.TrimSuffix(result.GlobalQuote["10. change percent"], "%"); pct != "" {
		if changePct, err := strconv.ParseFloat(pct, 64); err == nil {
			quote.ChangePct = changePct
		}
	}

	return quote, nil
}
