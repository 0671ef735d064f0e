package providers

import (
	"fmt"
	"time"
)

// APIError represents an error response from a market data provider
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
	Provider   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d) on %s: %s", e.Provider, e.StatusCode, e.Endpoint, e.Message)
}

// RateLimitError indicates a provider rate limit was hit
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limit exceeded, retry after %s", e.Provider, e.RetryAfter)
}

// rateInterval converts a minimum inter-request interval to requests/sec
// for x/time/rate. A zero interval disables limiting (limiter still
// constructed, effectively unbounded).
func perInterval(interval time.Duration) float64 {
	if interval <= 0 {
		return 1000
	}
	return float64(time.Second) / float64(interval)
}
