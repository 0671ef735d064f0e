package models

import "time"

// QuoteSource identifies which tier of the provider chain produced a quote
type QuoteSource string

const (
	QuoteSourcePrimary   QuoteSource = "primary"
	QuoteSourceFallback1 QuoteSource = "fallback1"
	QuoteSourceFallback2 QuoteSource = "fallback2"
)

// Quote represents a normalized price observation for a single instrument.
// Price is always > 0 and rounded to two decimal places; Timestamp is clamped
// so it never moves backwards for the same symbol within a session.
type Quote struct {
	Symbol    string      `json:"symbol"`
	Price     float64     `json:"price"`
	Currency  string      `json:"currency"`
	Change    float64     `json:"change"`
	ChangePct float64     `json:"change_pct"`
	Timestamp time.Time   `json:"timestamp"`
	Source    QuoteSource `json:"source"`
	Provider  string      `json:"provider"` // yahoo, nse, alphavantage
}
