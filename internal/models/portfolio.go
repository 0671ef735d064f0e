package models

import "time"

// Holding is a user-supplied position, valid only for the request that
// carries it. Quantity must be positive.
type Holding struct {
	Ticker   string  `json:"ticker" validate:"required"`
	Quantity float64 `json:"quantity" validate:"required,gt=0"`
}

// Position pairs a holding with the quote that priced it. Quote is nil
// when no provider could resolve the ticker.
type Position struct {
	Holding
	Quote *Quote  `json:"quote,omitempty"`
	Value float64 `json:"value"`
}

// PortfolioSnapshot is the derived result of a portfolio analysis. It is
// computed per request and never persisted. Positions preserve the caller's
// ordering; Unresolved lists tickers (deduplicated, in first-seen order)
// that no provider could price and that are excluded from TotalValue.
type PortfolioSnapshot struct {
	UserID     string     `json:"user_id"`
	Positions  []Position `json:"positions"`
	TotalValue float64    `json:"total_value"`
	Currency   string     `json:"currency"`
	Unresolved []string   `json:"unresolved,omitempty"`
	AsOf       time.Time  `json:"as_of"`
}
