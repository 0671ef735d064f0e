package models

import "time"

// AlertDirection is the side of the threshold that triggers an alert
type AlertDirection string

const (
	AlertAbove AlertDirection = "above"
	AlertBelow AlertDirection = "below"
)

// Alert is a user-defined price alert. Alerts fire exactly once: the
// trigger transition sets Active=false and TriggeredAt, the record itself
// is kept for history.
type Alert struct {
	ID             string         `json:"id" badgerhold:"key"`
	UserID         string         `json:"user_id" badgerhold:"index" validate:"required"`
	Symbol         string         `json:"symbol" validate:"required"`
	ThresholdPrice float64        `json:"threshold_price" validate:"required,gt=0"`
	Direction      AlertDirection `json:"direction" validate:"required,oneof=above below"`
	CreatedAt      time.Time      `json:"created_at"`
	TriggeredAt    *time.Time     `json:"triggered_at,omitempty"`
	Active         bool           `json:"active"`
}

// IsTriggeredBy reports whether the given price crosses the alert threshold
func (a *Alert) IsTriggeredBy(price float64) bool {
	if a.Direction == AlertBelow {
		return price <= a.ThresholdPrice
	}
	return price >= a.ThresholdPrice
}
