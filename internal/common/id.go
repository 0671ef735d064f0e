package common

import (
	"github.com/google/uuid"
)

// NewAlertID generates a unique alert ID with the "alert_" prefix
// Format: alert_<uuid>
func NewAlertID() string {
	return "alert_" + uuid.New().String()
}

// NewTurnID generates a unique conversation turn ID with the "turn_" prefix
// Format: turn_<uuid>
func NewTurnID() string {
	return "turn_" + uuid.New().String()
}

// NewRequestID generates a unique request correlation ID
func NewRequestID() string {
	return "req_" + uuid.New().String()
}
