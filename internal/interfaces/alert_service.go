package interfaces

import (
	"context"

	"github.com/ternarybob/nivesh/internal/models"
)

// AlertService manages user price alerts. Alerts are single-fire: once an
// alert appears in a CheckAlerts/CheckAll result it has already been
// deactivated in storage and will never fire again.
type AlertService interface {
	// Register validates and persists a new alert, returning its ID
	Register(ctx context.Context, alert *models.Alert) (string, error)

	// ActiveAlerts lists a user's alerts that have not yet fired
	ActiveAlerts(ctx context.Context, userID string) ([]models.Alert, error)

	// CheckAlerts evaluates a user's active alerts against current prices
	// and returns those that fired. Symbols whose price is unavailable are
	// skipped and their alerts stay active.
	CheckAlerts(ctx context.Context, userID string) ([]models.Alert, error)

	// CheckAll evaluates every active alert across all users. Used by the
	// background sweep.
	CheckAll(ctx context.Context) ([]models.Alert, error)
}

// AlertNotifier receives alerts the moment they fire. The websocket hub
// implements this; a nil notifier is valid and means no push delivery.
type AlertNotifier interface {
	NotifyAlert(alert models.Alert, quote *models.Quote)
}
