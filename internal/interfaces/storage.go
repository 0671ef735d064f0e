// -----------------------------------------------------------------------
// Last Modified: Wednesday, 8th October 2025 12:10:32 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package interfaces

import (
	"context"

	"github.com/ternarybob/nivesh/internal/models"
)

// AlertStorage - interface for price alert persistence
type AlertStorage interface {
	Save(ctx context.Context, alert *models.Alert) error
	Update(ctx context.Context, alert *models.Alert) error
	Get(ctx context.Context, id string) (*models.Alert, error)
	GetActiveByUser(ctx context.Context, userID string) ([]models.Alert, error)
	GetActive(ctx context.Context) ([]models.Alert, error)
	Delete(ctx context.Context, id string) error
	CountActive(ctx context.Context) (int, error)
}

// ConversationStorage - interface for conversation turn persistence
type ConversationStorage interface {
	SaveTurn(ctx context.Context, turn *models.ConversationTurn) error
	GetTurn(ctx context.Context, id string) (*models.ConversationTurn, error)

	// RecentTurns returns up to limit turns for the user, newest first
	RecentTurns(ctx context.Context, userID string, limit int) ([]models.ConversationTurn, error)
	CountByUser(ctx context.Context, userID string) (int, error)
}

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	AlertStorage() AlertStorage
	ConversationStorage() ConversationStorage
	KVStorage() KeyValueStorage
	DB() interface{}
	Close() error
}
