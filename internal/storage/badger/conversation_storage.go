package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/nivesh/internal/interfaces"
	"github.com/ternarybob/nivesh/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ConversationStorage implements the ConversationStorage interface for Badger
type ConversationStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewConversationStorage creates a new ConversationStorage instance
func NewConversationStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ConversationStorage {
	return &ConversationStorage{
		db:     db,
		logger: logger,
	}
}

// SaveTurn persists a conversation turn
func (s *ConversationStorage) SaveTurn(ctx context.Context, turn *models.ConversationTurn) error {
	if err := s.db.Store().Upsert(turn.ID, turn); err != nil {
		return fmt.Errorf("failed to save conversation turn: %w", err)
	}

	s.logger.Debug().
		Str("turn_id", turn.ID).
		Str("user_id", turn.UserID).
		Str("role", string(turn.Role)).
		Msg("Conversation turn saved")

	return nil
}

// GetTurn retrieves a conversation turn by ID
func (s *ConversationStorage) GetTurn(ctx context.Context, id string) (*models.ConversationTurn, error) {
	var turn models.ConversationTurn
	err := s.db.Store().Get(id, &turn)
	if err == badgerhold.ErrNotFound {
		return nil, fmt.Errorf("conversation turn %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation turn: %w", err)
	}
	return &turn, nil
}

// RecentTurns returns up to limit turns for the user, newest first
func (s *ConversationStorage) RecentTurns(ctx context.Context, userID string, limit int) ([]models.ConversationTurn, error) {
	var turns []models.ConversationTurn
	query := badgerhold.Where("UserID").Eq(userID).SortBy("Timestamp").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := s.db.Store().Find(&turns, query); err != nil {
		return nil, fmt.Errorf("failed to query conversation turns: %w", err)
	}
	return turns, nil
}

// CountByUser returns the number of stored turns for a user
func (s *ConversationStorage) CountByUser(ctx context.Context, userID string) (int, error) {
	count, err := s.db.Store().Count(&models.ConversationTurn{}, badgerhold.Where("UserID").Eq(userID))
	if err != nil {
		return 0, fmt.Errorf("failed to count conversation turns: %w", err)
	}
	return int(count), nil
}
