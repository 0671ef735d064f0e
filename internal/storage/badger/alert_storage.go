package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/nivesh/internal/interfaces"
	"github.com/ternarybob/nivesh/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// AlertStorage implements the AlertStorage interface for Badger
type AlertStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAlertStorage creates a new AlertStorage instance
func NewAlertStorage(db *BadgerDB, logger arbor.ILogger) interfaces.AlertStorage {
	return &AlertStorage{
		db:     db,
		logger: logger,
	}
}

// Save persists a new alert
func (s *AlertStorage) Save(ctx context.Context, alert *models.Alert) error {
	if err := s.db.Store().Insert(alert.ID, alert); err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}

	s.logger.Debug().
		Str("alert_id", alert.ID).
		Str("user_id", alert.UserID).
		Str("symbol", alert.Symbol).
		Msg("Alert saved")

	return nil
}

// Update replaces an existing alert record
func (s *AlertStorage) Update(ctx context.Context, alert *models.Alert) error {
	if err := s.db.Store().Update(alert.ID, alert); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("alert %s not found", alert.ID)
		}
		return fmt.Errorf("failed to update alert: %w", err)
	}
	return nil
}

// Get retrieves an alert by ID
func (s *AlertStorage) Get(ctx context.Context, id string) (*models.Alert, error) {
	var alert models.Alert
	err := s.db.Store().Get(id, &alert)
	if err == badgerhold.ErrNotFound {
		return nil, fmt.Errorf("alert %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return &alert, nil
}

// GetActiveByUser returns a user's alerts that have not fired yet,
// oldest first
func (s *AlertStorage) GetActiveByUser(ctx context.Context, userID string) ([]models.Alert, error) {
	var alerts []models.Alert
	query := badgerhold.Where("UserID").Eq(userID).And("Active").Eq(true).SortBy("CreatedAt")
	if err := s.db.Store().Find(&alerts, query); err != nil {
		return nil, fmt.Errorf("failed to query active alerts: %w", err)
	}
	return alerts, nil
}

// GetActive returns all active alerts across users, oldest first
func (s *AlertStorage) GetActive(ctx context.Context) ([]models.Alert, error) {
	var alerts []models.Alert
	query := badgerhold.Where("Active").Eq(true).SortBy("CreatedAt")
	if err := s.db.Store().Find(&alerts, query); err != nil {
		return nil, fmt.Errorf("failed to query active alerts: %w", err)
	}
	return alerts, nil
}

// Delete removes an alert record
func (s *AlertStorage) Delete(ctx context.Context, id string) error {
	err := s.db.Store().Delete(id, &models.Alert{})
	if err == badgerhold.ErrNotFound {
		return fmt.Errorf("alert %s not found", id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	return nil
}

// CountActive returns the number of active alerts across all users
func (s *AlertStorage) CountActive(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Alert{}, badgerhold.Where("Active").Eq(true))
	if err != nil {
		return 0, fmt.Errorf("failed to count active alerts: %w", err)
	}
	return int(count), nil
}
