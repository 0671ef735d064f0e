package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nivesh/internal/common"
	"github.com/ternarybob/nivesh/internal/interfaces"
	"github.com/ternarybob/nivesh/internal/models"
)

// Service evaluates user price alerts against live quotes. The trigger
// transition is a compare-and-clear under a single mutex: an alert is
// re-read, deactivated and persisted before it is ever reported as fired,
// so concurrent checks can never fire the same alert twice.
type Service struct {
	storage  interfaces.AlertStorage
	market   interfaces.MarketDataService
	notifier interfaces.AlertNotifier
	validate *validator.Validate
	logger   arbor.ILogger

	triggerMu sync.Mutex
}

// NewService creates an alert evaluator. notifier may be nil.
func NewService(storage interfaces.AlertStorage, market interfaces.MarketDataService, notifier interfaces.AlertNotifier, logger arbor.ILogger) *Service {
	return &Service{
		storage:  storage,
		market:   market,
		notifier: notifier,
		validate: validator.New(),
		logger:   logger,
	}
}

// Register validates and persists a new alert, returning its ID
func (s *Service) Register(ctx context.Context, alert *models.Alert) (string, error) {
	if alert.Direction == "" {
		alert.Direction = models.AlertAbove
	}
	alert.Symbol = models.ParseInstrument(alert.Symbol).Code

	if err := s.validate.Struct(alert); err != nil {
		return "", fmt.Errorf("invalid alert: %w", err)
	}

	alert.ID = common.NewAlertID()
	alert.CreatedAt = time.Now()
	alert.TriggeredAt = nil
	alert.Active = true

	if err := s.storage.Save(ctx, alert); err != nil {
		return "", err
	}

	s.logger.Info().
		Str("alert_id", alert.ID).
		Str("user_id", alert.UserID).
		Str("symbol", alert.Symbol).
		Float64("threshold", alert.ThresholdPrice).
		Str("direction", string(alert.Direction)).
		Msg("Alert registered")

	return alert.ID, nil
}

// ActiveAlerts lists a user's alerts that have not yet fired
func (s *Service) ActiveAlerts(ctx context.Context, userID string) ([]models.Alert, error) {
	return s.storage.GetActiveByUser(ctx, userID)
}

// CheckAlerts evaluates a user's active alerts and returns those that fired
func (s *Service) CheckAlerts(ctx context.Context, userID string) ([]models.Alert, error) {
	active, err := s.storage.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.evaluate(ctx, active)
}

// CheckAll evaluates every active alert across all users
func (s *Service) CheckAll(ctx context.Context) ([]models.Alert, error) {
	active, err := s.storage.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	return s.evaluate(ctx, active)
}

// evaluate fetches prices for the alerts' symbols (deduplicated) and fires
// the alerts whose thresholds are crossed. Symbols without a price are
// skipped; their alerts stay active.
func (s *Service) evaluate(ctx context.Context, alerts []models.Alert) ([]models.Alert, error) {
	if len(alerts) == 0 {
		return nil, nil
	}

	symbols := make([]string, 0, len(alerts))
	for _, alert := range alerts {
		symbols = append(symbols, alert.Symbol)
	}
	quotes := s.market.FetchMany(ctx, symbols)

	var fired []models.Alert
	skipped := 0

	for _, alert := range alerts {
		quote, ok := quotes[models.ParseInstrument(alert.Symbol).Code]
		if !ok {
			skipped++
			continue
		}

		if !alert.IsTriggeredBy(quote.Price) {
			continue
		}

		triggered, err := s.fire(ctx, alert.ID, quote)
		if err != nil {
			s.logger.Error().Err(err).Str("alert_id", alert.ID).Msg("Failed to persist alert trigger")
			continue
		}
		if triggered != nil {
			fired = append(fired, *triggered)
		}
	}

	if skipped > 0 {
		s.logger.Warn().
			Int("skipped", skipped).
			Int("evaluated", len(alerts)).
			Msg("Alerts skipped, price data unavailable for their symbols")
	}

	return fired, nil
}

// fire performs the atomic compare-and-clear for one alert. Returns nil
// (no error) when the alert already fired elsewhere.
func (s *Service) fire(ctx context.Context, alertID string, quote *models.Quote) (*models.Alert, error) {
	s.triggerMu.Lock()
	defer s.triggerMu.Unlock()

	current, err := s.storage.Get(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if !current.Active {
		return nil, nil
	}

	now := time.Now()
	current.Active = false
	current.TriggeredAt = &now
	if err := s.storage.Update(ctx, current); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("alert_id", current.ID).
		Str("user_id", current.UserID).
		Str("symbol", current.Symbol).
		Float64("threshold", current.ThresholdPrice).
		Float64("price", quote.Price).
		Msg("Alert fired")

	if s.notifier != nil {
		s.notifier.NotifyAlert(*current, quote)
	}

	return current, nil
}
