package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nivesh/internal/interfaces"
)

// Service runs the background alert sweep on a cron schedule. One sweep
// runs at a time; an overlapping tick is skipped, not queued.
type Service struct {
	alerts interfaces.AlertService
	cron   *cron.Cron
	logger arbor.ILogger

	mu           sync.Mutex // Protects isProcessing
	isProcessing bool
	running      bool
}

// NewService creates the alert sweep scheduler
func NewService(alerts interfaces.AlertService, logger arbor.ILogger) *Service {
	return &Service{
		alerts: alerts,
		cron:   cron.New(),
		logger: logger,
	}
}

// Start begins the sweep with the given cron expression
func (s *Service) Start(cronExpr string) error {
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if cronExpr == "" {
		cronExpr = "*/2 * * * *" // Default: every 2 minutes
	}

	if _, err := s.cron.AddFunc(cronExpr, s.runSweep); err != nil {
		return fmt.Errorf("failed to add sweep job: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("cron_expr", cronExpr).
		Msg("Alert sweep scheduler started")

	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish
func (s *Service) Stop() error {
	if !s.running {
		return nil
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false

	s.logger.Info().Msg("Alert sweep scheduler stopped")
	return nil
}

// IsRunning returns true if the scheduler is active
func (s *Service) IsRunning() bool {
	return s.running
}

// TriggerSweepNow runs a sweep immediately in the background
func (s *Service) TriggerSweepNow() {
	s.logger.Info().Msg("Manual alert sweep requested")
	go s.runSweep()
}

// runSweep evaluates every active alert once
func (s *Service) runSweep() {
	// Panic recovery to prevent service crash
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("PANIC RECOVERED in alert sweep")
		}
	}()

	s.mu.Lock()
	if s.isProcessing {
		s.mu.Unlock()
		s.logger.Debug().Msg("Previous sweep still running, skipping this cycle")
		return
	}
	s.isProcessing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isProcessing = false
		s.mu.Unlock()
	}()

	start := time.Now()
	fired, err := s.alerts.CheckAll(context.Background())
	if err != nil {
		s.logger.Error().Err(err).Msg("Alert sweep failed")
		return
	}

	s.logger.Info().
		Int("fired", len(fired)).
		Dur("duration", time.Since(start)).
		Msg("Alert sweep completed")
}
