package reset

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper prunes expired and used tokens from the store on a cron
// schedule, keeping the store bounded instead of growing for the process
// lifetime.
type Sweeper struct {
	store    Store
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewSweeper creates a sweeper for the given store and cron schedule.
func NewSweeper(store Store, schedule string, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		store:    store,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger.With("component", "reset.sweeper"),
	}
}

// Start begins scheduled sweeping. An empty schedule disables the sweeper.
//
// Common cron expressions:
//   - "*/10 * * * *" - Every 10 minutes
//   - "0 * * * *"    - Hourly
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("sweeper already running")
	}
	if s.schedule == "" {
		s.logger.Info("sweep schedule not configured, skipping sweeper")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.sweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("token sweeper started", "schedule", s.schedule)
	return nil
}

// Stop halts scheduled sweeping and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.running = false
	s.logger.Info("token sweeper stopped")
}

// sweep runs a single prune pass.
func (s *Sweeper) sweep(ctx context.Context) {
	start := time.Now()
	removed, err := s.store.DeleteExpired(ctx, time.Now())
	if err != nil {
		s.logger.Error("token sweep failed", "error", err)
		return
	}
	if removed > 0 {
		s.logger.Info("token sweep completed",
			"removed", removed,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
