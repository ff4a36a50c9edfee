package usage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// PruneScheduler deletes records older than the retention period on a cron
// schedule.
type PruneScheduler struct {
	store     Store
	retention time.Duration
	schedule  string
	now       func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	logger  *slog.Logger
	running bool
}

// NewPruneScheduler creates a scheduler that keeps retentionDays of records.
// A non-positive retentionDays disables pruning.
func NewPruneScheduler(store Store, retentionDays int, schedule string, logger *slog.Logger) *PruneScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PruneScheduler{
		store:     store,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		schedule:  schedule,
		now:       time.Now,
		cron:      cron.New(),
		logger:    logger.With("component", "usage.scheduler"),
	}
}

// Start schedules pruning. It does nothing when retention is disabled or the
// schedule is empty. The scheduler stops when ctx is cancelled.
//
// Common cron expressions:
//   - "0 3 * * *"    - Daily at 3 AM
//   - "@every 6h"    - Every 6 hours
func (s *PruneScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.retention <= 0 || s.schedule == "" {
		s.logger.Info("usage retention disabled, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("scheduled usage pruning failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("usage retention scheduler started",
		"schedule", s.schedule,
		"retention", s.retention,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// RunOnce prunes records older than the retention period.
func (s *PruneScheduler) RunOnce(ctx context.Context) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}

	cutoff := s.now().Add(-s.retention)
	deleted, err := s.store.Prune(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		s.logger.Info("usage pruning completed", "deleted_count", deleted, "cutoff", cutoff)
	} else {
		s.logger.Debug("usage pruning completed, no records deleted")
	}
	return deleted, nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *PruneScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("usage retention scheduler stopped")
	}
}

// IsRunning reports whether the scheduler is active.
func (s *PruneScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled pruning time, or nil if not scheduled.
func (s *PruneScheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
