package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Refresher refreshes a Catalog on a cron schedule.
type Refresher struct {
	catalog  *Catalog
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewRefresher creates a refresher for catalog. The schedule accepts standard
// cron expressions and descriptors such as "@every 1h".
func NewRefresher(catalog *Catalog, schedule string, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		catalog:  catalog,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger.With("component", "catalog.refresher"),
	}
}

// Start schedules refreshes until ctx is cancelled or Stop is called.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("refresher already running")
	}
	if _, err := cron.ParseStandard(r.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", r.schedule, err)
	}

	if _, err := r.cron.AddFunc(r.schedule, func() {
		if err := r.catalog.Refresh(ctx); err != nil {
			r.logger.Error("scheduled catalog refresh failed", "error", err)
			return
		}
		r.logger.Info("model catalog refreshed", "models", r.catalog.Size())
	}); err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}

	r.cron.Start()
	r.running = true
	r.logger.Info("catalog refresher started", "schedule", r.schedule)

	go func() {
		<-ctx.Done()
		r.Stop()
	}()

	return nil
}

// Stop stops the refresher and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}
	<-r.cron.Stop().Done()
	r.running = false
	r.logger.Info("catalog refresher stopped")
}

// IsRunning reports whether refreshes are scheduled.
func (r *Refresher) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// NextRun returns the next scheduled refresh, or nil if none is scheduled.
func (r *Refresher) NextRun() *time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
