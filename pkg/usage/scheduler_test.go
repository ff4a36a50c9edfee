package usage

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"motonomad-hq/gateway/pkg/gateway"
)

func TestPruneScheduler_RunOnce(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for _, age := range []time.Duration{time.Hour, 10 * 24 * time.Hour, 40 * 24 * time.Hour} {
		if err := store.Record(ctx, Record{Model: "m", Outcome: gateway.OutcomeSuccess, CreatedAt: now.Add(-age)}); err != nil {
			t.Fatal(err)
		}
	}

	s := NewPruneScheduler(store, 30, "0 3 * * *", slog.New(slog.DiscardHandler))
	s.now = func() time.Time { return now }

	deleted, err := s.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
}

func TestPruneScheduler_RetentionDisabled(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.Record(ctx, Record{Model: "m", CreatedAt: time.Now().Add(-1000 * 24 * time.Hour)}); err != nil {
		t.Fatal(err)
	}

	s := NewPruneScheduler(store, -1, "0 3 * * *", slog.New(slog.DiscardHandler))
	deleted, err := s.RunOnce(ctx)
	if err != nil || deleted != 0 {
		t.Errorf("RunOnce() = %d, %v; want 0, nil", deleted, err)
	}

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if s.IsRunning() {
		t.Error("scheduler should not run when retention is disabled")
	}
	if s.NextRun() != nil {
		t.Error("NextRun() should be nil when not scheduled")
	}
}

func TestPruneScheduler_StartStop(t *testing.T) {
	s := NewPruneScheduler(NewMemoryStore(), 30, "@every 1h", slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !s.IsRunning() {
		t.Error("expected scheduler to be running")
	}
	if next := s.NextRun(); next == nil {
		t.Error("expected a scheduled next run")
	}

	s.Stop()
	if s.IsRunning() {
		t.Error("expected scheduler to be stopped")
	}
}

func TestPruneScheduler_InvalidSchedule(t *testing.T) {
	s := NewPruneScheduler(NewMemoryStore(), 30, "not a schedule", slog.New(slog.DiscardHandler))
	if err := s.Start(context.Background()); err == nil {
		t.Error("expected error for invalid schedule")
	}
}
