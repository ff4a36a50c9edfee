package gateway

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"
)

func TestPacer_MinimumSpacing(t *testing.T) {
	clock := newFakeClock()
	p := newPacer(2, 100*time.Millisecond, clock)
	ctx := context.Background()

	waited, err := p.Wait(ctx)
	if err != nil || waited != 0 {
		t.Fatalf("first Wait() = %v, %v; want 0, nil", waited, err)
	}

	clock.advance(30 * time.Millisecond)
	waited, err = p.Wait(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if waited != 70*time.Millisecond {
		t.Errorf("second Wait() waited %v, want 70ms", waited)
	}

	clock.advance(250 * time.Millisecond)
	waited, err = p.Wait(ctx)
	if err != nil || waited != 0 {
		t.Errorf("third Wait() = %v, %v; want 0, nil", waited, err)
	}

	if got, want := clock.Sleeps(), []time.Duration{70 * time.Millisecond}; !slices.Equal(got, want) {
		t.Errorf("sleeps = %v, want %v", got, want)
	}
}

func TestPacer_NoDelay(t *testing.T) {
	clock := newFakeClock()
	p := newPacer(1, 0, clock)

	for range 5 {
		if _, err := p.Wait(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if n := len(clock.Sleeps()); n != 0 {
		t.Errorf("slept %d times, want 0", n)
	}
}

func TestPacer_CanceledWhileWaitingForPermit(t *testing.T) {
	p := newPacer(1, 0, newFakeClock())
	p.permits <- struct{}{} // occupy the only permit

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}

func TestPacer_CanceledDuringPacingSleep(t *testing.T) {
	p := newPacer(1, time.Second, realClock{})
	if _, err := p.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Wait() took %v, expected to return on cancellation", elapsed)
	}
}

func TestPacer_ReleasesPermitAfterAdmission(t *testing.T) {
	p := newPacer(1, 0, newFakeClock())

	// With one permit, sequential waits only succeed if each admission
	// releases the permit before the network round trip.
	for range 3 {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_, err := p.Wait(ctx)
		cancel()
		if err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
}

func TestRealClock_Sleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := (realClock{}).Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep() error = %v, want context.Canceled", err)
	}
	if err := (realClock{}).Sleep(context.Background(), time.Millisecond); err != nil {
		t.Errorf("Sleep() error = %v", err)
	}
}

func TestBackoffDelay(t *testing.T) {
	want := map[int]time.Duration{1: 2 * time.Second, 2: 4 * time.Second, 3: 8 * time.Second}
	for attempt, d := range want {
		if got := backoffDelay(attempt); got != d {
			t.Errorf("backoffDelay(%d) = %v, want %v", attempt, got, d)
		}
	}
}
