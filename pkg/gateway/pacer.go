package gateway

import (
	"context"
	"sync"
	"time"
)

// Clock abstracts time for pacing and backoff so tests can observe delays
// without sleeping.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// pacer enforces cooperative request pacing: at most maxConcurrent callers are
// admitted at once, and consecutive admissions are spaced at least minDelay
// apart (start to start). The permit is held only for the admission itself,
// not for the network round trip.
type pacer struct {
	permits  chan struct{}
	minDelay time.Duration
	clock    Clock

	// mu serializes the measure-sleep-stamp sequence.
	mu   sync.Mutex
	last time.Time
}

func newPacer(maxConcurrent int, minDelay time.Duration, clock Clock) *pacer {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &pacer{
		permits:  make(chan struct{}, maxConcurrent),
		minDelay: minDelay,
		clock:    clock,
	}
}

// Wait admits the caller, sleeping if the previous admission was too recent.
// It returns how long the caller waited for pacing.
func (p *pacer) Wait(ctx context.Context) (time.Duration, error) {
	select {
	case p.permits <- struct{}{}:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	defer func() { <-p.permits }()

	p.mu.Lock()
	defer p.mu.Unlock()

	var waited time.Duration
	if !p.last.IsZero() {
		gap := p.clock.Now().Sub(p.last)
		if gap < p.minDelay {
			waited = p.minDelay - gap
			if err := p.clock.Sleep(ctx, waited); err != nil {
				return 0, err
			}
		}
	}

	p.last = p.clock.Now()
	return waited, nil
}
