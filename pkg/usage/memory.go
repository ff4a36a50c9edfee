package usage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"motonomad-hq/gateway/pkg/gateway"
)

// MemoryStore keeps records in memory. It is used by tests and by the
// "memory" backend for short-lived sessions.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Record implements Store.
func (m *MemoryStore) Record(ctx context.Context, rec Record) error {
	if rec.Model == "" {
		return fmt.Errorf("record model cannot be empty")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	m.mu.Lock()
	m.records = append(m.records, rec)
	m.mu.Unlock()
	return nil
}

// Query implements Store.
func (m *MemoryStore) Query(ctx context.Context, filter Filter) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Record
	for _, r := range m.records {
		if filter.matches(r) {
			out = append(out, r)
		}
	}

	slices.SortStableFunc(out, func(a, b Record) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if len(out) > filter.limit() {
		out = out[:filter.limit()]
	}
	return out, nil
}

// Summary implements Store.
func (m *MemoryStore) Summary(ctx context.Context, since time.Time) (*Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var selected []Record
	for _, r := range m.records {
		if !r.CreatedAt.Before(since) {
			selected = append(selected, r)
		}
	}
	return summarize(since, selected), nil
}

// Prune implements Store.
func (m *MemoryStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.records[:0]
	var removed int64
	for _, r := range m.records {
		if r.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	m.records = kept
	return removed, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	return nil
}

// summarize aggregates records in memory.
func summarize(since time.Time, records []Record) *Summary {
	s := &Summary{Since: since}
	byModel := make(map[string]*ModelSummary)
	var latency time.Duration

	for _, r := range records {
		s.Calls++
		if r.Outcome == gateway.OutcomeError {
			s.Errors++
		} else {
			s.Successes++
		}
		s.PromptTokens += r.PromptTokens
		s.CompletionTokens += r.CompletionTokens
		s.TotalTokens += r.TotalTokens
		latency += r.Latency

		ms, ok := byModel[r.Model]
		if !ok {
			ms = &ModelSummary{Model: r.Model}
			byModel[r.Model] = ms
		}
		ms.Calls++
		ms.TotalTokens += r.TotalTokens
		if r.Outcome == gateway.OutcomeError {
			ms.Errors++
		}
	}

	if s.Calls > 0 {
		s.AvgLatency = latency / time.Duration(s.Calls)
	}

	for _, ms := range byModel {
		s.Models = append(s.Models, *ms)
	}
	sortModels(s.Models)
	return s
}

func sortModels(models []ModelSummary) {
	slices.SortFunc(models, func(a, b ModelSummary) int {
		if c := cmp.Compare(b.Calls, a.Calls); c != 0 {
			return c
		}
		return cmp.Compare(a.Model, b.Model)
	})
}
