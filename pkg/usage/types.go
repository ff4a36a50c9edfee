package usage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"motonomad-hq/gateway/pkg/gateway"
)

// Record is one completed or failed gateway call.
type Record struct {
	// ID uniquely identifies the record
	ID string

	// RequestID correlates the record with log lines
	RequestID string

	// ResponseID is the gateway's completion id (empty on failure)
	ResponseID string

	Model string
	Mode  string

	PromptTokens     int
	CompletionTokens int
	TotalTokens      int

	// Latency is the total call time, including pacing and retries
	Latency time.Duration

	// Outcome is "success" or "error"
	Outcome string

	// ErrorKind is the gateway error kind name for failed calls
	ErrorKind string

	CreatedAt time.Time
}

// Filter selects records for Query. Zero fields do not filter.
type Filter struct {
	Since   time.Time
	Until   time.Time
	Model   string
	Outcome string

	// Limit caps the number of records (0 = DefaultQueryLimit)
	Limit int
}

// DefaultQueryLimit is used when Filter.Limit is zero.
const DefaultQueryLimit = 100

// ModelSummary aggregates the calls made to one model.
type ModelSummary struct {
	Model       string
	Calls       int
	Errors      int
	TotalTokens int
}

// Summary aggregates usage over a period.
type Summary struct {
	Since            time.Time
	Calls            int
	Successes        int
	Errors           int
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	AvgLatency       time.Duration

	// Models is ordered by call count, highest first
	Models []ModelSummary
}

// Store persists usage records.
type Store interface {
	// Record appends rec. An empty ID is filled in.
	Record(ctx context.Context, rec Record) error

	// Query returns matching records, newest first.
	Query(ctx context.Context, filter Filter) ([]Record, error)

	// Summary aggregates all records created at or after since.
	Summary(ctx context.Context, since time.Time) (*Summary, error)

	// Prune deletes records created before cutoff and returns how many were removed.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)

	Close() error
}

// Sink adapts a Store to gateway.UsageSink.
type Sink struct {
	Store Store
}

var _ gateway.UsageSink = Sink{}

// RecordUsage implements gateway.UsageSink.
func (s Sink) RecordUsage(ctx context.Context, rec gateway.UsageRecord) error {
	return s.Store.Record(ctx, FromGateway(rec))
}

// FromGateway converts a gateway usage record into a ledger record with a new ID.
func FromGateway(rec gateway.UsageRecord) Record {
	r := Record{
		ID:               uuid.NewString(),
		RequestID:        rec.RequestID,
		ResponseID:       rec.ResponseID,
		Model:            rec.Model,
		Mode:             string(rec.Mode),
		PromptTokens:     rec.Usage.PromptTokens,
		CompletionTokens: rec.Usage.CompletionTokens,
		TotalTokens:      rec.Usage.TotalTokens,
		Latency:          rec.Latency,
		Outcome:          rec.Outcome,
		CreatedAt:        rec.CreatedAt,
	}
	if rec.Outcome == gateway.OutcomeError {
		r.ErrorKind = rec.ErrorKind.String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	return r
}

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return DefaultQueryLimit
	}
	return f.Limit
}

func (f Filter) matches(r Record) bool {
	if !f.Since.IsZero() && r.CreatedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !r.CreatedAt.Before(f.Until) {
		return false
	}
	if f.Model != "" && r.Model != f.Model {
		return false
	}
	if f.Outcome != "" && r.Outcome != f.Outcome {
		return false
	}
	return true
}
