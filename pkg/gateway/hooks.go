package gateway

import (
	"context"
	"time"
)

// Outcome labels recorded for each call.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics receives client-side measurements. Implementations must be safe for
// concurrent use. A nil Metrics passed to WithMetrics is ignored.
type Metrics interface {
	// ObserveRequest records a finished call and its total latency.
	ObserveRequest(model, outcome string, latency time.Duration)

	// ObserveError records a failed call by error kind.
	ObserveError(model string, kind Kind)

	// ObserveRetry records one backoff before a re-attempt.
	ObserveRetry(model string, kind Kind)

	// ObserveTokens records token usage reported by the gateway.
	ObserveTokens(model string, usage Usage)

	// ObservePacingWait records time spent waiting for admission.
	ObservePacingWait(wait time.Duration)

	// ObserveStreamChunk records one emitted stream chunk.
	ObserveStreamChunk(model string)

	// ObserveSkippedFrame records a malformed stream frame that was dropped.
	ObserveSkippedFrame(model string)
}

// UsageRecord is one completed (or failed) non-streaming call.
type UsageRecord struct {
	RequestID  string
	ResponseID string
	Model      string
	Mode       Mode
	Usage      Usage
	Latency    time.Duration
	Outcome    string
	ErrorKind  Kind
	CreatedAt  time.Time
}

// UsageSink persists usage records. Errors are logged and never fail the call.
type UsageSink interface {
	RecordUsage(ctx context.Context, rec UsageRecord) error
}

type nopMetrics struct{}

func (nopMetrics) ObserveRequest(string, string, time.Duration) {}
func (nopMetrics) ObserveError(string, Kind)                    {}
func (nopMetrics) ObserveRetry(string, Kind)                    {}
func (nopMetrics) ObserveTokens(string, Usage)                  {}
func (nopMetrics) ObservePacingWait(time.Duration)              {}
func (nopMetrics) ObserveStreamChunk(string)                    {}
func (nopMetrics) ObserveSkippedFrame(string)                   {}
