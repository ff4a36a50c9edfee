package gateway

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"motonomad-hq/gateway/internal/gatewaytest"
)

const testAPIKey = "sk-or-v1-test-key"

// fakeClock records requested sleeps and advances time instantly.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// recordingMetrics counts observations by name.
type recordingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
	kinds  []Kind
	tokens Usage
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{counts: make(map[string]int)}
}

func (m *recordingMetrics) inc(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[name]++
}

func (m *recordingMetrics) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}

func (m *recordingMetrics) ObserveRequest(model, outcome string, latency time.Duration) {
	m.inc("request_" + outcome)
}

func (m *recordingMetrics) ObserveError(model string, kind Kind) {
	m.mu.Lock()
	m.kinds = append(m.kinds, kind)
	m.mu.Unlock()
	m.inc("error")
}

func (m *recordingMetrics) ObserveRetry(model string, kind Kind) { m.inc("retry") }

func (m *recordingMetrics) ObserveTokens(model string, usage Usage) {
	m.mu.Lock()
	m.tokens = usage
	m.mu.Unlock()
	m.inc("tokens")
}

func (m *recordingMetrics) ObservePacingWait(wait time.Duration) { m.inc("pacing_wait") }
func (m *recordingMetrics) ObserveStreamChunk(model string)      { m.inc("stream_chunk") }
func (m *recordingMetrics) ObserveSkippedFrame(model string)     { m.inc("skipped_frame") }

// recordingSink keeps usage records in memory.
type recordingSink struct {
	mu      sync.Mutex
	records []UsageRecord
}

func (s *recordingSink) RecordUsage(ctx context.Context, rec UsageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *recordingSink) Records() []UsageRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]UsageRecord(nil), s.records...)
}

type testEnv struct {
	server  *gatewaytest.Server
	client  *Client
	clock   *fakeClock
	metrics *recordingMetrics
	sink    *recordingSink
}

// newTestEnv starts a scripted server and a direct-mode client pointed at it.
// Pacing is disabled and three attempts are allowed unless mutate says otherwise.
func newTestEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()

	srv := gatewaytest.NewServer()
	t.Cleanup(srv.Close)

	cfg := Config{
		Mode:                  ModeDirect,
		APIKey:                testAPIKey,
		BaseURL:               srv.URL(),
		Timeout:               5 * time.Second,
		MaxRetries:            3,
		MaxConcurrentRequests: 5,
		MinRequestDelay:       0,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	env := &testEnv{
		server:  srv,
		clock:   newFakeClock(),
		metrics: newRecordingMetrics(),
		sink:    &recordingSink{},
	}

	client, err := New(cfg,
		WithLogger(slog.New(slog.DiscardHandler)),
		WithClock(env.clock),
		WithMetrics(env.metrics),
		WithUsageSink(env.sink),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { client.Close() })
	env.client = client
	return env
}

func simpleRequest() *CompletionRequest {
	return &CompletionRequest{
		Model:    "google/gemma-3-27b-it:free",
		Messages: []Message{SystemMessage("You are helpful."), UserMessage("Hello")},
	}
}

func okCompletion(content string) gatewaytest.Response {
	return gatewaytest.Response{
		StatusCode: 200,
		Body:       gatewaytest.CompletionBody(content, "google/gemma-3-27b-it:free"),
	}
}

func statusResponse(status int) gatewaytest.Response {
	return gatewaytest.Response{
		StatusCode: status,
		Body:       gatewaytest.ErrorBody(status, "upstream says no"),
	}
}
