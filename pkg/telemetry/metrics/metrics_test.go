package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"motonomad-hq/gateway/pkg/config"
	"motonomad-hq/gateway/pkg/gateway"
)

// testConfig returns a metrics config with test namespace.
func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Namespace:              "test",
		Subsystem:              "gateway",
		RequestDurationBuckets: []float64{0.1, 0.5, 1.0, 5.0},
		TokenCountBuckets:      []float64{10, 100, 1000},
	}
}

func TestNewCollector_Defaults(t *testing.T) {
	c := NewCollector(&config.MetricsConfig{}, nil)

	if c.Registry() == nil {
		t.Fatal("expected registry to be created")
	}

	c.ObserveRequest("m", gateway.OutcomeSuccess, time.Second)

	families, err := c.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	found := false
	for _, mf := range families {
		if mf.GetName() == "motonomad_gateway_requests_total" {
			found = true
		}
	}
	if !found {
		t.Error("expected motonomad_gateway_requests_total with default namespace")
	}
}

func TestCollector_ObserveRequest(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(testConfig(), registry)

	c.ObserveRequest("openai/gpt-4o", gateway.OutcomeSuccess, 200*time.Millisecond)
	c.ObserveRequest("openai/gpt-4o", gateway.OutcomeSuccess, 2*time.Second)
	c.ObserveRequest("openai/gpt-4o", gateway.OutcomeError, time.Second)

	if got := testutil.ToFloat64(c.requests.WithLabelValues("openai/gpt-4o", gateway.OutcomeSuccess)); got != 2 {
		t.Errorf("success requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.requests.WithLabelValues("openai/gpt-4o", gateway.OutcomeError)); got != 1 {
		t.Errorf("error requests = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(c.duration); got != 2 {
		t.Errorf("duration series = %d, want 2", got)
	}
}

func TestCollector_ErrorsAndRetries(t *testing.T) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())

	c.ObserveRetry("m", gateway.KindServer)
	c.ObserveRetry("m", gateway.KindServer)
	c.ObserveError("m", gateway.KindServer)
	c.ObserveError("m", gateway.KindRateLimit)

	if got := testutil.ToFloat64(c.retries.WithLabelValues("m", "server")); got != 2 {
		t.Errorf("server retries = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.errors.WithLabelValues("m", "rate_limit")); got != 1 {
		t.Errorf("rate limit errors = %v, want 1", got)
	}
}

func TestCollector_StreamCounters(t *testing.T) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())

	c.ObserveStreamChunk("m")
	c.ObserveStreamChunk("m")
	c.ObserveSkippedFrame("m")

	if got := testutil.ToFloat64(c.streamChunks.WithLabelValues("m")); got != 2 {
		t.Errorf("stream chunks = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.skippedFrames.WithLabelValues("m")); got != 1 {
		t.Errorf("skipped frames = %v, want 1", got)
	}
}

func TestCollector_TokensAndGauges(t *testing.T) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())

	c.ObserveTokens("m", gateway.Usage{PromptTokens: 12, CompletionTokens: 30, TotalTokens: 42})
	c.ObservePacingWait(80 * time.Millisecond)
	c.SetCatalogSize(317)

	if got := testutil.CollectAndCount(c.tokens); got != 2 {
		t.Errorf("token series = %d, want 2 (prompt and completion)", got)
	}
	if got := testutil.ToFloat64(c.catalogModels); got != 317 {
		t.Errorf("catalog models = %v, want 317", got)
	}
	if got := testutil.CollectAndCount(c.pacingWait); got != 1 {
		t.Errorf("pacing wait series = %d, want 1", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())
	c.ObserveError("m", gateway.KindAuth)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `test_gateway_errors_total{kind="auth",model="m"} 1`) {
		t.Errorf("metrics output missing error counter:\n%s", rec.Body.String())
	}
}
