package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"motonomad-hq/gateway/pkg/config"
	"motonomad-hq/gateway/pkg/gateway"
)

// Collector records gateway client metrics in a Prometheus registry. It
// implements gateway.Metrics and is safe for concurrent use.
//
// Metrics (with the default namespace and subsystem):
//   - motonomad_gateway_requests_total: finished calls by model and outcome
//   - motonomad_gateway_request_duration_seconds: call latency including retries
//   - motonomad_gateway_errors_total: failed calls by model and error kind
//   - motonomad_gateway_retries_total: backoffs before a re-attempt
//   - motonomad_gateway_tokens: token usage by model and type (prompt/completion)
//   - motonomad_gateway_pacing_wait_seconds: time spent waiting for admission
//   - motonomad_gateway_stream_chunks_total: emitted stream chunks
//   - motonomad_gateway_stream_skipped_frames_total: malformed frames dropped
//   - motonomad_gateway_catalog_models: models in the last fetched catalog
type Collector struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	errors        *prometheus.CounterVec
	retries       *prometheus.CounterVec
	tokens        *prometheus.HistogramVec
	pacingWait    prometheus.Histogram
	streamChunks  *prometheus.CounterVec
	skippedFrames *prometheus.CounterVec
	catalogModels prometheus.Gauge
}

var _ gateway.Metrics = (*Collector)(nil)

// NewCollector creates and registers gateway metrics. If registry is nil a new
// one is created. Zero-valued fields of cfg take the package defaults.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	client, err := gateway.New(gwCfg, gateway.WithMetrics(collector))
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = config.DefaultMetricsNamespace
	}
	subsystem := cfg.Subsystem
	if subsystem == "" {
		subsystem = config.DefaultMetricsSubsystem
	}
	durationBuckets := cfg.RequestDurationBuckets
	if len(durationBuckets) == 0 {
		durationBuckets = config.DefaultRequestDurationBuckets
	}
	tokenBuckets := cfg.TokenCountBuckets
	if len(tokenBuckets) == 0 {
		tokenBuckets = config.DefaultTokenCountBuckets
	}

	c := &Collector{
		registry: registry,

		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "requests_total",
				Help:      "Total number of finished gateway calls by outcome",
			},
			[]string{"model", "outcome"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "request_duration_seconds",
				Help:      "Gateway call latency in seconds, including retries",
				Buckets:   durationBuckets,
			},
			[]string{"model", "outcome"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "errors_total",
				Help:      "Total number of failed gateway calls by error kind",
			},
			[]string{"model", "kind"},
		),

		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "retries_total",
				Help:      "Total number of backoffs before a re-attempt",
			},
			[]string{"model", "kind"},
		),

		tokens: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "tokens",
				Help:      "Token usage per call reported by the gateway",
				Buckets:   tokenBuckets,
			},
			[]string{"model", "type"},
		),

		pacingWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "pacing_wait_seconds",
				Help:      "Time spent waiting for request admission",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 5},
			},
		),

		streamChunks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stream_chunks_total",
				Help:      "Total number of stream chunks delivered",
			},
			[]string{"model"},
		),

		skippedFrames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stream_skipped_frames_total",
				Help:      "Total number of malformed stream frames skipped",
			},
			[]string{"model"},
		),

		catalogModels: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "catalog_models",
				Help:      "Number of models in the last fetched catalog",
			},
		),
	}

	registry.MustRegister(
		c.requests,
		c.duration,
		c.errors,
		c.retries,
		c.tokens,
		c.pacingWait,
		c.streamChunks,
		c.skippedFrames,
		c.catalogModels,
	)

	return c
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveRequest records a finished call and its latency.
func (c *Collector) ObserveRequest(model, outcome string, latency time.Duration) {
	c.requests.WithLabelValues(model, outcome).Inc()
	c.duration.WithLabelValues(model, outcome).Observe(latency.Seconds())
}

// ObserveError records a failed call by error kind.
func (c *Collector) ObserveError(model string, kind gateway.Kind) {
	c.errors.WithLabelValues(model, kind.String()).Inc()
}

// ObserveRetry records one backoff.
func (c *Collector) ObserveRetry(model string, kind gateway.Kind) {
	c.retries.WithLabelValues(model, kind.String()).Inc()
}

// ObserveTokens records prompt and completion token counts.
func (c *Collector) ObserveTokens(model string, usage gateway.Usage) {
	c.tokens.WithLabelValues(model, "prompt").Observe(float64(usage.PromptTokens))
	c.tokens.WithLabelValues(model, "completion").Observe(float64(usage.CompletionTokens))
}

// ObservePacingWait records time spent waiting for admission.
func (c *Collector) ObservePacingWait(wait time.Duration) {
	c.pacingWait.Observe(wait.Seconds())
}

// ObserveStreamChunk records one delivered stream chunk.
func (c *Collector) ObserveStreamChunk(model string) {
	c.streamChunks.WithLabelValues(model).Inc()
}

// ObserveSkippedFrame records one dropped stream frame.
func (c *Collector) ObserveSkippedFrame(model string) {
	c.skippedFrames.WithLabelValues(model).Inc()
}

// SetCatalogSize records the number of models in the catalog.
func (c *Collector) SetCatalogSize(n int) {
	c.catalogModels.Set(float64(n))
}
