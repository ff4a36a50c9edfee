package config

import (
	"time"

	"motonomad-hq/gateway/pkg/gateway"
	"motonomad-hq/gateway/pkg/telemetry/logging"
)

// Config is the root configuration structure for the MotoNomad gateway client.
// It contains the gateway connection settings plus the supporting sections
// used by the command line tool: telemetry, usage ledger, model catalog and
// trip planner.
type Config struct {
	// Gateway contains the addressing mode, credentials, identification
	// headers, retry policy and pacing for the LLM gateway.
	Gateway GatewayConfig `yaml:"gateway"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Usage contains configuration for the per-call usage ledger.
	Usage UsageConfig `yaml:"usage"`

	// Catalog contains configuration for the cached model catalog.
	Catalog CatalogConfig `yaml:"catalog"`

	// Planner contains the trip planner's model settings.
	Planner PlannerConfig `yaml:"planner"`
}

// GatewayConfig contains configuration for the LLM gateway client.
type GatewayConfig struct {
	// Mode selects direct provider access ("direct") or a trusted
	// intermediary ("proxy").
	// Default: "direct"
	Mode string `yaml:"mode"`

	// APIKey is the provider API key used in direct mode.
	// Placeholder values such as "your-api-key-here" are treated as missing.
	APIKey string `yaml:"api_key"`

	// BaseURL is the provider API base URL.
	// Default: "https://openrouter.ai/api/v1"
	BaseURL string `yaml:"base_url"`

	// ProxyURL is the intermediary endpoint used in proxy mode.
	ProxyURL string `yaml:"proxy_url"`

	// ProxyToken is the bearer credential presented to the intermediary.
	ProxyToken string `yaml:"proxy_token"`

	// HTTPReferer is sent as the HTTP-Referer header.
	HTTPReferer string `yaml:"http_referer"`

	// AppTitle is sent as the X-Title header.
	AppTitle string `yaml:"app_title"`

	// Timeout is the per-attempt HTTP timeout.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries caps the attempts for server and transport failures.
	// 1 disables retries.
	// Default: 3
	MaxRetries int `yaml:"max_retries"`

	// MaxConcurrentRequests bounds how many calls are admitted at once.
	// Default: 5
	MaxConcurrentRequests int `yaml:"max_concurrent_requests"`

	// MinRequestDelay is the minimum spacing between request starts.
	// Default: 100ms
	MinRequestDelay time.Duration `yaml:"min_request_delay"`

	// ProbeModel is the model used to validate API keys.
	// Default: "openai/gpt-3.5-turbo"
	ProbeModel string `yaml:"probe_model"`

	// ProbeTimeout is the timeout for API key validation.
	// Default: 10s
	ProbeTimeout time.Duration `yaml:"probe_timeout"`

	// DefaultModel is used by commands that are not given --model.
	// Default: "google/gemma-3-27b-it:free"
	DefaultModel string `yaml:"default_model"`
}

// ClientConfig converts the section into the gateway client's configuration.
func (g GatewayConfig) ClientConfig() gateway.Config {
	return gateway.Config{
		Mode:                  gateway.Mode(g.Mode),
		APIKey:                g.APIKey,
		BaseURL:               g.BaseURL,
		ProxyURL:              g.ProxyURL,
		ProxyToken:            g.ProxyToken,
		HTTPReferer:           g.HTTPReferer,
		AppTitle:              g.AppTitle,
		Timeout:               g.Timeout,
		MaxRetries:            g.MaxRetries,
		MaxConcurrentRequests: g.MaxConcurrentRequests,
		MinRequestDelay:       g.MinRequestDelay,
		ProbeModel:            g.ProbeModel,
		ProbeTimeout:          g.ProbeTimeout,
	}
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format: "json", "text", "console".
	// Default: "console"
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	AddSource bool `yaml:"add_source"`

	// DisableRedaction turns off masking of API keys and bearer tokens.
	DisableRedaction bool `yaml:"disable_redaction"`

	// RedactPatterns are additional redaction patterns.
	RedactPatterns []logging.RedactPattern `yaml:"redact_patterns"`
}

// LoggerConfig converts the section into the logging package's configuration.
func (l LoggingConfig) LoggerConfig() logging.Config {
	return logging.Config{
		Level:          l.Level,
		Format:         l.Format,
		AddSource:      l.AddSource,
		RedactSecrets:  !l.DisableRedaction,
		RedactPatterns: l.RedactPatterns,
	}
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether the metrics endpoint is served.
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address of the metrics HTTP endpoint.
	// Default: "127.0.0.1:9464"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path for the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "motonomad"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "gateway"
	Subsystem string `yaml:"subsystem"`

	// RequestDurationBuckets defines histogram buckets for call latency (seconds).
	// Default: [0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`

	// TokenCountBuckets defines histogram buckets for token counts.
	// Default: [10, 50, 100, 500, 1000, 5000, 10000]
	TokenCountBuckets []float64 `yaml:"token_count_buckets"`
}

// UsageConfig contains configuration for the usage ledger.
type UsageConfig struct {
	// Disabled turns off recording of completed calls.
	Disabled bool `yaml:"disabled"`

	// Backend selects the storage backend: "sqlite" or "memory".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file for the sqlite backend.
	// Default: "data/usage.db"
	SQLitePath string `yaml:"sqlite_path"`

	// BusyTimeout is the SQLite busy timeout.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// RetentionDays is how long records are kept. Negative keeps them forever.
	// Default: 90
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is the cron expression for retention pruning.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// CatalogConfig contains configuration for the model catalog.
type CatalogConfig struct {
	// RefreshSchedule is the cron expression for refreshing the model list
	// in long-running commands.
	// Default: "@every 1h"
	RefreshSchedule string `yaml:"refresh_schedule"`

	// MaxAge is how long a fetched list is served before it is refreshed on demand.
	// Default: 1h
	MaxAge time.Duration `yaml:"max_age"`
}

// PlannerConfig contains the trip planner's model settings.
type PlannerConfig struct {
	// Model is the model used for trip suggestions.
	// Default: "google/gemma-3-27b-it:free"
	Model string `yaml:"model"`

	// Temperature is the sampling temperature.
	// Default: 0.7
	Temperature float64 `yaml:"temperature"`

	// MaxTokens caps the suggestion length.
	// Default: 500
	MaxTokens int `yaml:"max_tokens"`
}
