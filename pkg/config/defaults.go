package config

import (
	"time"

	"motonomad-hq/gateway/pkg/gateway"
)

// Default values for configuration fields.
const (
	// Gateway defaults
	DefaultGatewayMode          = string(gateway.ModeDirect)
	DefaultGatewayBaseURL       = gateway.DefaultBaseURL
	DefaultGatewayHTTPReferer   = gateway.DefaultHTTPReferer
	DefaultGatewayAppTitle      = gateway.DefaultAppTitle
	DefaultGatewayTimeout       = gateway.DefaultTimeout
	DefaultGatewayMaxRetries    = gateway.DefaultMaxRetries
	DefaultGatewayMaxConcurrent = gateway.DefaultMaxConcurrentRequests
	DefaultGatewayMinDelay      = gateway.DefaultMinRequestDelay
	DefaultGatewayProbeModel    = gateway.DefaultProbeModel
	DefaultGatewayProbeTimeout  = gateway.DefaultProbeTimeout
	DefaultGatewayModel         = "google/gemma-3-27b-it:free"

	// Telemetry defaults
	DefaultLoggingLevel         = "info"
	DefaultLoggingFormat        = "console"
	DefaultMetricsListenAddress = "127.0.0.1:9464"
	DefaultMetricsPath          = "/metrics"
	DefaultMetricsNamespace     = "motonomad"
	DefaultMetricsSubsystem     = "gateway"

	// Usage defaults
	DefaultUsageBackend       = "sqlite"
	DefaultUsageSQLitePath    = "data/usage.db"
	DefaultUsageBusyTimeout   = 5 * time.Second
	DefaultUsageRetentionDays = 90
	DefaultUsagePruneSchedule = "0 3 * * *"

	// Catalog defaults
	DefaultCatalogRefreshSchedule = "@every 1h"
	DefaultCatalogMaxAge          = time.Hour

	// Planner defaults
	DefaultPlannerModel       = "google/gemma-3-27b-it:free"
	DefaultPlannerTemperature = 0.7
	DefaultPlannerMaxTokens   = 500
)

var (
	// DefaultRequestDurationBuckets covers free-tier latencies up to the 60s timeout.
	DefaultRequestDurationBuckets = []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60}

	// DefaultTokenCountBuckets covers short prompts to long completions.
	DefaultTokenCountBuckets = []float64{10, 50, 100, 500, 1000, 5000, 10000}
)

// Default returns a configuration with every default applied and no
// credentials.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Gateway defaults
	g := &cfg.Gateway
	if g.Mode == "" {
		g.Mode = DefaultGatewayMode
	}
	if g.BaseURL == "" {
		g.BaseURL = DefaultGatewayBaseURL
	}
	if g.HTTPReferer == "" {
		g.HTTPReferer = DefaultGatewayHTTPReferer
	}
	if g.AppTitle == "" {
		g.AppTitle = DefaultGatewayAppTitle
	}
	if g.Timeout == 0 {
		g.Timeout = DefaultGatewayTimeout
	}
	if g.MaxRetries == 0 {
		g.MaxRetries = DefaultGatewayMaxRetries
	}
	if g.MaxConcurrentRequests == 0 {
		g.MaxConcurrentRequests = DefaultGatewayMaxConcurrent
	}
	if g.MinRequestDelay == 0 {
		g.MinRequestDelay = DefaultGatewayMinDelay
	}
	if g.ProbeModel == "" {
		g.ProbeModel = DefaultGatewayProbeModel
	}
	if g.ProbeTimeout == 0 {
		g.ProbeTimeout = DefaultGatewayProbeTimeout
	}
	if g.DefaultModel == "" {
		g.DefaultModel = DefaultGatewayModel
	}

	// Telemetry defaults
	l := &cfg.Telemetry.Logging
	if l.Level == "" {
		l.Level = DefaultLoggingLevel
	}
	if l.Format == "" {
		l.Format = DefaultLoggingFormat
	}

	m := &cfg.Telemetry.Metrics
	if m.ListenAddress == "" {
		m.ListenAddress = DefaultMetricsListenAddress
	}
	if m.Path == "" {
		m.Path = DefaultMetricsPath
	}
	if m.Namespace == "" {
		m.Namespace = DefaultMetricsNamespace
	}
	if m.Subsystem == "" {
		m.Subsystem = DefaultMetricsSubsystem
	}
	if len(m.RequestDurationBuckets) == 0 {
		m.RequestDurationBuckets = append([]float64(nil), DefaultRequestDurationBuckets...)
	}
	if len(m.TokenCountBuckets) == 0 {
		m.TokenCountBuckets = append([]float64(nil), DefaultTokenCountBuckets...)
	}

	// Usage defaults
	u := &cfg.Usage
	if u.Backend == "" {
		u.Backend = DefaultUsageBackend
	}
	if u.SQLitePath == "" {
		u.SQLitePath = DefaultUsageSQLitePath
	}
	if u.BusyTimeout == 0 {
		u.BusyTimeout = DefaultUsageBusyTimeout
	}
	if u.RetentionDays == 0 {
		u.RetentionDays = DefaultUsageRetentionDays
	}
	if u.PruneSchedule == "" {
		u.PruneSchedule = DefaultUsagePruneSchedule
	}

	// Catalog defaults
	if cfg.Catalog.RefreshSchedule == "" {
		cfg.Catalog.RefreshSchedule = DefaultCatalogRefreshSchedule
	}
	if cfg.Catalog.MaxAge == 0 {
		cfg.Catalog.MaxAge = DefaultCatalogMaxAge
	}

	// Planner defaults
	p := &cfg.Planner
	if p.Model == "" {
		p.Model = DefaultPlannerModel
	}
	if p.Temperature == 0 {
		p.Temperature = DefaultPlannerTemperature
	}
	if p.MaxTokens == 0 {
		p.MaxTokens = DefaultPlannerMaxTokens
	}
}
