package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/robfig/cron/v3"

	"motonomad-hq/gateway/pkg/gateway"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "gateway.base_url").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
//
// A missing API key or proxy URL is not a validation error: the client is
// still constructed and reports the problem on each call. See Warnings.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateGateway(&cfg.Gateway)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateUsage(&cfg.Usage)...)
	errs = append(errs, validateCatalog(&cfg.Catalog)...)
	errs = append(errs, validatePlanner(&cfg.Planner)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// Warnings reports settings that load fine but leave AI features unusable.
func Warnings(cfg *Config) []FieldError {
	var warns []FieldError

	gw := cfg.Gateway.ClientConfig()
	switch gateway.Mode(cfg.Gateway.Mode) {
	case gateway.ModeProxy:
		if strings.TrimSpace(cfg.Gateway.ProxyURL) == "" {
			warns = append(warns, FieldError{
				Field:   "gateway.proxy_url",
				Message: "proxy mode requires a proxy url",
			})
		}
		if cfg.Gateway.ProxyToken == "" {
			warns = append(warns, FieldError{
				Field:   "gateway.proxy_token",
				Message: "no proxy token configured; requests are sent without credentials",
			})
		}
	default:
		if !gw.HasAPIKey() {
			warns = append(warns, FieldError{
				Field:   "gateway.api_key",
				Message: "api key is missing or a placeholder; set MOTONOMAD_GATEWAY_API_KEY",
			})
		}
	}

	return warns
}

// validateGateway validates gateway configuration.
func validateGateway(cfg *GatewayConfig) []FieldError {
	var errs []FieldError

	switch gateway.Mode(cfg.Mode) {
	case gateway.ModeDirect, gateway.ModeProxy:
	default:
		errs = append(errs, FieldError{
			Field:   "gateway.mode",
			Message: fmt.Sprintf("invalid mode %q (must be one of: direct, proxy)", cfg.Mode),
		})
	}

	if msg := checkHTTPURL(cfg.BaseURL); msg != "" {
		errs = append(errs, FieldError{Field: "gateway.base_url", Message: msg})
	}
	if cfg.ProxyURL != "" {
		if msg := checkHTTPURL(cfg.ProxyURL); msg != "" {
			errs = append(errs, FieldError{Field: "gateway.proxy_url", Message: msg})
		}
	}

	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "gateway.timeout",
			Message: "timeout must be positive",
		})
	}
	if cfg.MaxRetries < 1 {
		errs = append(errs, FieldError{
			Field:   "gateway.max_retries",
			Message: "max retries must be at least 1",
		})
	}
	if cfg.MaxConcurrentRequests < 1 {
		errs = append(errs, FieldError{
			Field:   "gateway.max_concurrent_requests",
			Message: "max concurrent requests must be at least 1",
		})
	}
	if cfg.MinRequestDelay < 0 {
		errs = append(errs, FieldError{
			Field:   "gateway.min_request_delay",
			Message: "min request delay must be non-negative",
		})
	}
	if cfg.ProbeTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "gateway.probe_timeout",
			Message: "probe timeout must be positive",
		})
	}

	return errs
}

// validateTelemetry validates logging and metrics configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, strings.ToLower(cfg.Logging.Level)) {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be one of: %s)", cfg.Logging.Level, strings.Join(validLevels, ", ")),
		})
	}

	validFormats := []string{"json", "text", "console"}
	if !slices.Contains(validFormats, strings.ToLower(cfg.Logging.Format)) {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be one of: %s)", cfg.Logging.Format, strings.Join(validFormats, ", ")),
		})
	}

	for i, p := range cfg.Logging.RedactPatterns {
		if p.Name == "" || p.Pattern == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d]", i),
				Message: "name and pattern are required",
			})
		}
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}
	if cfg.Metrics.Enabled && cfg.Metrics.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.listen_address",
			Message: "listen address is required when metrics are enabled",
		})
	}
	if !isAscending(cfg.Metrics.RequestDurationBuckets) {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.request_duration_buckets",
			Message: "buckets must be strictly increasing",
		})
	}
	if !isAscending(cfg.Metrics.TokenCountBuckets) {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.token_count_buckets",
			Message: "buckets must be strictly increasing",
		})
	}

	return errs
}

// validateUsage validates usage ledger configuration.
func validateUsage(cfg *UsageConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "sqlite":
		if cfg.SQLitePath == "" {
			errs = append(errs, FieldError{
				Field:   "usage.sqlite_path",
				Message: "sqlite path is required for the sqlite backend",
			})
		}
	case "memory":
	default:
		errs = append(errs, FieldError{
			Field:   "usage.backend",
			Message: fmt.Sprintf("invalid backend %q (must be one of: sqlite, memory)", cfg.Backend),
		})
	}

	if cfg.BusyTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "usage.busy_timeout",
			Message: "busy timeout must be non-negative",
		})
	}

	if _, err := cron.ParseStandard(cfg.PruneSchedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "usage.prune_schedule",
			Message: fmt.Sprintf("invalid cron expression: %v", err),
		})
	}

	return errs
}

// validateCatalog validates model catalog configuration.
func validateCatalog(cfg *CatalogConfig) []FieldError {
	var errs []FieldError

	if _, err := cron.ParseStandard(cfg.RefreshSchedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "catalog.refresh_schedule",
			Message: fmt.Sprintf("invalid cron expression: %v", err),
		})
	}
	if cfg.MaxAge < 0 {
		errs = append(errs, FieldError{
			Field:   "catalog.max_age",
			Message: "max age must be non-negative",
		})
	}

	return errs
}

// validatePlanner validates trip planner configuration.
func validatePlanner(cfg *PlannerConfig) []FieldError {
	var errs []FieldError

	if cfg.Model == "" {
		errs = append(errs, FieldError{
			Field:   "planner.model",
			Message: "model is required",
		})
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		errs = append(errs, FieldError{
			Field:   "planner.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}
	if cfg.MaxTokens <= 0 {
		errs = append(errs, FieldError{
			Field:   "planner.max_tokens",
			Message: "max tokens must be positive",
		})
	}

	return errs
}

// checkHTTPURL returns a problem description, or "" when raw is an absolute
// http or https URL.
func checkHTTPURL(raw string) string {
	if raw == "" {
		return "url is required"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("invalid url: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Sprintf("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return "url must include a host"
	}
	return ""
}

func isAscending(values []float64) bool {
	for i := 1; i < len(values); i++ {
		if values[i] <= values[i-1] {
			return false
		}
	}
	return true
}
