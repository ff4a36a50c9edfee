package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable override.
const EnvPrefix = "MOTONOMAD_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention MOTONOMAD_SECTION_FIELD (e.g., MOTONOMAD_GATEWAY_API_KEY).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// Load is the entry point used by the command line tool. An empty path, or
// a path that does not exist when optional is set, yields the defaults with
// environment overrides applied. The API key is commonly supplied only
// through MOTONOMAD_GATEWAY_API_KEY.
func Load(path string, optional bool) (*Config, error) {
	if path != "" {
		cfg, err := LoadConfigWithEnvOverrides(path)
		if err == nil || !optional || !errors.Is(err, os.ErrNotExist) {
			return cfg, err
		}
	}

	cfg := Default()
	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format MOTONOMAD_SECTION_FIELD. Values that
// do not parse are ignored.
func applyEnvOverrides(cfg *Config) {
	// Gateway overrides
	envString("GATEWAY_MODE", &cfg.Gateway.Mode)
	envString("GATEWAY_API_KEY", &cfg.Gateway.APIKey)
	envString("GATEWAY_BASE_URL", &cfg.Gateway.BaseURL)
	envString("GATEWAY_PROXY_URL", &cfg.Gateway.ProxyURL)
	envString("GATEWAY_PROXY_TOKEN", &cfg.Gateway.ProxyToken)
	envString("GATEWAY_HTTP_REFERER", &cfg.Gateway.HTTPReferer)
	envString("GATEWAY_APP_TITLE", &cfg.Gateway.AppTitle)
	envDuration("GATEWAY_TIMEOUT", &cfg.Gateway.Timeout)
	envInt("GATEWAY_MAX_RETRIES", &cfg.Gateway.MaxRetries)
	envInt("GATEWAY_MAX_CONCURRENT_REQUESTS", &cfg.Gateway.MaxConcurrentRequests)
	envDuration("GATEWAY_MIN_REQUEST_DELAY", &cfg.Gateway.MinRequestDelay)
	envString("GATEWAY_PROBE_MODEL", &cfg.Gateway.ProbeModel)
	envDuration("GATEWAY_PROBE_TIMEOUT", &cfg.Gateway.ProbeTimeout)
	envString("GATEWAY_DEFAULT_MODEL", &cfg.Gateway.DefaultModel)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_LOGGING_DISABLE_REDACTION", &cfg.Telemetry.Logging.DisableRedaction)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_LISTEN_ADDRESS", &cfg.Telemetry.Metrics.ListenAddress)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)

	// Usage overrides
	envBool("USAGE_DISABLED", &cfg.Usage.Disabled)
	envString("USAGE_BACKEND", &cfg.Usage.Backend)
	envString("USAGE_SQLITE_PATH", &cfg.Usage.SQLitePath)
	envInt("USAGE_RETENTION_DAYS", &cfg.Usage.RetentionDays)
	envString("USAGE_PRUNE_SCHEDULE", &cfg.Usage.PruneSchedule)

	// Catalog overrides
	envString("CATALOG_REFRESH_SCHEDULE", &cfg.Catalog.RefreshSchedule)
	envDuration("CATALOG_MAX_AGE", &cfg.Catalog.MaxAge)

	// Planner overrides
	envString("PLANNER_MODEL", &cfg.Planner.Model)
	envFloat("PLANNER_TEMPERATURE", &cfg.Planner.Temperature)
	envInt("PLANNER_MAX_TOKENS", &cfg.Planner.MaxTokens)
}

func envString(name string, dst *string) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		*dst = val
	}
}

func envDuration(name string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func envInt(name string, dst *int) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envFloat(name string, dst *float64) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(name string, dst *bool) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}
