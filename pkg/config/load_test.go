package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "motonomad.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
gateway:
  mode: proxy
  proxy_url: "https://proxy.example.com/ai"
  proxy_token: "anon-token"
  timeout: 30s
  max_retries: 5
  min_request_delay: 250ms

telemetry:
  logging:
    level: debug
    format: text

usage:
  backend: memory

planner:
  temperature: 0.3
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Gateway.Mode != "proxy" {
		t.Errorf("expected mode %q, got %q", "proxy", cfg.Gateway.Mode)
	}
	if cfg.Gateway.ProxyURL != "https://proxy.example.com/ai" {
		t.Errorf("expected proxy url, got %q", cfg.Gateway.ProxyURL)
	}
	if cfg.Gateway.Timeout != 30*time.Second {
		t.Errorf("expected timeout %v, got %v", 30*time.Second, cfg.Gateway.Timeout)
	}
	if cfg.Gateway.MaxRetries != 5 {
		t.Errorf("expected max retries 5, got %d", cfg.Gateway.MaxRetries)
	}
	if cfg.Gateway.MinRequestDelay != 250*time.Millisecond {
		t.Errorf("expected min request delay 250ms, got %v", cfg.Gateway.MinRequestDelay)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
	if cfg.Planner.Temperature != 0.3 {
		t.Errorf("expected planner temperature 0.3, got %v", cfg.Planner.Temperature)
	}

	// Defaults fill the rest.
	if cfg.Gateway.BaseURL != DefaultGatewayBaseURL {
		t.Errorf("expected default base url, got %q", cfg.Gateway.BaseURL)
	}
	if cfg.Planner.MaxTokens != DefaultPlannerMaxTokens {
		t.Errorf("expected default planner max tokens, got %d", cfg.Planner.MaxTokens)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist in chain, got %v", err)
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "gateway:\n  mode: [direct\n")

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
gateway:
  mode: relay
`)

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if verr.Errors[0].Field != "gateway.mode" {
		t.Errorf("expected gateway.mode error, got %q", verr.Errors[0].Field)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
gateway:
  api_key: "your-api-key-here"
`)

	t.Setenv("MOTONOMAD_GATEWAY_API_KEY", "sk-or-v1-env")
	t.Setenv("MOTONOMAD_GATEWAY_TIMEOUT", "15s")
	t.Setenv("MOTONOMAD_GATEWAY_MAX_CONCURRENT_REQUESTS", "2")
	t.Setenv("MOTONOMAD_TELEMETRY_METRICS_ENABLED", "true")
	t.Setenv("MOTONOMAD_PLANNER_TEMPERATURE", "1.2")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Gateway.APIKey != "sk-or-v1-env" {
		t.Errorf("expected env api key, got %q", cfg.Gateway.APIKey)
	}
	if cfg.Gateway.Timeout != 15*time.Second {
		t.Errorf("expected timeout 15s, got %v", cfg.Gateway.Timeout)
	}
	if cfg.Gateway.MaxConcurrentRequests != 2 {
		t.Errorf("expected max concurrent 2, got %d", cfg.Gateway.MaxConcurrentRequests)
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics enabled")
	}
	if cfg.Planner.Temperature != 1.2 {
		t.Errorf("expected temperature 1.2, got %v", cfg.Planner.Temperature)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidValuesIgnored(t *testing.T) {
	path := writeConfig(t, "gateway:\n  max_retries: 4\n")

	t.Setenv("MOTONOMAD_GATEWAY_MAX_RETRIES", "many")
	t.Setenv("MOTONOMAD_GATEWAY_TIMEOUT", "soon")
	t.Setenv("MOTONOMAD_USAGE_DISABLED", "perhaps")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Gateway.MaxRetries != 4 {
		t.Errorf("expected file value 4, got %d", cfg.Gateway.MaxRetries)
	}
	if cfg.Gateway.Timeout != DefaultGatewayTimeout {
		t.Errorf("expected default timeout, got %v", cfg.Gateway.Timeout)
	}
	if cfg.Usage.Disabled {
		t.Error("expected usage to stay enabled")
	}
}

func TestLoadConfigWithEnvOverrides_InvalidAfterOverride(t *testing.T) {
	path := writeConfig(t, "gateway:\n  mode: direct\n")
	t.Setenv("MOTONOMAD_GATEWAY_MODE", "carrier-pigeon")

	if _, err := LoadConfigWithEnvOverrides(path); err == nil {
		t.Fatal("expected validation error after override")
	}
}

func TestLoad(t *testing.T) {
	t.Run("empty path uses defaults", func(t *testing.T) {
		t.Setenv("MOTONOMAD_GATEWAY_API_KEY", "sk-or-v1-abc")

		cfg, err := Load("", false)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Gateway.APIKey != "sk-or-v1-abc" {
			t.Errorf("expected env api key, got %q", cfg.Gateway.APIKey)
		}
		if cfg.Gateway.BaseURL != DefaultGatewayBaseURL {
			t.Errorf("expected default base url, got %q", cfg.Gateway.BaseURL)
		}
	})

	t.Run("optional missing file uses defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), true)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Gateway.Mode != DefaultGatewayMode {
			t.Errorf("expected default mode, got %q", cfg.Gateway.Mode)
		}
	})

	t.Run("required missing file fails", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("optional invalid file still fails", func(t *testing.T) {
		path := writeConfig(t, "gateway:\n  mode: relay\n")
		if _, err := Load(path, true); err == nil {
			t.Fatal("expected validation error")
		}
	})
}
