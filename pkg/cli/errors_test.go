package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"motonomad-hq/gateway/pkg/config"
	"motonomad-hq/gateway/pkg/gateway"
)

func TestConfigError(t *testing.T) {
	err := &ConfigError{
		Field:   "gateway.api_key",
		Message: "missing required field",
	}

	expected := "config error in gateway.api_key: missing required field"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewConfigError(t *testing.T) {
	err := NewConfigError("field", "message")
	if err.Field != "field" {
		t.Errorf("Field = %q, want %q", err.Field, "field")
	}
	if err.Message != "message" {
		t.Errorf("Message = %q, want %q", err.Message, "message")
	}
}

func TestCommandError(t *testing.T) {
	underlyingErr := errors.New("underlying error")
	err := NewCommandError("suggest", underlyingErr)

	expected := "command suggest failed: underlying error"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, underlyingErr) {
		t.Error("errors.Is() should work with CommandError.Unwrap()")
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"auth", &gateway.AuthError{Message: "x"}, "MOTONOMAD_GATEWAY_API_KEY"},
		{"rate limit with hint", &gateway.RateLimitError{RetryAfter: 30 * time.Second}, "Try again in 30s."},
		{"rate limit without hint", &gateway.RateLimitError{}, "Try again in a moment."},
		{"credits", &gateway.InsufficientCreditsError{}, "no credits"},
		{"model", &gateway.ModelNotFoundError{}, "motonomad models"},
		{"server", &gateway.ServerError{StatusCode: 503}, "temporarily unavailable"},
		{"transport", &gateway.TransportError{Cause: errors.New("refused")}, "temporarily unavailable"},
		{"canceled", context.Canceled, "Cancelled."},
		{"wrapped", NewCommandError("chat", &gateway.AuthError{}), "credentials"},
		{"other", errors.New("disk full"), "disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Describe(tt.err)
			if tt.want == "" {
				if got != "" {
					t.Errorf("Describe() = %q, want empty", got)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("Describe() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"config error", NewConfigError("f", "m"), ExitConfig},
		{"config validation", fmt.Errorf("load: %w", config.ValidationError{}), ExitConfig},
		{"auth", &gateway.AuthError{}, ExitAuth},
		{"rate limit", &gateway.RateLimitError{}, ExitRateLimit},
		{"validation", &gateway.ValidationError{}, ExitUsage},
		{"canceled", context.Canceled, ExitCanceled},
		{"server", &gateway.ServerError{}, ExitFailure},
		{"other", errors.New("x"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
