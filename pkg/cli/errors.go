package cli

import (
	"errors"
	"fmt"

	"motonomad-hq/gateway/pkg/config"
	"motonomad-hq/gateway/pkg/gateway"
)

// Exit codes returned by the motonomad command.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitUsage     = 2
	ExitConfig    = 3
	ExitAuth      = 4
	ExitRateLimit = 5
	ExitCanceled  = 130
)

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// Describe returns a message for the user that says what to do about err.
// Gateway errors are described by kind; anything else uses err.Error().
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var rl *gateway.RateLimitError
	switch gateway.KindOf(err) {
	case gateway.KindAuth:
		return "The AI service rejected the credentials. Check gateway.api_key or set MOTONOMAD_GATEWAY_API_KEY."
	case gateway.KindRateLimit:
		if errors.As(err, &rl) && rl.RetryAfter > 0 {
			return fmt.Sprintf("Too many requests. Try again in %s.", rl.RetryAfter)
		}
		return "Too many requests. Try again in a moment."
	case gateway.KindInsufficientCredits:
		return "The AI account has no credits left. Add credits to continue."
	case gateway.KindModelNotFound:
		return "The requested model is not available. Run 'motonomad models' to list models."
	case gateway.KindServer, gateway.KindTransport:
		return "The AI service is temporarily unavailable. Try again later."
	case gateway.KindCanceled:
		return "Cancelled."
	default:
		return err.Error()
	}
}

// ExitCode maps err to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		cfgErr      *ConfigError
		validateErr config.ValidationError
	)
	if errors.As(err, &cfgErr) || errors.As(err, &validateErr) {
		return ExitConfig
	}

	switch gateway.KindOf(err) {
	case gateway.KindAuth:
		return ExitAuth
	case gateway.KindRateLimit:
		return ExitRateLimit
	case gateway.KindValidation:
		return ExitUsage
	case gateway.KindCanceled:
		return ExitCanceled
	default:
		return ExitFailure
	}
}
