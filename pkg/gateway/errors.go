package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Kind classifies gateway failures so callers can choose a reaction per kind
// without matching on concrete types.
type Kind int

const (
	// KindUnknown is returned by KindOf for nil or foreign errors.
	KindUnknown Kind = iota
	// KindValidation is a malformed request, detected locally or reported by HTTP 400.
	KindValidation
	// KindAuth is a missing, placeholder or rejected credential.
	KindAuth
	// KindRateLimit is an HTTP 429 from the gateway.
	KindRateLimit
	// KindModelNotFound is an HTTP 404 for the requested model.
	KindModelNotFound
	// KindInsufficientCredits is an HTTP 402.
	KindInsufficientCredits
	// KindServer is an HTTP 500, 502 or 503. It is retried.
	KindServer
	// KindTransport is a network failure or timeout before a status was received. It is retried.
	KindTransport
	// KindResponseValidation is a successful exchange with an unusable payload.
	KindResponseValidation
	// KindGateway is any other unexpected gateway failure.
	KindGateway
	// KindCanceled is a caller cancellation or deadline.
	KindCanceled
)

var kindNames = map[Kind]string{
	KindUnknown:             "unknown",
	KindValidation:          "validation",
	KindAuth:                "auth",
	KindRateLimit:           "rate_limit",
	KindModelNotFound:       "model_not_found",
	KindInsufficientCredits: "insufficient_credits",
	KindServer:              "server",
	KindTransport:           "transport",
	KindResponseValidation:  "response_validation",
	KindGateway:             "gateway",
	KindCanceled:            "canceled",
}

// String returns the snake_case name of the kind, suitable for metric labels.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ValidationError represents a request validation failure.
// It is raised locally before any network I/O, and for HTTP 400 responses.
type ValidationError struct {
	// Field is the name of the invalid field (empty for gateway-reported errors)
	Field string

	// Message describes what is invalid
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error for field %q: %s", e.Field, e.Message)
}

// AuthError represents an authentication failure: a missing or placeholder
// credential detected before the call, or an HTTP 401 from the gateway.
type AuthError struct {
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("gateway authentication failed: %s", e.Message)
}

// RateLimitError represents a rate limit exceeded error (HTTP 429).
// It is never retried by the client; RetryAfter is a hint for the caller.
type RateLimitError struct {
	// RetryAfter is the duration to wait before retrying (zero if not provided)
	RetryAfter time.Duration

	// Message is the error message
	Message string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("gateway rate limit exceeded (retry after %s): %s", e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("gateway rate limit exceeded: %s", e.Message)
}

// ModelNotFoundError represents an unknown model error (HTTP 404).
type ModelNotFoundError struct {
	// Model is the requested model identifier, when known
	Model string

	// Message is the error message
	Message string
}

// Error implements the error interface.
func (e *ModelNotFoundError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("gateway model %q not found: %s", e.Model, e.Message)
	}
	return fmt.Sprintf("gateway model not found: %s", e.Message)
}

// InsufficientCreditsError is returned when the account has no credits left (HTTP 402).
type InsufficientCreditsError struct {
	Message string
}

// Error implements the error interface.
func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("gateway insufficient credits: %s", e.Message)
}

// ServerError represents a transient gateway failure (HTTP 500, 502, 503).
type ServerError struct {
	StatusCode int
	Message    string
	Body       string
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	return fmt.Sprintf("gateway server error (status %d): %s", e.StatusCode, e.Message)
}

// TransportError wraps a network-level failure where no HTTP status was received.
type TransportError struct {
	// Timeout reports whether the failure was a timeout
	Timeout bool

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("gateway request timed out: %v", e.Cause)
	}
	return fmt.Sprintf("gateway transport error: %v", e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// ResponseValidationError represents a successful exchange whose payload is
// unusable: empty content, a body that does not match the requested schema,
// or a non-JSON response.
type ResponseValidationError struct {
	// Message describes the failure
	Message string

	// ExpectedSchema is the JSON encoding of the requested schema, if any
	ExpectedSchema string

	// ActualResponse is the raw payload that failed validation, if any
	ActualResponse string

	// Cause is the underlying decode error (if any)
	Cause error
}

// Error implements the error interface.
func (e *ResponseValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("gateway response validation failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("gateway response validation failed: %s", e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *ResponseValidationError) Unwrap() error {
	return e.Cause
}

// GatewayError is the catch-all for unexpected status codes and unexpected
// local failures.
type GatewayError struct {
	// StatusCode is the HTTP status code (0 if not applicable)
	StatusCode int

	// Message is the error message
	Message string

	// Body is the raw response body (if any)
	Body string

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	switch {
	case e.StatusCode > 0:
		return fmt.Sprintf("gateway error (status %d): %s", e.StatusCode, e.Message)
	case e.Cause != nil:
		return fmt.Sprintf("gateway error: %s: %v", e.Message, e.Cause)
	default:
		return fmt.Sprintf("gateway error: %s", e.Message)
	}
}

// Unwrap returns the underlying error for error chain support.
func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// KindOf reports the kind of err, looking through wrapped errors.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var (
		validationErr *ValidationError
		authErr       *AuthError
		rateLimitErr  *RateLimitError
		notFoundErr   *ModelNotFoundError
		creditsErr    *InsufficientCreditsError
		serverErr     *ServerError
		transportErr  *TransportError
		responseErr   *ResponseValidationError
		gatewayErr    *GatewayError
	)

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.As(err, &validationErr):
		return KindValidation
	case errors.As(err, &authErr):
		return KindAuth
	case errors.As(err, &rateLimitErr):
		return KindRateLimit
	case errors.As(err, &notFoundErr):
		return KindModelNotFound
	case errors.As(err, &creditsErr):
		return KindInsufficientCredits
	case errors.As(err, &serverErr):
		return KindServer
	case errors.As(err, &transportErr):
		return KindTransport
	case errors.As(err, &responseErr):
		return KindResponseValidation
	case errors.As(err, &gatewayErr):
		return KindGateway
	default:
		return KindUnknown
	}
}

// IsRetryable reports whether the retry policy re-attempts err.
// Only server errors and transport failures qualify; rate limits are left to
// the caller, who has the Retry-After hint.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindServer, KindTransport:
		return true
	default:
		return false
	}
}
