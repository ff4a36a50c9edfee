package gateway

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// maxErrorBody bounds how much of an error response body is read.
const maxErrorBody = 64 << 10

// classifyResponse maps a non-2xx response to a typed error. It consumes the body.
func (c *Client) classifyResponse(ctx context.Context, logger *slog.Logger, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	body := string(raw)

	logger.ErrorContext(ctx, "gateway api error",
		"status", resp.StatusCode,
		"body", truncate(body, maxLoggedBody),
	)

	return classifyStatus(resp.StatusCode, resp.Header, body, c.clock.Now())
}

// classifyStatus maps an HTTP status code to the error taxonomy. now anchors
// an HTTP-date Retry-After.
func classifyStatus(status int, header http.Header, body string, now time.Time) error {
	switch status {
	case http.StatusUnauthorized:
		return &AuthError{Message: "invalid api key; check the gateway configuration"}

	case http.StatusPaymentRequired:
		return &InsufficientCreditsError{Message: "insufficient credits in gateway account; add credits to continue"}

	case http.StatusNotFound:
		return &ModelNotFoundError{Message: "model not found; check the model name and try again"}

	case http.StatusTooManyRequests:
		return &RateLimitError{
			RetryAfter: parseRetryAfter(header.Get("Retry-After"), now),
			Message:    "rate limit exceeded; wait before making more requests",
		}

	case http.StatusBadRequest:
		return &ValidationError{Message: "invalid request: " + body}

	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return &ServerError{
			StatusCode: status,
			Message:    "gateway server error; try again later",
			Body:       body,
		}

	default:
		return &GatewayError{
			StatusCode: status,
			Message:    fmt.Sprintf("unexpected error from gateway: %d - %s", status, body),
			Body:       body,
		}
	}
}

// parseRetryAfter parses the Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
func parseRetryAfter(header string, now time.Time) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(header); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}

	return 0
}
