package gateway

import (
	"context"
	"log/slog"
	"math"
	"time"
)

// retry runs op until it succeeds, returns a non-retryable error, or the
// attempt count reaches MaxRetries. The delay before re-attempt n+1 is 2^n
// seconds, starting at n=1. The last error is returned unchanged.
func retry[T any](ctx context.Context, c *Client, logger *slog.Logger, model string, op func(context.Context) (T, error)) (T, error) {
	var zero T
	attempt := 0

	for {
		result, err := op(ctx)
		if err == nil {
			c.consecutiveErrors.Store(0)
			return result, nil
		}

		if !IsRetryable(err) || ctx.Err() != nil {
			return zero, err
		}

		attempt++
		c.consecutiveErrors.Add(1)

		if attempt >= c.config.MaxRetries {
			logger.ErrorContext(ctx, "operation failed after retries",
				"attempts", attempt,
				"error", err,
			)
			return zero, err
		}

		delay := backoffDelay(attempt)
		logger.WarnContext(ctx, "attempt failed, retrying",
			"attempt", attempt,
			"max_retries", c.config.MaxRetries,
			"backoff", delay,
			"error", err,
		)
		c.metrics.ObserveRetry(model, KindOf(err))

		if err := c.clock.Sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
}

// backoffDelay returns the delay after the given failed attempt (1-based).
func backoffDelay(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}
