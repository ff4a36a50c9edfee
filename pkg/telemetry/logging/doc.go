// Package logging builds the structured logger used across the gateway client
// and its commands.
//
// # Overview
//
// New returns a *slog.Logger whose handler:
//   - writes JSON, text, or colorized console output (via tint)
//   - adds request_id, model and session from the context
//   - masks API keys and bearer tokens when RedactSecrets is enabled
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:         "info",
//	    Format:        "console",
//	    RedactSecrets: true,
//	})
//	if err != nil {
//	    return err
//	}
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	logger.InfoContext(ctx, "sending request",
//	    "authorization", "Bearer sk-or-v1-abc", // masked
//	)
package logging
