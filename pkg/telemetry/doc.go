// Package telemetry groups the observability packages of the MotoNomad
// gateway client.
//
//   - logging: slog loggers with request context fields and secret redaction
//   - metrics: Prometheus collectors for calls, retries, tokens and streams
//   - health: liveness and readiness endpoints served next to /metrics
package telemetry
