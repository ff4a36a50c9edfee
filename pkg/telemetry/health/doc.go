// Package health reports whether the gateway client and its usage ledger are
// usable, for long-running commands that expose an HTTP endpoint.
//
// Endpoints mounted by Checker.Mount:
//
//   - /healthz: liveness, always ok while the process runs
//   - /readyz: readiness, runs every registered check and answers 503 when
//     any check fails
//   - /version: build information
//
// Usage:
//
//	checker := health.New(2 * time.Second)
//	checker.Register("gateway", health.ConsecutiveErrors(client, 5))
//	checker.Register("usage", func(ctx context.Context) error {
//	    _, err := store.Query(ctx, usage.Filter{Limit: 1})
//	    return err
//	})
//	checker.Mount(mux, health.BuildInfo{Version: "0.1.0"})
package health
