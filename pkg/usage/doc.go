// Package usage records one ledger entry per non-streaming gateway call:
// model, token counts, latency and outcome.
//
// Sink adapts any Store to gateway.UsageSink:
//
//	store, err := usage.NewSQLiteStore(usage.SQLiteConfig{Path: "data/usage.db"})
//	client, err := gateway.New(cfg, gateway.WithUsageSink(usage.Sink{Store: store}))
//
// PruneScheduler removes records past the retention period on a cron schedule.
package usage
