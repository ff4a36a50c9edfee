// Package catalog caches the list of models offered by the gateway.
//
// A Catalog serves GetAvailableModels results from memory until they are
// older than the configured max age. Long-running commands pair it with a
// Refresher, which re-fetches the list on a cron schedule:
//
//	cat := catalog.New(client, time.Hour, catalog.WithUpdateHook(collector.SetCatalogSize))
//	r := catalog.NewRefresher(cat, "@every 1h", logger)
//	if err := r.Start(ctx); err != nil {
//		return err
//	}
//	defer r.Stop()
package catalog
