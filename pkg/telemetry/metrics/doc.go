// Package metrics provides Prometheus metrics for the gateway client.
//
// # Overview
//
// Collector implements gateway.Metrics, so a client constructed with
// gateway.WithMetrics(collector) reports every call, retry, stream chunk and
// pacing wait. Metrics live in a dedicated registry and are exposed with
// Handler or Serve.
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	client, err := gateway.New(cfg.Gateway.ClientConfig(),
//		gateway.WithMetrics(collector),
//	)
//
//	go collector.Serve(ctx, "127.0.0.1:9464", "/metrics", logger)
//
// # Labels
//
// Error and retry counters are labelled with gateway.Kind names such as
// "server", "transport" and "rate_limit". Model labels use the model id sent
// in the request.
package metrics
