package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"motonomad-hq/gateway/pkg/cli"
	"motonomad-hq/gateway/pkg/config"
	"motonomad-hq/gateway/pkg/gateway"
	"motonomad-hq/gateway/pkg/telemetry/health"
	"motonomad-hq/gateway/pkg/telemetry/logging"
	"motonomad-hq/gateway/pkg/telemetry/metrics"
	"motonomad-hq/gateway/pkg/usage"
)

// unhealthyAfterErrors is the run of failed gateway calls after which
// /readyz reports the gateway check as unhealthy.
const unhealthyAfterErrors = 5

// app holds the components shared by the commands.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Collector
	store   usage.Store
	client  *gateway.Client
}

// newApp loads the configuration named by the global flags and builds the
// logger, metrics collector, usage ledger and gateway client from it.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfigOnly()
	if err != nil {
		return nil, err
	}
	return newAppFromConfig(cfg, cmd.ErrOrStderr())
}

func newAppFromConfig(cfg *config.Config, logOut io.Writer) (*app, error) {
	logCfg := cfg.Telemetry.Logging.LoggerConfig()
	logCfg.Writer = logOut
	if verbose {
		logCfg.Level = "debug"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}

	for _, w := range config.Warnings(cfg) {
		logger.Warn("configuration warning", "field", w.Field, "message", w.Message)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.NewCollector(&cfg.Telemetry.Metrics, nil),
	}

	if !cfg.Usage.Disabled {
		store, err := usage.Open(cfg.Usage.Backend, cfg.Usage.SQLitePath, cfg.Usage.BusyTimeout)
		if err != nil {
			return nil, cli.NewConfigError("usage", err.Error())
		}
		a.store = store
	}

	client, err := a.buildClient(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.client = client

	return a, nil
}

// buildClient creates a gateway client for cfg that reports to the app's
// metrics collector and usage ledger.
func (a *app) buildClient(cfg *config.Config) (*gateway.Client, error) {
	opts := []gateway.Option{
		gateway.WithLogger(a.logger),
		gateway.WithMetrics(a.metrics),
	}
	if a.store != nil {
		opts = append(opts, gateway.WithUsageSink(usage.Sink{Store: a.store}))
	}

	client, err := gateway.New(cfg.Gateway.ClientConfig(), opts...)
	if err != nil {
		return nil, cli.NewConfigError("gateway", err.Error())
	}
	return client, nil
}

// serveMetrics exposes the collector in the background until ctx ends when
// --metrics-addr is given or metrics are enabled in the configuration.
func (a *app) serveMetrics(ctx context.Context) {
	addr := metricsAddr
	if addr == "" && a.cfg.Telemetry.Metrics.Enabled {
		addr = a.cfg.Telemetry.Metrics.ListenAddress
	}
	if addr == "" {
		return
	}

	checker := a.healthChecker()
	info := health.BuildInfo{Version: Version, Commit: GitCommit, BuildDate: BuildDate}

	go func() {
		mount := func(mux *http.ServeMux) { checker.Mount(mux, info) }
		if err := a.metrics.Serve(ctx, addr, a.cfg.Telemetry.Metrics.Path, a.logger, mount); err != nil {
			a.logger.Error("metrics endpoint failed", "address", addr, "error", err)
		}
	}()
}

// healthChecker reports the gateway as unready after a run of failed calls
// and checks that the usage ledger answers queries.
func (a *app) healthChecker() *health.Checker {
	checker := health.New(2 * time.Second)
	checker.Register("gateway", health.ConsecutiveErrors(a.client, unhealthyAfterErrors))
	if a.store != nil {
		checker.Register("usage", func(ctx context.Context) error {
			_, err := a.store.Query(ctx, usage.Filter{Limit: 1})
			return err
		})
	}
	return checker
}

// Close releases the client and the usage ledger.
func (a *app) Close() error {
	var errs []error
	if a.client != nil {
		errs = append(errs, a.client.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}

// output renders data to the command's stdout in the --output format.
func output(cmd *cobra.Command, data any) error {
	format, err := cli.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), data)
}

// modelOrDefault returns model, or the configured default when it is empty.
func (a *app) modelOrDefault(model string) string {
	if model != "" {
		return model
	}
	return a.cfg.Gateway.DefaultModel
}

func wrapCommandError(command string, err error) error {
	if err == nil {
		return nil
	}
	return cli.NewCommandError(command, err)
}

func nextRunLabel(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Format(time.RFC3339)
}
