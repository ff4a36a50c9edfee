package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"motonomad-hq/gateway/pkg/catalog"
	"motonomad-hq/gateway/pkg/gateway"
)

var modelsFlags struct {
	search string
	watch  bool
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models offered by the gateway",
	Long: `List the models offered by the gateway, optionally filtered by a
case-insensitive search on ID or name.

With --watch the list is kept in memory and refreshed on the configured
catalog.refresh_schedule until interrupted, which is useful together with
--metrics-addr.

Examples:
  motonomad models
  motonomad models --search gemma --output json
  motonomad models --watch --metrics-addr 127.0.0.1:9464`,
	Args: cobra.NoArgs,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().StringVarP(&modelsFlags.search, "search", "s", "", "filter by ID or name")
	modelsCmd.Flags().BoolVar(&modelsFlags.watch, "watch", false, "keep refreshing the catalog until interrupted")
}

// modelTable renders a model list as rows.
type modelTable []gateway.ModelInfo

func (t modelTable) Header() []string {
	return []string{"ID", "NAME", "CONTEXT", "PROMPT", "COMPLETION"}
}

func (t modelTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, m := range t {
		contextLength := "-"
		if m.ContextLength != nil {
			contextLength = strconv.Itoa(*m.ContextLength)
		}
		prompt, completion := "-", "-"
		if m.Pricing != nil {
			prompt, completion = m.Pricing.Prompt, m.Pricing.Completion
		}
		rows = append(rows, []string{m.ID, m.Name, contextLength, prompt, completion})
	}
	return rows
}

func runModels(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	cat := catalog.New(a.client, a.cfg.Catalog.MaxAge,
		catalog.WithLogger(a.logger),
		catalog.WithUpdateHook(a.metrics.SetCatalogSize),
	)

	models, err := cat.Search(ctx, modelsFlags.search)
	if err != nil {
		return wrapCommandError("models", err)
	}
	if err := output(cmd, modelTable(models)); err != nil {
		return err
	}

	if !modelsFlags.watch {
		return nil
	}

	a.serveMetrics(ctx)
	refresher := catalog.NewRefresher(cat, a.cfg.Catalog.RefreshSchedule, a.logger)
	if err := refresher.Start(ctx); err != nil {
		return wrapCommandError("models", err)
	}
	defer refresher.Stop()

	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %d models; next refresh at %s. Press Ctrl+C to stop.\n",
		cat.Size(), nextRunLabel(refresher.NextRun()))
	<-ctx.Done()
	return nil
}
