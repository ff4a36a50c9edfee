package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"motonomad-hq/gateway/pkg/cli"
	"motonomad-hq/gateway/pkg/usage"
)

var usageFlags struct {
	listSince     time.Duration
	summarySince  time.Duration
	model         string
	outcome       string
	limit         int
	retentionDays int
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Inspect the local usage ledger",
	Long: `Inspect and maintain the ledger of completed gateway calls.

Every non-streaming completion is recorded with its model, token counts,
latency and outcome.

Examples:
  # Totals for the last 24 hours
  motonomad usage summary

  # Last 20 failed calls
  motonomad usage list --outcome error --limit 20

  # Apply the retention policy now
  motonomad usage prune`,
}

var usageListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded calls, newest first",
	Args:  cobra.NoArgs,
	RunE:  runUsageList,
}

var usageSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize calls and tokens per model",
	Args:  cobra.NoArgs,
	RunE:  runUsageSummary,
}

var usagePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete records older than the retention period",
	Args:  cobra.NoArgs,
	RunE:  runUsagePrune,
}

func init() {
	rootCmd.AddCommand(usageCmd)
	usageCmd.AddCommand(usageListCmd, usageSummaryCmd, usagePruneCmd)

	usageListCmd.Flags().DurationVar(&usageFlags.listSince, "since", 0, "only calls within this duration (e.g. 24h)")
	usageListCmd.Flags().StringVar(&usageFlags.model, "model", "", "only calls to this model")
	usageListCmd.Flags().StringVar(&usageFlags.outcome, "outcome", "", "only calls with this outcome: success, error")
	usageListCmd.Flags().IntVar(&usageFlags.limit, "limit", usage.DefaultQueryLimit, "maximum number of records")

	usageSummaryCmd.Flags().DurationVar(&usageFlags.summarySince, "since", 24*time.Hour, "summarize calls within this duration")

	usagePruneCmd.Flags().IntVar(&usageFlags.retentionDays, "retention-days", 0, "override usage.retention_days")
}

// recordTable renders ledger records as rows.
type recordTable []usage.Record

func (t recordTable) Header() []string {
	return []string{"TIME", "MODEL", "OUTCOME", "ERROR", "PROMPT", "COMPLETION", "TOTAL", "LATENCY", "REQUEST ID"}
}

func (t recordTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		rows = append(rows, []string{
			r.CreatedAt.Local().Format(time.DateTime),
			r.Model,
			r.Outcome,
			r.ErrorKind,
			strconv.Itoa(r.PromptTokens),
			strconv.Itoa(r.CompletionTokens),
			strconv.Itoa(r.TotalTokens),
			r.Latency.Round(time.Millisecond).String(),
			r.RequestID,
		})
	}
	return rows
}

// modelSummaryTable renders per-model totals as rows.
type modelSummaryTable []usage.ModelSummary

func (t modelSummaryTable) Header() []string {
	return []string{"MODEL", "CALLS", "ERRORS", "TOKENS"}
}

func (t modelSummaryTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, m := range t {
		rows = append(rows, []string{m.Model, strconv.Itoa(m.Calls), strconv.Itoa(m.Errors), strconv.Itoa(m.TotalTokens)})
	}
	return rows
}

// usageApp builds the app and checks that the ledger is enabled.
func usageApp(cmd *cobra.Command) (*app, error) {
	a, err := newApp(cmd)
	if err != nil {
		return nil, err
	}
	if a.store == nil {
		a.Close()
		return nil, cli.NewConfigError("usage.disabled", "the usage ledger is disabled")
	}
	return a, nil
}

func runUsageList(cmd *cobra.Command, args []string) error {
	a, err := usageApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	filter := usage.Filter{
		Model:   usageFlags.model,
		Outcome: usageFlags.outcome,
		Limit:   usageFlags.limit,
	}
	if usageFlags.listSince > 0 {
		filter.Since = time.Now().Add(-usageFlags.listSince)
	}

	records, err := a.store.Query(commandContext(cmd), filter)
	if err != nil {
		return wrapCommandError("usage list", err)
	}
	return output(cmd, recordTable(records))
}

func runUsageSummary(cmd *cobra.Command, args []string) error {
	a, err := usageApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.store.Summary(commandContext(cmd), time.Now().Add(-usageFlags.summarySince))
	if err != nil {
		return wrapCommandError("usage summary", err)
	}

	format, err := cli.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	switch format {
	case cli.FormatJSON:
		return output(cmd, summary)
	case cli.FormatCSV, cli.FormatTable:
		return output(cmd, modelSummaryTable(summary.Models))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Since:       %s\n", summary.Since.Local().Format(time.DateTime))
	fmt.Fprintf(out, "Calls:       %d (%d succeeded, %d failed)\n", summary.Calls, summary.Successes, summary.Errors)
	fmt.Fprintf(out, "Tokens:      %d (prompt %d, completion %d)\n", summary.TotalTokens, summary.PromptTokens, summary.CompletionTokens)
	fmt.Fprintf(out, "Avg latency: %s\n", summary.AvgLatency.Round(time.Millisecond))
	if len(summary.Models) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	return (&cli.TableFormatter{}).FormatTo(out, modelSummaryTable(summary.Models))
}

func runUsagePrune(cmd *cobra.Command, args []string) error {
	a, err := usageApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	retention := a.cfg.Usage.RetentionDays
	if usageFlags.retentionDays > 0 {
		retention = usageFlags.retentionDays
	}
	if retention <= 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Retention is disabled; nothing pruned.")
		return nil
	}

	pruner := usage.NewPruneScheduler(a.store, retention, a.cfg.Usage.PruneSchedule, a.logger)
	deleted, err := pruner.RunOnce(commandContext(cmd))
	if err != nil {
		return wrapCommandError("usage prune", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d records older than %d days.\n", deleted, retention)
	return nil
}
