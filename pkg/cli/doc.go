/*
Package cli provides command-line helpers for the motonomad command.

Output Formatting:

Results are printed as text, JSON, CSV or an aligned table. CSV and table
output require the result to implement Tabular:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, summary); err != nil {
		return err
	}

Errors:

Describe turns gateway errors into advice for the user, and ExitCode maps
them to process exit codes:

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.Describe(err))
		os.Exit(cli.ExitCode(err))
	}

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
