package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"motonomad-hq/gateway/pkg/cli"
)

const (
	defaultConfigFile = "config.yaml"
	defaultEnvFile    = ".env"
)

var (
	// Global flags
	cfgFile      string
	envFile      string
	verbose      bool
	outputFormat string
	metricsAddr  string
)

var rootCmd = &cobra.Command{
	Use:   "motonomad",
	Short: "MotoNomad - LLM gateway client for trip planning",
	Long: `MotoNomad talks to large language models through the OpenRouter gateway,
either directly with an API key or through a trusted proxy.

It provides:
  - Chat completions, streamed or whole, with optional JSON schema output
  - Model listing and API key validation
  - Trip suggestions for planned journeys
  - A local usage ledger with retention pruning

Configuration is loaded from config.yaml (optional) and MOTONOMAD_*
environment variables. A .env file in the working directory is read first.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadEnvFile(envFile)
	},
}

// Execute runs the root command and exits with a code that reflects the
// failure kind.
func Execute() {
	ctx, stop := cli.SetupSignalHandler(context.Background())
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", cli.Describe(err))
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigFile, "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", defaultEnvFile, "dotenv file with MOTONOMAD_* variables")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format: text, json, csv, table")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while the command runs")
}

// loadEnvFile reads path into the process environment without overriding
// variables that are already set. A missing default file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && path == defaultEnvFile {
			return nil
		}
		return cli.NewConfigError("env-file", err.Error())
	}
	return nil
}

// commandContext returns the command's context, or a background context for
// commands invoked outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}
