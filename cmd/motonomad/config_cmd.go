package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"motonomad-hq/gateway/pkg/cli"
	"motonomad-hq/gateway/pkg/config"
	"motonomad-hq/gateway/pkg/telemetry/logging"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
	Long: `Validate or print the configuration after defaults and MOTONOMAD_*
environment overrides have been applied.

Examples:
  motonomad config validate
  motonomad config show --config /etc/motonomad/config.yaml`,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and report warnings",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML with secrets masked",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd, configShowCmd)
}

// loadConfigOnly loads the configuration without building any clients.
func loadConfigOnly() (*config.Config, error) {
	cfg, err := config.Load(cfgFile, cfgFile == defaultConfigFile)
	if err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			return nil, err
		}
		return nil, cli.NewConfigError("config", err.Error())
	}
	return cfg, nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigOnly()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	warnings := config.Warnings(cfg)
	for _, w := range warnings {
		fmt.Fprintf(out, "warning: %s\n", w.Error())
	}
	if len(warnings) > 0 {
		fmt.Fprintf(out, "Configuration is valid with %d warning(s).\n", len(warnings))
		return nil
	}
	fmt.Fprintln(out, "Configuration is valid.")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigOnly()
	if err != nil {
		return err
	}

	masked := *cfg
	masked.Gateway.APIKey = logging.RedactAPIKey(cfg.Gateway.APIKey)
	masked.Gateway.ProxyToken = logging.RedactAPIKey(cfg.Gateway.ProxyToken)

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(&masked); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return enc.Close()
}
