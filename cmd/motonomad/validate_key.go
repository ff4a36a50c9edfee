package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"motonomad-hq/gateway/pkg/gateway"
	"motonomad-hq/gateway/pkg/telemetry/logging"
)

var validateKeyCmd = &cobra.Command{
	Use:   "validate-key [api-key]",
	Short: "Check that an API key is accepted by the provider",
	Long: `Send a one-token probe completion with the given key, or the configured
gateway.api_key when none is given, and report whether it was accepted.

The probe bypasses request pacing and retries. The command exits with code 4
when the key is rejected.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidateKey,
}

func init() {
	rootCmd.AddCommand(validateKeyCmd)
}

func runValidateKey(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	key := a.cfg.Gateway.APIKey
	if len(args) == 1 {
		key = args[0]
	}

	if !a.client.ValidateAPIKey(commandContext(cmd), key) {
		return wrapCommandError("validate-key", &gateway.AuthError{
			Message: fmt.Sprintf("api key %s was rejected", logging.RedactAPIKey(key)),
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "API key %s is valid.\n", logging.RedactAPIKey(key))
	return nil
}
