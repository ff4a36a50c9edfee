package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"motonomad-hq/gateway/pkg/cli"
	"motonomad-hq/gateway/pkg/gateway"
)

// completionFlags are shared by complete, stream and chat.
type completionFlags struct {
	model       string
	system      string
	temperature float64
	maxTokens   int
	schemaFile  string
	schemaName  string
}

var completeFlags completionFlags

var completeCmd = &cobra.Command{
	Use:   "complete [prompt...]",
	Short: "Send a single chat completion",
	Long: `Send one prompt to the gateway and print the answer.

With --schema the model is asked to answer with JSON matching the schema in
the given file, and the decoded object is printed.

Examples:
  # Ask the default model
  motonomad complete "What is the best season for the Pamir Highway?"

  # Pick a model and limit the answer
  motonomad complete --model openai/gpt-4o-mini --max-tokens 200 "Summarize the Carpathian loop"

  # Structured output
  motonomad complete --schema route.json --schema-name route "Suggest a 3 day route in Slovenia"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runComplete,
}

func init() {
	rootCmd.AddCommand(completeCmd)
	addCompletionFlags(completeCmd, &completeFlags)
	completeCmd.Flags().StringVar(&completeFlags.schemaFile, "schema", "", "JSON schema file for structured output")
	completeCmd.Flags().StringVar(&completeFlags.schemaName, "schema-name", "response", "name sent with the JSON schema")
}

func addCompletionFlags(cmd *cobra.Command, flags *completionFlags) {
	cmd.Flags().StringVarP(&flags.model, "model", "m", "", "model identifier (default from gateway.default_model)")
	cmd.Flags().StringVar(&flags.system, "system", "", "system message sent before the prompt")
	cmd.Flags().Float64Var(&flags.temperature, "temperature", -1, "sampling temperature 0-2 (unset by default)")
	cmd.Flags().IntVar(&flags.maxTokens, "max-tokens", 0, "maximum tokens to generate (unset by default)")
}

// buildRequest assembles a completion request from flags and the conversation.
func (a *app) buildRequest(flags *completionFlags, history []gateway.Message) *gateway.CompletionRequest {
	messages := make([]gateway.Message, 0, len(history)+1)
	if flags.system != "" {
		messages = append(messages, gateway.SystemMessage(flags.system))
	}
	messages = append(messages, history...)

	req := &gateway.CompletionRequest{
		Model:    a.modelOrDefault(flags.model),
		Messages: messages,
	}
	if flags.temperature >= 0 {
		req.Temperature = gateway.Ptr(flags.temperature)
	}
	if flags.maxTokens > 0 {
		req.MaxTokens = gateway.Ptr(flags.maxTokens)
	}
	return req
}

func runComplete(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	prompt := strings.Join(args, " ")
	req := a.buildRequest(&completeFlags, []gateway.Message{gateway.UserMessage(prompt)})

	if completeFlags.schemaFile != "" {
		schema, err := loadSchema(completeFlags.schemaFile)
		if err != nil {
			return err
		}
		req.ResponseFormat = gateway.NewJSONSchemaFormat(completeFlags.schemaName, schema)

		result, err := gateway.SendStructured[map[string]any](ctx, a.client, req)
		if err != nil {
			return wrapCommandError("complete", err)
		}
		return (&cli.JSONFormatter{Indent: true}).FormatTo(cmd.OutOrStdout(), result)
	}

	resp, err := a.client.SendCompletion(ctx, req)
	if err != nil {
		return wrapCommandError("complete", err)
	}

	if format, _ := cli.ParseFormat(outputFormat); format == cli.FormatJSON {
		return output(cmd, resp)
	}
	fmt.Fprintln(cmd.OutOrStdout(), resp.Content())
	return nil
}

// loadSchema reads a JSON schema object from path.
func loadSchema(path string) (*gateway.SchemaObject, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cli.NewConfigError("schema", err.Error())
	}
	var schema gateway.SchemaObject
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, cli.NewConfigError("schema", fmt.Sprintf("invalid JSON schema in %s: %v", path, err))
	}
	return &schema, nil
}
