package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"motonomad-hq/gateway/pkg/gateway"
)

var streamFlags completionFlags

var streamCmd = &cobra.Command{
	Use:   "stream [prompt...]",
	Short: "Stream a chat completion as it is generated",
	Long: `Send one prompt and print the answer incrementally.

Streaming calls are not retried. If the connection fails partway the text
received so far stays on screen and the error is reported.

Examples:
  motonomad stream "Describe the road to Transfăgărășan"
  motonomad stream --model anthropic/claude-3-haiku --system "Answer briefly" "Best tyres for gravel?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStream,
}

func init() {
	rootCmd.AddCommand(streamCmd)
	addCompletionFlags(streamCmd, &streamFlags)
}

func runStream(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	prompt := strings.Join(args, " ")
	req := a.buildRequest(&streamFlags, []gateway.Message{gateway.UserMessage(prompt)})

	if _, err := streamTo(commandContext(cmd), cmd, a.client, req); err != nil {
		return wrapCommandError("stream", err)
	}
	return nil
}

// streamTo prints every chunk of the streamed answer to the command's output
// and returns the accumulated text.
func streamTo(ctx context.Context, cmd *cobra.Command, client *gateway.Client, req *gateway.CompletionRequest) (string, error) {
	out := cmd.OutOrStdout()

	stream, err := client.StreamCompletion(ctx, req)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for chunk, err := range stream.All() {
		if err != nil {
			fmt.Fprintln(out)
			return sb.String(), err
		}
		text := chunk.Content()
		sb.WriteString(text)
		fmt.Fprint(out, text)
	}
	fmt.Fprintln(out)
	return sb.String(), nil
}
