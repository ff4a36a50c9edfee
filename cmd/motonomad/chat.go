package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"motonomad-hq/gateway/pkg/cli"
	"motonomad-hq/gateway/pkg/config"
	"motonomad-hq/gateway/pkg/gateway"
	"motonomad-hq/gateway/pkg/telemetry/logging"
	"motonomad-hq/gateway/pkg/usage"
)

var chatFlags struct {
	completionFlags
	noWatch bool
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Chat with a model. Each line you type is sent together with the
conversation so far and the answer is streamed back.

Commands inside the session:
  /model <id>   switch model
  /reset        forget the conversation
  /exit         leave (Ctrl+D works too)

While the session runs the config file is watched and the gateway client is
rebuilt when it changes, and the usage ledger is pruned on its schedule.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	addCompletionFlags(chatCmd, &chatFlags.completionFlags)
	chatCmd.Flags().BoolVar(&chatFlags.noWatch, "no-watch", false, "do not reload the config file when it changes")
}

// chatSession holds the conversation and the current client, which may be
// replaced by a configuration reload between turns.
type chatSession struct {
	app     *app
	flags   completionFlags
	history []gateway.Message

	// id tags the log records of every turn
	id string

	mu     sync.Mutex
	client *gateway.Client
}

func (s *chatSession) currentClient() *gateway.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

// reload swaps in a client built from cfg.
func (s *chatSession) reload(cfg *config.Config) error {
	client, err := s.app.buildClient(cfg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	old := s.client
	s.client = client
	s.mu.Unlock()

	s.app.logger.Info("gateway client rebuilt", "mode", cfg.Gateway.Mode)
	return old.Close()
}

// handleCommand runs a slash command. It reports false when the session
// should end.
func (s *chatSession) handleCommand(out io.Writer, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/exit", "/quit":
		return false
	case "/reset":
		s.history = nil
		fmt.Fprintln(out, "Conversation cleared.")
	case "/model":
		if len(fields) < 2 {
			fmt.Fprintf(out, "Current model: %s\n", s.app.modelOrDefault(s.flags.model))
			break
		}
		s.flags.model = fields[1]
		fmt.Fprintf(out, "Switched to %s.\n", fields[1])
	default:
		fmt.Fprintf(out, "Unknown command %s\n", fields[0])
	}
	return true
}

// turn sends line with the conversation so far. On failure the user message
// is dropped so the next turn starts from the last good state.
func (s *chatSession) turn(ctx context.Context, cmd *cobra.Command, line string) error {
	s.history = append(s.history, gateway.UserMessage(line))
	req := s.app.buildRequest(&s.flags, s.history)

	answer, err := streamTo(ctx, cmd, s.currentClient(), req)
	if err != nil {
		s.history = s.history[:len(s.history)-1]
		return err
	}
	s.history = append(s.history, gateway.AssistantMessage(answer))
	return nil
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	a.serveMetrics(ctx)

	session := &chatSession{
		app:    a,
		flags:  chatFlags.completionFlags,
		client: a.client,
		id:     uuid.NewString(),
	}
	defer func() { session.currentClient().Close() }()

	if a.store != nil {
		pruner := usage.NewPruneScheduler(a.store, a.cfg.Usage.RetentionDays, a.cfg.Usage.PruneSchedule, a.logger)
		if err := pruner.Start(ctx); err != nil {
			a.logger.Warn("usage pruning disabled", "error", err)
		} else {
			defer pruner.Stop()
		}
	}

	if !chatFlags.noWatch {
		stopWatch := watchConfig(ctx, a, session.reload)
		defer stopWatch()
	}

	a.logger.Info("chat session started", "session", session.id)
	return chatLoop(logging.WithSession(ctx, session.id), cmd, session)
}

// watchConfig reloads the client when the config file changes. It returns a
// function that stops the watcher.
func watchConfig(ctx context.Context, a *app, onReload func(*config.Config) error) func() {
	if _, err := os.Stat(cfgFile); err != nil {
		return func() {}
	}

	watcher, err := config.NewWatcher(cfgFile, 0, a.logger)
	if err != nil {
		a.logger.Warn("config watching disabled", "error", err)
		return func() {}
	}

	go func() {
		if err := watcher.Watch(ctx, onReload); err != nil {
			a.logger.Warn("config watcher stopped", "error", err)
		}
	}()
	return func() { watcher.Stop() }
}

func chatLoop(ctx context.Context, cmd *cobra.Command, session *chatSession) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintf(out, "Chatting with %s. Type /exit to leave.\n", session.app.modelOrDefault(session.flags.model))
	for {
		fmt.Fprint(out, "> ")

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return nil
			}
			line = strings.TrimSpace(l)
		}

		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if !session.handleCommand(out, line) {
				return nil
			}
			continue
		}

		if err := session.turn(ctx, cmd, line); err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			fmt.Fprintln(errOut, "Error:", cli.Describe(err))
		}
	}
}
