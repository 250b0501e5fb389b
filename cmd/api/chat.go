package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"storefront/internal/logging"
	"storefront/internal/model"
	"storefront/pkg/chatpoll"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var chatFlags struct {
	baseURL string
	token   string
}

// chatCmd follows one conversation from the terminal the way the web client
// does: refetch every 5 seconds and print the thread when it grew.
var chatCmd = &cobra.Command{
	Use:   "chat <conversation-id>",
	Short: "Follow a support conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid conversation id: %w", err)
		}
		token := chatFlags.token
		if token == "" {
			token = os.Getenv("STOREFRONT_TOKEN")
		}
		if token == "" {
			return errors.New("a session token is required (--token or STOREFRONT_TOKEN)")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := logging.InitWithWriter("warn", os.Stderr)
		url := strings.TrimRight(chatFlags.baseURL, "/") + "/api/messages/" + id.String()
		fetch := chatpoll.HTTPFetch[model.Message](nil, url, token)

		poller := &chatpoll.Poller[model.Message]{
			Fetch:    fetch,
			OnChange: func(messages []model.Message) { printThread(cmd, messages) },
			Logger:   logger,
		}

		initial, err := fetch(ctx)
		if err != nil {
			return err
		}
		poller.Seed(initial)
		printThread(cmd, initial)

		if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		slog.Debug("chat follow stopped")
		return nil
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatFlags.baseURL, "url", "http://localhost:8080", "base URL of the API")
	chatCmd.Flags().StringVar(&chatFlags.token, "token", "", "session token (defaults to $STOREFRONT_TOKEN)")
}

func printThread(cmd *cobra.Command, messages []model.Message) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, strings.Repeat("-", 40))
	for _, m := range messages {
		who := "client"
		if m.IsFromAdmin {
			who = "echipa"
		}
		edited := ""
		if m.EditedAt != nil {
			edited = " (editat)"
		}
		fmt.Fprintf(out, "[%s] %s%s: %s\n", m.CreatedAt.Format("02.01 15:04"), who, edited, m.Content)
	}
}
