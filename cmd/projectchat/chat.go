package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	projecthttp "github.com/fyrsmithlabs/projectchat/internal/http"
	"github.com/fyrsmithlabs/projectchat/internal/memory"
	"github.com/fyrsmithlabs/projectchat/internal/services"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with a project from the command line",
	}
	cmd.AddCommand(
		newChatSendCmd(opts),
		newChatHistoryCmd(opts),
		newChatFlushCmd(opts),
	)
	return cmd
}

func newChatSendCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "send <project-id> <message...>",
		Short: "Send a message and print the reply",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withServices(cmd, func(ctx context.Context, reg services.Registry) error {
				msgs, err := reg.Chat().HandleTurn(ctx, args[0], strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				if n := len(msgs); n > 0 && msgs[n-1].Sender == memory.SenderAI {
					fmt.Fprintln(cmd.OutOrStdout(), msgs[n-1].Content)
				}
				return nil
			})
		},
	}
}

func newChatHistoryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history <project-id>",
		Short: "Print the session history of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withServices(cmd, func(ctx context.Context, reg services.Registry) error {
				msgs, err := reg.Chat().History(ctx, args[0])
				if err != nil {
					return err
				}
				printHistory(cmd.OutOrStdout(), msgs)
				return nil
			})
		},
	}
}

func newChatFlushCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "flush <project-id>",
		Short: "Save the session transcript and clear the session on a running server",
		Long: `Save a project's session transcript and clear its session.

Sessions live in the memory of the running server, so flush is sent to the
server named by --server rather than applied to the local database.

Examples:
  # Flush project 1 on the local server
  projectchat chat flush 1

  # Flush on a different server
  projectchat chat flush 1 --server http://localhost:8080`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlush(cmd, opts.serverURL, args[0])
		},
	}
}

func runFlush(cmd *cobra.Command, serverURL, projectID string) error {
	endpoint := strings.TrimRight(serverURL, "/") + "/api/v1/projects/" + url.PathEscape(projectID) + "/flush"

	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp projecthttp.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Error == "" {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, errResp.Error)
	}

	var flushResp projecthttp.FlushResponse
	if err := json.NewDecoder(resp.Body).Decode(&flushResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Flushed %d message(s)\n", flushResp.Flushed)
	return nil
}

func printHistory(w io.Writer, msgs []memory.Message) {
	if len(msgs) == 0 {
		fmt.Fprintln(w, "No messages.")
		return
	}
	for _, m := range msgs {
		fmt.Fprintf(w, "%s: %s\n", m.Sender.Label(), m.Content)
	}
}
