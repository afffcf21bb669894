package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/revdeskhq/revdesk/internal/inbox"
	"github.com/revdeskhq/revdesk/internal/reverb"
)

func newInboxCmd(app *appState) *cobra.Command {
	var unreadOnly bool
	var page int
	var perPage int

	cmd := &cobra.Command{
		Use:   "inbox [conversation-id]",
		Short: "List conversations or show one thread",
		Long:  "With no argument, lists conversations. With a conversation id, prints the full thread.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.apiClient()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if len(args) == 1 {
				return printThread(ctx, client, app, args[0])
			}
			return printConversations(ctx, client, app, unreadOnly, page, perPage)
		},
	}
	cmd.Flags().BoolVar(&unreadOnly, "unread", false, "Only unread conversations")
	cmd.Flags().IntVar(&page, "page", 0, "Page number")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "Results per page")

	return cmd
}

func printConversations(ctx context.Context, client *reverb.Client, app *appState, unreadOnly bool, page, perPage int) error {
	cfg, err := app.config()
	if err != nil {
		return err
	}
	if perPage == 0 {
		perPage = cfg.API.PageSize
	}

	raw, err := client.ListConversations(ctx, reverb.ConversationQuery{
		PageQuery:  reverb.PageQuery{Page: page, PerPage: perPage},
		UnreadOnly: unreadOnly,
	})
	if err != nil {
		return err
	}

	norm := inbox.Normalizer{PreviewLength: cfg.Inbox.PreviewLength}
	conversations := norm.Conversations(raw)
	if len(conversations) == 0 {
		fmt.Fprintln(os.Stdout, "No conversations.")
		return nil
	}

	rows := make([][]string, 0, len(conversations))
	for _, c := range conversations {
		rows = append(rows, []string{
			c.ID,
			formatYesNo(c.Unread),
			c.Counterparty,
			c.ListingTitle,
			c.Preview,
		})
	}
	return writeTable(os.Stdout, []string{"ID", "UNREAD", "FROM", "LISTING", "PREVIEW"}, rows)
}

func printThread(ctx context.Context, client *reverb.Client, app *appState, id string) error {
	cfg, err := app.config()
	if err != nil {
		return err
	}

	raw, err := client.GetConversation(ctx, id)
	if err != nil {
		return err
	}

	norm := inbox.Normalizer{PreviewLength: cfg.Inbox.PreviewLength}
	messages := norm.Thread(raw)
	if len(messages) == 0 {
		fmt.Fprintln(os.Stdout, "No messages in this conversation.")
		return nil
	}

	for _, msg := range messages {
		if msg.CreatedAt != "" {
			fmt.Fprintf(os.Stdout, "[%s] %s:\n", msg.CreatedAt, msg.Sender)
		} else {
			fmt.Fprintf(os.Stdout, "%s:\n", msg.Sender)
		}
		fmt.Fprintln(os.Stdout, msg.Body)
		fmt.Fprintln(os.Stdout)
	}
	return nil
}
