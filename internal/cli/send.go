package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newSendCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <conversation-id> <message>",
		Short: "Send a reply to a conversation",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := strings.TrimSpace(strings.Join(args[1:], " "))
			if body == "" {
				return fmt.Errorf("message body is empty")
			}

			client, err := app.apiClient()
			if err != nil {
				return err
			}
			if err := client.SendReply(cmd.Context(), args[0], body); err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, "Reply sent.")
			return nil
		},
	}
	return cmd
}
