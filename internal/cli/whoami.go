package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/revdeskhq/revdesk/internal/config"
	"github.com/revdeskhq/revdesk/internal/reverb"
)

func newWhoamiCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Verify the API token and show the account it belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.apiClient()
			if err != nil {
				return err
			}

			account, err := client.VerifyToken(cmd.Context())
			if err != nil {
				if reverb.IsUnauthorized(err) {
					return fmt.Errorf("token rejected: check %s", config.TokenEnvVar)
				}
				return err
			}

			name, _ := reverb.Str(account, "name")
			if name == "" {
				name, _ = reverb.DigStr(account, "shop", "name")
			}
			email, _ := reverb.Str(account, "email")

			fmt.Fprintf(os.Stdout, "Authenticated as %s", displayName(name))
			if email != "" {
				fmt.Fprintf(os.Stdout, " <%s>", email)
			}
			fmt.Fprintln(os.Stdout)
			return nil
		},
	}
	return cmd
}

func displayName(name string) string {
	if name == "" {
		return "(unnamed account)"
	}
	return name
}
