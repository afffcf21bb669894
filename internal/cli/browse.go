package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/revdeskhq/revdesk/internal/browse"
	"github.com/revdeskhq/revdesk/internal/reverb"
)

func newOrdersCmd(app *appState) *cobra.Command {
	return newBrowseCmd(app, "orders", "List your sales", func(ctx context.Context, client *reverb.Client, q reverb.PageQuery) error {
		raw, err := client.ListOrders(ctx, q)
		if err != nil {
			return err
		}
		items := browse.Orders(raw)
		if len(items) == 0 {
			fmt.Fprintln(os.Stdout, "No orders.")
			return nil
		}
		rows := make([][]string, 0, len(items))
		for _, o := range items {
			rows = append(rows, []string{o.ID, o.Status, o.Buyer, o.Total, o.Title})
		}
		return writeTable(os.Stdout, []string{"ID", "STATUS", "BUYER", "TOTAL", "TITLE"}, rows)
	})
}

func newOffersCmd(app *appState) *cobra.Command {
	return newBrowseCmd(app, "offers", "List offers on your listings", func(ctx context.Context, client *reverb.Client, q reverb.PageQuery) error {
		raw, err := client.ListOffers(ctx, q)
		if err != nil {
			return err
		}
		items := browse.Offers(raw)
		if len(items) == 0 {
			fmt.Fprintln(os.Stdout, "No offers.")
			return nil
		}
		rows := make([][]string, 0, len(items))
		for _, o := range items {
			rows = append(rows, []string{o.ID, o.Status, o.Amount, o.Title})
		}
		return writeTable(os.Stdout, []string{"ID", "STATUS", "AMOUNT", "TITLE"}, rows)
	})
}

func newNotificationsCmd(app *appState) *cobra.Command {
	return newBrowseCmd(app, "notifications", "List account notifications", func(ctx context.Context, client *reverb.Client, q reverb.PageQuery) error {
		raw, err := client.ListNotifications(ctx, q)
		if err != nil {
			return err
		}
		items := browse.Notifications(raw)
		if len(items) == 0 {
			fmt.Fprintln(os.Stdout, "No notifications.")
			return nil
		}
		rows := make([][]string, 0, len(items))
		for _, n := range items {
			rows = append(rows, []string{formatYesNo(n.Read), n.CreatedAt, n.Text})
		}
		return writeTable(os.Stdout, []string{"READ", "WHEN", "TEXT"}, rows)
	})
}

// newBrowseCmd builds the shared list-command shell: paging flags, client
// bootstrap, one fetch, one table.
func newBrowseCmd(app *appState, use, short string, run func(context.Context, *reverb.Client, reverb.PageQuery) error) *cobra.Command {
	var page int
	var perPage int

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.apiClient()
			if err != nil {
				return err
			}
			cfg, err := app.config()
			if err != nil {
				return err
			}
			if perPage == 0 {
				perPage = cfg.API.PageSize
			}
			return run(cmd.Context(), client, reverb.PageQuery{Page: page, PerPage: perPage})
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "Page number")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "Results per page")
	return cmd
}
