package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/revdeskhq/revdesk/internal/browse"
	"github.com/revdeskhq/revdesk/internal/reverb"
)

func newListingsCmd(app *appState) *cobra.Command {
	var page int
	var perPage int

	cmd := &cobra.Command{
		Use:   "listings [listing-id]",
		Short: "List your listings or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.apiClient()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return showListing(cmd, client, args[0])
			}

			cfg, err := app.config()
			if err != nil {
				return err
			}
			if perPage == 0 {
				perPage = cfg.API.PageSize
			}
			raw, err := client.ListListings(cmd.Context(), reverb.PageQuery{Page: page, PerPage: perPage})
			if err != nil {
				return err
			}
			items := browse.Listings(raw)
			if len(items) == 0 {
				fmt.Fprintln(os.Stdout, "No listings.")
				return nil
			}
			rows := make([][]string, 0, len(items))
			for _, l := range items {
				rows = append(rows, []string{l.ID, l.State, l.Price, l.Title})
			}
			return writeTable(os.Stdout, []string{"ID", "STATE", "PRICE", "TITLE"}, rows)
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "Page number")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "Results per page")

	cmd.AddCommand(
		newListingsCreateCmd(app),
		newListingsUpdateCmd(app),
		newListingsEndCmd(app),
	)
	return cmd
}

func showListing(cmd *cobra.Command, client *reverb.Client, id string) error {
	raw, err := client.GetListing(cmd.Context(), id)
	if err != nil {
		return err
	}
	items := browse.Listings([]reverb.Payload{raw})
	if len(items) == 0 {
		return fmt.Errorf("listing %s has no usable fields", id)
	}
	l := items[0]
	fmt.Fprintf(os.Stdout, "%s\nstate: %s\nprice: %s\n", l.Title, l.State, l.Price)
	if desc, ok := reverb.Str(raw, "description"); ok {
		fmt.Fprintf(os.Stdout, "\n%s\n", desc)
	}
	return nil
}

func newListingsCreateCmd(app *appState) *cobra.Command {
	var title, price, condition, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft listing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" {
				return fmt.Errorf("--title is required")
			}
			client, err := app.apiClient()
			if err != nil {
				return err
			}

			fields := reverb.Payload{"title": title}
			if price != "" {
				fields["price"] = reverb.Payload{"amount": price, "currency": "USD"}
			}
			if condition != "" {
				fields["condition"] = reverb.Payload{"slug": condition}
			}
			if description != "" {
				fields["description"] = description
			}

			created, err := client.CreateListing(cmd.Context(), fields)
			if err != nil {
				return err
			}
			if items := browse.Listings([]reverb.Payload{created}); len(items) == 1 {
				fmt.Fprintf(os.Stdout, "Created listing %s.\n", items[0].ID)
			} else {
				fmt.Fprintln(os.Stdout, "Created listing.")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Listing title")
	cmd.Flags().StringVar(&price, "price", "", "Asking price, e.g. 1200.00")
	cmd.Flags().StringVar(&condition, "condition", "", "Condition slug, e.g. excellent")
	cmd.Flags().StringVar(&description, "description", "", "Listing description")
	return cmd
}

func newListingsUpdateCmd(app *appState) *cobra.Command {
	var title, price, description string

	cmd := &cobra.Command{
		Use:   "update <listing-id>",
		Short: "Update a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := reverb.Payload{}
			if title != "" {
				fields["title"] = title
			}
			if price != "" {
				fields["price"] = reverb.Payload{"amount": price, "currency": "USD"}
			}
			if description != "" {
				fields["description"] = description
			}
			if len(fields) == 0 {
				return fmt.Errorf("nothing to update")
			}

			client, err := app.apiClient()
			if err != nil {
				return err
			}
			if err := client.UpdateListing(cmd.Context(), args[0], fields); err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, "Listing updated.")
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&price, "price", "", "New asking price")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	return cmd
}

func newListingsEndCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "end <listing-id>",
		Short: "End a live listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.apiClient()
			if err != nil {
				return err
			}
			if err := client.DeleteListing(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, "Listing ended.")
			return nil
		},
	}
	return cmd
}
