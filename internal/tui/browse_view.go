package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/revdeskhq/revdesk/internal/browse"
	"github.com/revdeskhq/revdesk/internal/config"
	"github.com/revdeskhq/revdesk/internal/reverb"
	"github.com/revdeskhq/revdesk/internal/tui/styles"
)

// browseView is the shared read-only table screen behind the listings,
// orders, offers and notifications views. Each instance differs only in
// its fetch function.
type browseView struct {
	id    ViewID
	title string
	fetch func(ctx context.Context) ([]string, [][]string, error)

	headers []string
	rows    [][]string
	errMsg  string
	loaded  bool
	scroll  int
}

type browseDataMsg struct {
	id      ViewID
	headers []string
	rows    [][]string
	err     error
}

func newListingsView(client *reverb.Client, cfg *config.Config) *browseView {
	return &browseView{
		id:    ViewListings,
		title: "Listings",
		fetch: func(ctx context.Context) ([]string, [][]string, error) {
			raw, err := client.ListListings(ctx, reverb.PageQuery{PerPage: cfg.API.PageSize})
			if err != nil {
				return nil, nil, err
			}
			rows := make([][]string, 0, len(raw))
			for _, l := range browse.Listings(raw) {
				rows = append(rows, []string{l.ID, l.State, l.Price, l.Title})
			}
			return []string{"ID", "STATE", "PRICE", "TITLE"}, rows, nil
		},
	}
}

func newOrdersView(client *reverb.Client, cfg *config.Config) *browseView {
	return &browseView{
		id:    ViewOrders,
		title: "Orders",
		fetch: func(ctx context.Context) ([]string, [][]string, error) {
			raw, err := client.ListOrders(ctx, reverb.PageQuery{PerPage: cfg.API.PageSize})
			if err != nil {
				return nil, nil, err
			}
			rows := make([][]string, 0, len(raw))
			for _, o := range browse.Orders(raw) {
				rows = append(rows, []string{o.ID, o.Status, o.Buyer, o.Total, o.Title})
			}
			return []string{"ID", "STATUS", "BUYER", "TOTAL", "TITLE"}, rows, nil
		},
	}
}

func newOffersView(client *reverb.Client, cfg *config.Config) *browseView {
	return &browseView{
		id:    ViewOffers,
		title: "Offers",
		fetch: func(ctx context.Context) ([]string, [][]string, error) {
			raw, err := client.ListOffers(ctx, reverb.PageQuery{PerPage: cfg.API.PageSize})
			if err != nil {
				return nil, nil, err
			}
			rows := make([][]string, 0, len(raw))
			for _, o := range browse.Offers(raw) {
				rows = append(rows, []string{o.ID, o.Status, o.Amount, o.Title})
			}
			return []string{"ID", "STATUS", "AMOUNT", "TITLE"}, rows, nil
		},
	}
}

func newNotificationsView(client *reverb.Client, cfg *config.Config) *browseView {
	return &browseView{
		id:    ViewNotifications,
		title: "Notifications",
		fetch: func(ctx context.Context) ([]string, [][]string, error) {
			raw, err := client.ListNotifications(ctx, reverb.PageQuery{PerPage: cfg.API.PageSize})
			if err != nil {
				return nil, nil, err
			}
			rows := make([][]string, 0, len(raw))
			for _, n := range browse.Notifications(raw) {
				read := " "
				if !n.Read {
					read = "●"
				}
				rows = append(rows, []string{read, n.CreatedAt, n.Text})
			}
			return []string{" ", "WHEN", "TEXT"}, rows, nil
		},
	}
}

func (v *browseView) Init() tea.Cmd {
	return v.fetchCmd()
}

func (v *browseView) fetchCmd() tea.Cmd {
	fetch := v.fetch
	id := v.id
	return func() tea.Msg {
		headers, rows, err := fetch(context.Background())
		return browseDataMsg{id: id, headers: headers, rows: rows, err: err}
	}
}

func (v *browseView) Update(msg tea.Msg) tea.Cmd {
	switch typed := msg.(type) {
	case browseDataMsg:
		if typed.id != v.id {
			return nil
		}
		v.loaded = true
		if typed.err != nil {
			v.errMsg = typed.err.Error()
			return nil
		}
		v.errMsg = ""
		v.headers = typed.headers
		v.rows = typed.rows
		if v.scroll > len(v.rows) {
			v.scroll = 0
		}
		return nil
	case tea.KeyMsg:
		switch typed.String() {
		case "up", "k":
			if v.scroll > 0 {
				v.scroll--
			}
		case "down", "j":
			if v.scroll < len(v.rows)-1 {
				v.scroll++
			}
		case "r":
			return v.fetchCmd()
		}
	}
	return nil
}

func (v *browseView) View(width, height int, theme styles.Theme) string {
	title := theme.Accent().Bold(true).Render(v.title)

	switch {
	case v.errMsg != "":
		return lipgloss.JoinVertical(lipgloss.Left, title, "", theme.ErrorText().Render(v.errMsg))
	case !v.loaded:
		return lipgloss.JoinVertical(lipgloss.Left, title, "", theme.Muted().Render("loading..."))
	case len(v.rows) == 0:
		return lipgloss.JoinVertical(lipgloss.Left, title, "", theme.Muted().Render("nothing here"))
	}

	table := renderColumns(v.headers, v.rows, v.scroll, maxInt(1, height-2), width, theme)
	return lipgloss.JoinVertical(lipgloss.Left, title, "", table)
}

// renderColumns pads cells to per-column display widths, header first.
func renderColumns(headers []string, rows [][]string, scroll, height, width int, theme styles.Theme) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	renderRow := func(row []string) string {
		parts := make([]string, 0, len(row))
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			parts = append(parts, cell+strings.Repeat(" ", maxInt(0, widths[i]-lipgloss.Width(cell))))
		}
		return truncateVis(strings.Join(parts, "  "), width)
	}

	lines := []string{theme.Muted().Render(renderRow(headers))}
	end := scroll + height
	if end > len(rows) {
		end = len(rows)
	}
	for _, row := range rows[scroll:end] {
		lines = append(lines, renderRow(row))
	}
	return strings.Join(lines, "\n")
}
