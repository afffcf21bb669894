package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/revdeskhq/revdesk/internal/config"
	"github.com/revdeskhq/revdesk/internal/inbox"
	"github.com/revdeskhq/revdesk/internal/tui/styles"
)

type inboxFocus int

const (
	focusList inboxFocus = iota
	focusSearch
	focusCompose
)

// inboxView renders the conversation list, the selected thread and the
// compose line, all fed by refresh-engine snapshots.
type inboxView struct {
	rt  *runtime
	cfg *config.Config

	snapshot inbox.Snapshot
	focus    inboxFocus

	compose textinput.Model
	search  textinput.Model
	spin    spinner.Model

	threadScroll int // lines from bottom
	status       string
}

type pollMsg struct{}

type snapshotMsg struct {
	snap inbox.Snapshot
}

type sendResultMsg struct {
	err  error
	snap inbox.Snapshot
}

func newInboxView(rt *runtime, cfg *config.Config) *inboxView {
	compose := textinput.New()
	compose.Placeholder = "Reply..."
	compose.CharLimit = 0
	compose.Prompt = "reply ❯ "

	search := textinput.New()
	search.Placeholder = "counterparty, listing or text"
	search.Prompt = "search ❯ "

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &inboxView{rt: rt, cfg: cfg, compose: compose, search: search, spin: sp}
}

func (v *inboxView) capturingInput() bool {
	return v.focus != focusList
}

func (v *inboxView) Init() tea.Cmd {
	return tea.Batch(v.refreshCmd(), v.tickCmd())
}

func (v *inboxView) tickCmd() tea.Cmd {
	return tea.Tick(v.cfg.Inbox.PollInterval, func(time.Time) tea.Msg { return pollMsg{} })
}

func (v *inboxView) refreshCmd() tea.Cmd {
	rt := v.rt
	return func() tea.Msg {
		return snapshotMsg{snap: rt.reconciler.Tick(context.Background())}
	}
}

func (v *inboxView) openCmd(id string) tea.Cmd {
	rt := v.rt
	return func() tea.Msg {
		return snapshotMsg{snap: rt.reconciler.Open(context.Background(), id)}
	}
}

func (v *inboxView) submitCmd() tea.Cmd {
	rt := v.rt
	return func() tea.Msg {
		err := rt.submitter.Submit(context.Background())
		return sendResultMsg{err: err, snap: rt.session.Snapshot()}
	}
}

func (v *inboxView) Update(msg tea.Msg) tea.Cmd {
	switch typed := msg.(type) {
	case pollMsg:
		return tea.Batch(v.refreshCmd(), v.tickCmd())
	case snapshotMsg:
		v.applySnapshot(typed.snap)
		return nil
	case sendResultMsg:
		v.applySnapshot(typed.snap)
		if typed.err != nil {
			v.status = sendFailureStatus(typed.err)
			return nil
		}
		v.compose.SetValue("")
		v.status = "reply sent"
		return nil
	case newMessageMsg:
		v.status = fmt.Sprintf("new message from %s", typed.Counterparty)
		return nil
	case spinner.TickMsg:
		if !v.snapshot.Sending {
			return nil
		}
		var cmd tea.Cmd
		v.spin, cmd = v.spin.Update(typed)
		return cmd
	case tea.KeyMsg:
		return v.handleKey(typed)
	}
	return nil
}

func (v *inboxView) applySnapshot(snap inbox.Snapshot) {
	v.snapshot = snap
	// The session owns the draft; the input mirrors it except while the
	// user is typing into it.
	if v.focus != focusCompose && v.compose.Value() != snap.Draft {
		v.compose.SetValue(snap.Draft)
	}
}

func sendFailureStatus(err error) string {
	switch {
	case errors.Is(err, inbox.ErrEmptyDraft):
		return "nothing to send: draft is empty"
	case errors.Is(err, inbox.ErrNoSelection):
		return "nothing to send: no conversation selected"
	case errors.Is(err, inbox.ErrSendInFlight):
		return "a send is already in flight"
	default:
		return "send failed, draft kept: " + err.Error()
	}
}

func (v *inboxView) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch v.focus {
	case focusSearch:
		return v.handleSearchKey(msg)
	case focusCompose:
		return v.handleComposeKey(msg)
	}
	return v.handleListKey(msg)
}

func (v *inboxView) handleListKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if id, ok := v.neighborID(-1); ok {
			return v.openCmd(id)
		}
		return nil
	case "down", "j":
		if id, ok := v.neighborID(1); ok {
			return v.openCmd(id)
		}
		return nil
	case "enter":
		if v.snapshot.SelectedID != "" {
			return v.openCmd(v.snapshot.SelectedID)
		}
		return nil
	case "pgup":
		v.threadScroll += 5
		return nil
	case "pgdown":
		v.threadScroll -= 5
		if v.threadScroll < 0 {
			v.threadScroll = 0
		}
		return nil
	case "/":
		v.focus = focusSearch
		v.search.Focus()
		return textinput.Blink
	case "tab", "c":
		v.focus = focusCompose
		v.compose.Focus()
		return textinput.Blink
	case "u":
		v.rt.session.SetUnreadOnly(!v.snapshot.UnreadOnly)
		return v.refreshCmd()
	case "r":
		return v.refreshCmd()
	}
	return nil
}

func (v *inboxView) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter", "esc":
		v.focus = focusList
		v.search.Blur()
		return nil
	}
	var cmd tea.Cmd
	v.search, cmd = v.search.Update(msg)
	v.rt.session.SetSearchQuery(v.search.Value())
	return tea.Batch(cmd, v.refreshCmd())
}

func (v *inboxView) handleComposeKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		v.focus = focusList
		v.compose.Blur()
		return nil
	case "enter":
		return tea.Batch(v.spin.Tick, v.submitCmd())
	}
	var cmd tea.Cmd
	v.compose, cmd = v.compose.Update(msg)
	v.rt.session.SetDraft(v.compose.Value())
	return cmd
}

// neighborID returns the conversation id one step away from the current
// selection in the visible list.
func (v *inboxView) neighborID(step int) (string, bool) {
	list := v.snapshot.Conversations
	if len(list) == 0 {
		return "", false
	}
	idx := -1
	for i, c := range list {
		if c.ID == v.snapshot.SelectedID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return list[0].ID, true
	}
	next := idx + step
	if next < 0 || next >= len(list) {
		return "", false
	}
	v.threadScroll = 0
	return list[next].ID, true
}

func (v *inboxView) View(width, height int, theme styles.Theme) string {
	if width <= 0 || height <= 0 {
		return ""
	}

	searchLine := ""
	if v.focus == focusSearch || v.search.Value() != "" {
		searchLine = v.search.View()
	}
	statusLine := v.renderStatus(theme)
	composeLine := v.compose.View()

	chromeLines := 2 // status + compose
	if searchLine != "" {
		chromeLines++
	}
	paneHeight := height - chromeLines
	if paneHeight < 3 {
		paneHeight = 3
	}

	listWidth := width / 3
	if listWidth < 24 {
		listWidth = 24
	}
	if listWidth > 48 {
		listWidth = 48
	}
	threadWidth := width - listWidth - 4 // pane borders
	if threadWidth < 10 {
		threadWidth = 10
	}

	listPane := theme.Pane(v.focus == focusList).Width(listWidth).Height(paneHeight - 2).
		Render(v.renderList(listWidth, paneHeight-2, theme))
	threadPane := theme.Pane(false).Width(threadWidth).Height(paneHeight - 2).
		Render(v.renderThread(threadWidth, paneHeight-2, theme))

	panes := lipgloss.JoinHorizontal(lipgloss.Top, listPane, threadPane)

	parts := make([]string, 0, 4)
	if searchLine != "" {
		parts = append(parts, searchLine)
	}
	parts = append(parts, panes, statusLine, composeLine)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (v *inboxView) renderStatus(theme styles.Theme) string {
	if v.snapshot.Sending {
		return v.spin.View() + " sending..."
	}
	if v.snapshot.LastErr != nil {
		return theme.ErrorText().Render("refresh failed: " + v.snapshot.LastErr.Error())
	}
	if v.status != "" {
		return theme.Muted().Render(v.status)
	}
	if !v.snapshot.LastRefresh.IsZero() {
		return theme.Muted().Render("refreshed " + v.snapshot.LastRefresh.Format("15:04:05"))
	}
	return theme.Muted().Render("loading...")
}

func (v *inboxView) renderList(width, height int, theme styles.Theme) string {
	list := v.snapshot.Conversations
	if len(list) == 0 {
		if v.snapshot.SearchQuery != "" {
			return theme.Muted().Render("no matches")
		}
		return theme.Muted().Render("no conversations")
	}

	selected := 0
	for i, c := range list {
		if c.ID == v.snapshot.SelectedID {
			selected = i
			break
		}
	}

	// Keep the selection inside the visible window.
	offset := 0
	if selected >= height {
		offset = selected - height + 1
	}

	unreadStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Message.Unread))
	var b strings.Builder
	for i := offset; i < len(list) && i-offset < height; i++ {
		c := list[i]
		marker := "  "
		if c.Unread {
			marker = unreadStyle.Render("● ")
		}
		line := c.Counterparty + " · " + c.ListingTitle
		if i == selected {
			line = theme.Selected().Render("▸ " + line)
		} else {
			line = marker + line
		}
		b.WriteString(truncateVis(line, width))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func (v *inboxView) renderThread(width, height int, theme styles.Theme) string {
	thread := v.snapshot.Thread
	if len(thread) == 0 {
		return theme.Muted().Render("no messages")
	}

	own := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Message.Own)).Bold(true)
	other := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Message.Other)).Bold(true)
	wrap := lipgloss.NewStyle().Width(width)

	var lines []string
	for _, msg := range thread {
		header := msg.Sender
		if v.cfg.TUI.ShowTimestamps && msg.CreatedAt != "" {
			header += theme.Muted().Render("  " + msg.CreatedAt)
		}
		if msg.Sender == v.snapshot.AccountName {
			header = own.Render(msg.Sender) + strings.TrimPrefix(header, msg.Sender)
		} else {
			header = other.Render(msg.Sender) + strings.TrimPrefix(header, msg.Sender)
		}
		lines = append(lines, header)
		lines = append(lines, strings.Split(wrap.Render(msg.Body), "\n")...)
		lines = append(lines, "")
	}

	// Pin to the bottom, minus any manual scrollback.
	end := len(lines) - v.threadScroll
	if end > len(lines) {
		end = len(lines)
	}
	start := end - height
	if start < 0 {
		start = 0
	}
	if end < start {
		end = start
	}
	return strings.Join(lines[start:end], "\n")
}
