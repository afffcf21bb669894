// Package tui implements the interactive seller dashboard.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/revdeskhq/revdesk/internal/config"
	"github.com/revdeskhq/revdesk/internal/inbox"
	"github.com/revdeskhq/revdesk/internal/logging"
	"github.com/revdeskhq/revdesk/internal/reverb"
	"github.com/revdeskhq/revdesk/internal/tui/styles"
)

const newMessageEventBuffer = 8

// ViewID names one dashboard screen.
type ViewID string

const (
	ViewLogin         ViewID = "login"
	ViewInbox         ViewID = "inbox"
	ViewListings      ViewID = "listings"
	ViewOrders        ViewID = "orders"
	ViewOffers        ViewID = "offers"
	ViewNotifications ViewID = "notifications"
)

var viewSwitchKeys = map[string]ViewID{
	"i": ViewInbox,
	"l": ViewListings,
	"o": ViewOrders,
	"f": ViewOffers,
	"n": ViewNotifications,
}

// runtime is the authenticated half of the app, built after the token is
// verified and torn down at logout. The token lives inside the client
// only.
type runtime struct {
	client     *reverb.Client
	session    *inbox.Session
	reconciler *inbox.Reconciler
	submitter  *inbox.Submitter
	events     chan inbox.NewMessageEvent
}

func newRuntime(cfg *config.Config, token, accountName string) *runtime {
	client := reverb.New(reverb.Config{
		BaseURL:         cfg.API.BaseURL,
		Token:           token,
		Timeout:         cfg.API.Timeout,
		MaxAttempts:     cfg.API.MaxAttempts,
		RetryBackoff:    cfg.API.RetryBackoff,
		CacheTTL:        cfg.API.CacheTTL,
		DisplayCurrency: cfg.API.DisplayCurrency,
	})

	session := inbox.NewSession()
	session.SetAccountName(accountName)
	session.SetUnreadOnly(cfg.Inbox.UnreadOnly)

	reconciler := inbox.NewReconciler(client, session, inbox.Normalizer{
		PreviewLength: cfg.Inbox.PreviewLength,
	})
	reconciler.PageSize = cfg.API.PageSize

	events := make(chan inbox.NewMessageEvent, newMessageEventBuffer)
	reconciler.OnNewMessage = func(ev inbox.NewMessageEvent) {
		select {
		case events <- ev:
		default:
		}
	}

	return &runtime{
		client:     client,
		session:    session,
		reconciler: reconciler,
		submitter:  inbox.NewSubmitter(client, session, reconciler),
		events:     events,
	}
}

func (r *runtime) teardown() {
	if r == nil {
		return
	}
	r.session.Logout()
	r.client.ClearToken()
}

// Model is the top-level bubbletea model: a stack of views plus the
// shared chrome.
type Model struct {
	cfg     *config.Config
	version string
	theme   styles.Theme
	log     zerolog.Logger

	rt    *runtime
	badge int

	width    int
	height   int
	showHelp bool

	viewStack []ViewID
	views     map[ViewID]viewModel
}

type viewModel interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View(width, height int, theme styles.Theme) string
}

// inputCapturer is implemented by views that own the keyboard while a
// text field has focus.
type inputCapturer interface {
	capturingInput() bool
}

type pushViewMsg struct {
	id ViewID
}

type popViewMsg struct{}

// sessionReadyMsg carries the verified client out of the login view.
type sessionReadyMsg struct {
	token       string
	accountName string
}

type newMessageMsg inbox.NewMessageEvent

func pushViewCmd(id ViewID) tea.Cmd {
	return func() tea.Msg {
		return pushViewMsg{id: id}
	}
}

func popViewCmd() tea.Cmd {
	return func() tea.Msg {
		return popViewMsg{}
	}
}

// NewModel builds the dashboard in its signed-out state.
func NewModel(cfg *config.Config, version string) *Model {
	m := &Model{
		cfg:       cfg,
		version:   version,
		theme:     styles.Lookup(cfg.TUI.Theme),
		log:       logging.Component("tui"),
		viewStack: []ViewID{ViewLogin},
		views:     make(map[ViewID]viewModel),
	}
	m.views[ViewLogin] = newLoginView(cfg)
	return m
}

// Run starts the dashboard and blocks until it exits.
func Run(cfg *config.Config, version string) error {
	model := NewModel(cfg, version)
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

// Close tears down the authenticated runtime, clearing the token.
func (m *Model) Close() {
	m.rt.teardown()
	m.rt = nil
}

func (m *Model) Init() tea.Cmd {
	if view := m.activeView(); view != nil {
		return view.Init()
	}
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		return m, nil
	case sessionReadyMsg:
		return m, m.startSession(typed)
	case newMessageMsg:
		m.badge++
		return m, tea.Batch(m.listenCmd(), m.forwardToActive(msg))
	case pushViewMsg:
		m.pushView(typed.id)
		if view := m.activeView(); view != nil {
			return m, view.Init()
		}
		return m, nil
	case popViewMsg:
		m.popView()
		return m, nil
	case tea.KeyMsg:
		if m.activeViewID() == ViewInbox {
			m.badge = 0
		}
		if cmd, handled := m.handleGlobalKey(typed); handled {
			return m, cmd
		}
	}

	return m, m.forwardToActive(msg)
}

func (m *Model) View() string {
	active := m.activeView()
	if active == nil {
		return "no active view"
	}
	header := m.renderHeader()
	footer := m.renderFooter()
	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 0 {
		contentHeight = 0
	}
	body := active.View(m.width, contentHeight, m.theme)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// startSession swaps the signed-out shell for the authenticated one.
func (m *Model) startSession(msg sessionReadyMsg) tea.Cmd {
	m.rt = newRuntime(m.cfg, msg.token, msg.accountName)
	m.log.Info().Str("session_id", m.rt.session.ID()).Msg("session started")

	m.views[ViewInbox] = newInboxView(m.rt, m.cfg)
	m.views[ViewListings] = newListingsView(m.rt.client, m.cfg)
	m.views[ViewOrders] = newOrdersView(m.rt.client, m.cfg)
	m.views[ViewOffers] = newOffersView(m.rt.client, m.cfg)
	m.views[ViewNotifications] = newNotificationsView(m.rt.client, m.cfg)

	m.viewStack = []ViewID{ViewInbox}
	return tea.Batch(m.views[ViewInbox].Init(), m.listenCmd())
}

// listenCmd waits for the next new-message event from the refresh engine.
func (m *Model) listenCmd() tea.Cmd {
	events := m.rt.events
	return func() tea.Msg {
		return newMessageMsg(<-events)
	}
}

func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return tea.Quit, true
	}

	if capturer, ok := m.activeView().(inputCapturer); ok && capturer.capturingInput() {
		return nil, false
	}

	switch msg.String() {
	case "q":
		return tea.Quit, true
	case "?":
		m.showHelp = !m.showHelp
		return nil, true
	case "esc", "backspace":
		if len(m.viewStack) > 1 {
			m.popView()
			return nil, true
		}
		return nil, false
	}

	if m.rt == nil {
		return nil, false
	}
	if next, ok := viewSwitchKeys[msg.String()]; ok {
		m.pushView(next)
		if view := m.activeView(); view != nil {
			return view.Init(), true
		}
		return nil, true
	}
	return nil, false
}

func (m *Model) forwardToActive(msg tea.Msg) tea.Cmd {
	if active := m.activeView(); active != nil {
		return active.Update(msg)
	}
	return nil
}

func (m *Model) activeView() viewModel {
	return m.views[m.activeViewID()]
}

func (m *Model) activeViewID() ViewID {
	if len(m.viewStack) == 0 {
		return ViewLogin
	}
	return m.viewStack[len(m.viewStack)-1]
}

func (m *Model) pushView(id ViewID) {
	if id == "" {
		return
	}
	if _, ok := m.views[id]; !ok {
		return
	}
	if m.activeViewID() == id {
		return
	}
	m.viewStack = append(m.viewStack, id)
}

func (m *Model) popView() {
	if len(m.viewStack) <= 1 {
		return
	}
	m.viewStack = m.viewStack[:len(m.viewStack)-1]
}
