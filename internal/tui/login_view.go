package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/revdeskhq/revdesk/internal/config"
	"github.com/revdeskhq/revdesk/internal/reverb"
	"github.com/revdeskhq/revdesk/internal/tui/styles"
)

// loginView collects the API token and verifies it before the rest of
// the dashboard starts. When the environment already provides a token it
// verifies that one without prompting.
type loginView struct {
	cfg *config.Config

	input     textinput.Model
	spin      spinner.Model
	verifying bool
	errMsg    string
}

type tokenVerifiedMsg struct {
	token       string
	accountName string
	err         error
}

func newLoginView(cfg *config.Config) *loginView {
	ti := textinput.New()
	ti.Placeholder = "Reverb API token"
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.CharLimit = 0
	ti.Prompt = "token ❯ "
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &loginView{cfg: cfg, input: ti, spin: sp}
}

func (v *loginView) capturingInput() bool {
	return true
}

func (v *loginView) Init() tea.Cmd {
	if token := config.Token(); token != "" {
		v.verifying = true
		return tea.Batch(v.spin.Tick, v.verifyCmd(token))
	}
	return textinput.Blink
}

func (v *loginView) Update(msg tea.Msg) tea.Cmd {
	switch typed := msg.(type) {
	case tokenVerifiedMsg:
		v.verifying = false
		if typed.err != nil {
			if reverb.IsUnauthorized(typed.err) {
				v.errMsg = "token rejected, try again"
			} else {
				v.errMsg = typed.err.Error()
			}
			v.input.SetValue("")
			v.input.Focus()
			return textinput.Blink
		}
		return func() tea.Msg {
			return sessionReadyMsg{token: typed.token, accountName: typed.accountName}
		}
	case spinner.TickMsg:
		if !v.verifying {
			return nil
		}
		var cmd tea.Cmd
		v.spin, cmd = v.spin.Update(typed)
		return cmd
	case tea.KeyMsg:
		if v.verifying {
			return nil
		}
		if typed.String() == "enter" {
			token := v.input.Value()
			if token == "" {
				v.errMsg = "token is empty"
				return nil
			}
			v.verifying = true
			v.errMsg = ""
			return tea.Batch(v.spin.Tick, v.verifyCmd(token))
		}
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return cmd
}

// verifyCmd builds a throwaway client for the verification call. The
// real session client is constructed by the app once the token checks
// out.
func (v *loginView) verifyCmd(token string) tea.Cmd {
	cfg := v.cfg
	return func() tea.Msg {
		client := reverb.New(reverb.Config{
			BaseURL:      cfg.API.BaseURL,
			Token:        token,
			Timeout:      cfg.API.Timeout,
			MaxAttempts:  cfg.API.MaxAttempts,
			RetryBackoff: cfg.API.RetryBackoff,
		})
		defer client.ClearToken()

		ctx, cancel := context.WithTimeout(context.Background(), cfg.API.Timeout)
		defer cancel()

		account, err := client.VerifyToken(ctx)
		if err != nil {
			return tokenVerifiedMsg{err: err}
		}
		name, _ := reverb.Str(account, "name")
		if name == "" {
			name, _ = reverb.DigStr(account, "shop", "name")
		}
		return tokenVerifiedMsg{token: token, accountName: name}
	}
}

func (v *loginView) View(width, height int, theme styles.Theme) string {
	title := theme.Accent().Bold(true).Render("Sign in to Reverb")

	var body string
	if v.verifying {
		body = v.spin.View() + " verifying token..."
	} else {
		body = v.input.View()
	}

	lines := []string{title, "", body}
	if v.errMsg != "" {
		lines = append(lines, "", theme.ErrorText().Render(v.errMsg))
	}
	lines = append(lines, "", theme.Muted().Render("The token is kept in memory only and cleared on exit."))

	block := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, block)
}
