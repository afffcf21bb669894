package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m *Model) renderHeader() string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Base.Foreground)).
		Background(lipgloss.Color(m.theme.Chrome.Header)).
		Bold(true).
		Padding(0, 1)

	left := "revdesk " + m.version
	center := "signed out"
	if m.rt != nil {
		if snap := m.rt.session.Snapshot(); snap.AccountName != "" {
			center = snap.AccountName
		} else {
			center = "signed in"
		}
	}
	right := ""
	if m.badge > 0 {
		badgeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Chrome.Badge)).Bold(true)
		right = badgeStyle.Render(fmt.Sprintf("● %d new", m.badge))
	}
	return style.Width(maxInt(0, m.width)).Render(joinHeader(left, center, right, m.width-2))
}

func (m *Model) renderFooter() string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Base.Foreground)).
		Background(lipgloss.Color(m.theme.Chrome.Footer)).
		Padding(0, 1)

	base := "[i]nbox [l]istings [o]rders o[f]fers [n]otifications [?]Help q Quit"
	if m.rt == nil {
		base = "enter token to sign in  ctrl+c Quit"
	}
	if m.showHelp {
		base += "  (arrows select, / search, u unread, tab compose, enter send)"
	}
	return style.Width(maxInt(0, m.width)).Render(truncateVis(base, maxInt(0, m.width-2)))
}

func joinHeader(left, center, right string, width int) string {
	left = strings.TrimSpace(left)
	center = strings.TrimSpace(center)
	if width <= 0 {
		return left
	}

	space := width - lipgloss.Width(left) - lipgloss.Width(center) - lipgloss.Width(right)
	if space < 2 {
		line := left
		if right != "" {
			line = left + "  " + right
		}
		return truncateVis(line, width)
	}

	leftGap := space / 2
	rightGap := space - leftGap
	return truncateVis(left+strings.Repeat(" ", leftGap)+center+strings.Repeat(" ", rightGap)+right, width)
}

// truncateVis trims to a display width, leaving styled text alone when it
// already fits.
func truncateVis(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
