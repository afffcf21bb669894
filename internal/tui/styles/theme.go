// Package styles holds the dashboard color themes.
package styles

import "github.com/charmbracelet/lipgloss"

// BaseColors defines global UI colors.
type BaseColors struct {
	Background string
	Foreground string
	Muted      string
	Accent     string
	Border     string
}

// MessageColors defines thread message colors.
type MessageColors struct {
	Own    string
	Other  string
	Unread string
}

// ChromeColors defines non-content UI colors.
type ChromeColors struct {
	Header       string
	Footer       string
	SelectedItem string
	Badge        string
	Error        string
}

// BorderColors defines border colors for pane state.
type BorderColors struct {
	ActivePane   string
	InactivePane string
}

// Theme defines the dashboard style tokens.
type Theme struct {
	Name string

	Base    BaseColors
	Message MessageColors
	Chrome  ChromeColors
	Borders BorderColors
}

// Themes lists available palettes by name.
var Themes = map[string]Theme{
	"default":       DefaultTheme,
	"high-contrast": HighContrastTheme,
}

// Lookup returns the named theme, falling back to the default palette.
func Lookup(name string) Theme {
	if t, ok := Themes[name]; ok {
		return t
	}
	return DefaultTheme
}

// Muted renders de-emphasized text.
func (t Theme) Muted() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Muted))
}

// Accent renders highlighted text.
func (t Theme) Accent() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Accent))
}

// Selected renders the selected list row.
func (t Theme) Selected() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Chrome.SelectedItem)).Bold(true)
}

// ErrorText renders error lines.
func (t Theme) ErrorText() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Chrome.Error)).Bold(true)
}

// Pane returns a bordered pane style, accented when the pane has focus.
func (t Theme) Pane(active bool) lipgloss.Style {
	color := t.Borders.InactivePane
	if active {
		color = t.Borders.ActivePane
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(color))
}
