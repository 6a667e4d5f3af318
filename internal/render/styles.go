package render

import "github.com/charmbracelet/lipgloss"

// Styles holds the terminal styles used by the outline.
type Styles struct {
	Kind     lipgloss.Style
	Label    lipgloss.Style
	Required lipgloss.Style
	Value    lipgloss.Style
	Muted    lipgloss.Style
	Broken   lipgloss.Style
	Header   lipgloss.Style

	enabled bool
}

// Semantic colors.
var (
	colorAccent  = lipgloss.Color("#8BC34A")
	colorInfo    = lipgloss.Color("#2196F3")
	colorMuted   = lipgloss.Color("#6B7280")
	colorDanger  = lipgloss.Color("#e53935")
	colorWarning = lipgloss.Color("#FFC107")
)

// ColorStyles returns styles for an interactive terminal.
func ColorStyles() Styles {
	return Styles{
		Kind:     lipgloss.NewStyle().Foreground(colorInfo),
		Label:    lipgloss.NewStyle().Bold(true),
		Required: lipgloss.NewStyle().Foreground(colorWarning).Bold(true),
		Value:    lipgloss.NewStyle().Foreground(colorAccent),
		Muted:    lipgloss.NewStyle().Foreground(colorMuted),
		Broken:   lipgloss.NewStyle().Foreground(colorDanger),
		Header:   lipgloss.NewStyle().Bold(true).Underline(true),
		enabled:  true,
	}
}

// PlainStyles returns styles that leave text untouched.
func PlainStyles() Styles {
	return Styles{}
}

func (s Styles) paint(st lipgloss.Style, text string) string {
	if !s.enabled || text == "" {
		return text
	}
	return st.Render(text)
}

func stylesFor(color bool) Styles {
	if color {
		return ColorStyles()
	}
	return PlainStyles()
}
