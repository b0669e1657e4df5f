package widget

import "github.com/charmbracelet/lipgloss"

// Styles groups the lipgloss styles used by the widget views.
type Styles struct {
	Header     lipgloss.Style
	UserLabel  lipgloss.Style
	AstraLabel lipgloss.Style
	UserText   lipgloss.Style
	ErrorText  lipgloss.Style
	Suggestion lipgloss.Style
	Muted      lipgloss.Style
	Input      lipgloss.Style
	FormLabel  lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1),
		UserLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginTop(1),
		AstraLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			MarginTop(1),
		UserText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		ErrorText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")),
		Suggestion: lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("212")).
			Padding(0, 1),
		FormLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252")),
	}
}
