package tui

import "github.com/charmbracelet/lipgloss"

// Styles collects the lipgloss styles used by the runner screens.
type Styles struct {
	Title    lipgloss.Style
	Fixation lipgloss.Style
	Stimulus lipgloss.Style
	Hint     lipgloss.Style
	Good     lipgloss.Style
	Bad      lipgloss.Style
	Dim      lipgloss.Style
}

// DefaultStyles returns the standard color scheme.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true),
		Fixation: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")),
		Stimulus: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 4).
			Foreground(lipgloss.Color("230")),
		Hint: lipgloss.NewStyle().Foreground(lipgloss.Color("110")),
		Good: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		Bad:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		Dim:  lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
	}
}
