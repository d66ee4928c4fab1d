// Package view renders the CLI screens: the conversation sidebar, the message
// thread and the auth forms. Rendering is pure: every function takes the data
// it shows and returns a string.
package view

import "github.com/charmbracelet/lipgloss"

var (
	Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}
	Cyan   = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}
	Green  = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}
	Rose   = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}
	Muted  = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	Border = lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#374151"}
)

// Theme groups the styles used by the renderer.
type Theme struct {
	Title   lipgloss.Style
	Item    lipgloss.Style
	Active  lipgloss.Style
	Muted   lipgloss.Style
	User    lipgloss.Style
	Bot     lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Panel   lipgloss.Style
}

func DefaultTheme() Theme {
	return Theme{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(Purple),
		Item:    lipgloss.NewStyle(),
		Active:  lipgloss.NewStyle().Bold(true).Foreground(Cyan),
		Muted:   lipgloss.NewStyle().Foreground(Muted).Italic(true),
		User:    lipgloss.NewStyle().Bold(true).Foreground(Cyan),
		Bot:     lipgloss.NewStyle().Bold(true).Foreground(Purple),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(Rose),
		Success: lipgloss.NewStyle().Foreground(Green),
		Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 1),
	}
}
