package ui

import "github.com/charmbracelet/lipgloss"

// Panda blue and the neutrals used across views.
var (
	pandaBlue = lipgloss.Color("#3692FF")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF"))

	MetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF"))

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F74747"))

	overlayStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(pandaBlue).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(1, 4)

	placeholderStyle = lipgloss.NewStyle().
				Foreground(pandaBlue).
				Bold(true)
)
