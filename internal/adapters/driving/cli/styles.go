package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette shared by command output.
var (
	colourPrimary = lipgloss.Color("#7C3AED")
	colourMuted   = lipgloss.Color("#6C7086")
	colourSuccess = lipgloss.Color("#A6E3A1")
	colourWarning = lipgloss.Color("#F9E2AF")
	colourError   = lipgloss.Color("#F38BA8")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colourPrimary)
	mutedStyle   = lipgloss.NewStyle().Foreground(colourMuted)
	successStyle = lipgloss.NewStyle().Foreground(colourSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colourWarning)
	errorStyle   = lipgloss.NewStyle().Foreground(colourError)
)

// title renders a section heading.
func title(s string) string {
	return titleStyle.Render(s)
}

// statusLabel renders a usage status in its colour.
func statusLabel(status string) string {
	switch status {
	case "used":
		return successStyle.Render(status)
	case "unused":
		return warningStyle.Render(status)
	case "failed":
		return errorStyle.Render(status)
	default:
		return mutedStyle.Render(status)
	}
}
