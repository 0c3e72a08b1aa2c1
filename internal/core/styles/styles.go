// Package styles provides shared lipgloss styles for CLI output.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	TextPrimaryBoldStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2f7"))
	TextForegroundStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#c0caf5"))
	TextMutedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
	TextAccentStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#7dcfff"))
	TextSuccessStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ece6a"))
	TextWarningStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0af68"))
	TextErrorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#f7768e"))
)
