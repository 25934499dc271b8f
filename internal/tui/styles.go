package tui

import "github.com/charmbracelet/lipgloss"

var (
	mint  = lipgloss.Color("#05ffa1")
	blue  = lipgloss.Color("#01cdfe")
	pink  = lipgloss.Color("#ff71ce")
	muted = lipgloss.Color("#6b7089")
	red   = lipgloss.Color("#ff5f87")
)

type theme struct {
	title       lipgloss.Style
	userLabel   lipgloss.Style
	modelLabel  lipgloss.Style
	statusOK    lipgloss.Style
	statusOff   lipgloss.Style
	statusWarn  lipgloss.Style
	errorText   lipgloss.Style
	helpText    lipgloss.Style
	inputPrompt lipgloss.Style
}

func newTheme() theme {
	return theme{
		title:       lipgloss.NewStyle().Foreground(blue).Bold(true),
		userLabel:   lipgloss.NewStyle().Foreground(mint).Bold(true),
		modelLabel:  lipgloss.NewStyle().Foreground(pink).Bold(true),
		statusOK:    lipgloss.NewStyle().Foreground(mint),
		statusOff:   lipgloss.NewStyle().Foreground(muted),
		statusWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("#ffd166")),
		errorText:   lipgloss.NewStyle().Foreground(red),
		helpText:    lipgloss.NewStyle().Foreground(muted),
		inputPrompt: lipgloss.NewStyle().Foreground(mint),
	}
}
