package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles of the wizard.
type Styles struct {
	Header lipgloss.Style
	Kicker lipgloss.Style
	Prompt lipgloss.Style
	Input  lipgloss.Style
	Error  lipgloss.Style
	Hint   lipgloss.Style
	Done   lipgloss.Style
	Frame  lipgloss.Style
}

// DefaultStyles returns the monochrome styles of the flow.
func DefaultStyles() Styles {
	ink := lipgloss.AdaptiveColor{Light: "#1A1B1C", Dark: "#FCFCFC"}
	muted := lipgloss.AdaptiveColor{Light: "#A0A4AB", Dark: "#6B6F76"}

	return Styles{
		Header: lipgloss.NewStyle().
			Foreground(ink).
			Bold(true).
			MarginBottom(1),
		Kicker: lipgloss.NewStyle().
			Foreground(muted).
			Bold(true),
		Prompt: lipgloss.NewStyle().
			Foreground(ink),
		Input: lipgloss.NewStyle().
			Foreground(ink),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#B3261E")),
		Hint: lipgloss.NewStyle().
			Foreground(muted).
			Italic(true),
		Done: lipgloss.NewStyle().
			Foreground(ink).
			Bold(true),
		Frame: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(muted).
			Padding(1, 3),
	}
}
