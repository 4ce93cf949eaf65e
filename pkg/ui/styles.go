package ui

import "github.com/charmbracelet/lipgloss"

type Styles struct {
	Launcher   lipgloss.Style
	Panel      lipgloss.Style
	Header     lipgloss.Style
	HeaderHint lipgloss.Style
	UserBubble lipgloss.Style
	BotBubble  lipgloss.Style
	ErrorText  lipgloss.Style
	Status     lipgloss.Style
	Input      lipgloss.Style
}

var (
	accent = lipgloss.AdaptiveColor{Light: "#1B5E9A", Dark: "#6CB4EE"}
	muted  = lipgloss.AdaptiveColor{Light: "#6B6B6B", Dark: "#8A8A8A"}
	danger = lipgloss.AdaptiveColor{Light: "#B00020", Dark: "#FF6B6B"}
)

func DefaultStyles() Styles {
	return Styles{
		Launcher: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(accent).
			Padding(0, 2).
			Bold(true),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent),
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(accent).
			Bold(true).
			Padding(0, 1),
		HeaderHint: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(accent).
			Padding(0, 1),
		UserBubble: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(accent).
			Padding(0, 1),
		BotBubble: lipgloss.NewStyle().
			Padding(0, 1),
		ErrorText: lipgloss.NewStyle().
			Foreground(danger).
			Padding(0, 1),
		Status: lipgloss.NewStyle().
			Foreground(muted),
		Input: lipgloss.NewStyle().
			BorderTop(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(muted),
	}
}
