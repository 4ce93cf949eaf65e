package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap lists the bindings of the widget. Toggle and Quit work whether or
// not the panel is open; the rest only apply to an open panel.
type KeyMap struct {
	Toggle   key.Binding
	Minimize key.Binding
	Close    key.Binding
	Submit   key.Binding
	Copy     key.Binding
	ScrollUp key.Binding
	ScrollDn key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "open/close chat"),
		),
		Minimize: key.NewBinding(
			key.WithKeys("esc", "ctrl+d"),
			key.WithHelp("esc", "minimize"),
		),
		Close: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "close & reset"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "copy answer"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		ScrollDn: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
		Help: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("ctrl+g", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Minimize, k.Close, k.Help}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Copy, k.ScrollUp, k.ScrollDn},
		{k.Toggle, k.Minimize, k.Close, k.Quit},
	}
}
