package tui

import "github.com/charmbracelet/bubbles/key"

type workbenchKeyMap struct {
	Run      key.Binding
	Tab      key.Binding
	Target   key.Binding
	Settings key.Binding
	Theme    key.Binding
	Up       key.Binding
	Down     key.Binding
	Scroll   key.Binding
	Quit     key.Binding
}

var workbenchKeys = workbenchKeyMap{
	Run: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "run"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab", "shift+tab"),
		key.WithHelp("tab", "switch"),
	),
	Target: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "target language"),
	),
	Settings: key.NewBinding(
		key.WithKeys("ctrl+o"),
		key.WithHelp("ctrl+o", "settings"),
	),
	Theme: key.NewBinding(
		key.WithKeys("ctrl+t"),
		key.WithHelp("ctrl+t", "theme"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
	),
	Scroll: key.NewBinding(
		key.WithKeys("pgup", "pgdown"),
		key.WithHelp("pgup/pgdn", "scroll"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "quit"),
	),
}
