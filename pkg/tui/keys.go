package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Scan     key.Binding
	Mode     key.Binding
	Download key.Binding
	Theme    key.Binding
	Filter   key.Binding
	Details  key.Binding
	Up       key.Binding
	Down     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Scan:     key.NewBinding(key.WithKeys("s", "r"), key.WithHelp("s", "scan")),
		Mode:     key.NewBinding(key.WithKeys("tab", "g"), key.WithHelp("tab", "list/graph")),
		Download: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "save map")),
		Theme:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		Filter:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Details:  key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "details")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Scan, k.Mode, k.Download, k.Theme, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Scan, k.Mode, k.Download},
		{k.Up, k.Down, k.Details, k.Filter},
		{k.Theme, k.Help, k.Quit},
	}
}
