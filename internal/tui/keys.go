package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the session view.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	NextStation key.Binding
	PrevStation key.Binding
	Toggle      key.Binding // Expand or collapse the entry under the cursor.
	Quit        key.Binding
}

// DefaultKeyMap is the built-in key binding set. Vim-style navigation
// (j/k) alongside the arrow keys.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	NextStation: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("Tab", "next station"),
	),
	PrevStation: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("S-Tab", "previous station"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("enter", " ", "space"),
		key.WithHelp("Enter", "expand/collapse"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// help returns the one-line key summary shown under the status line.
func (k KeyMap) help() string {
	bindings := []key.Binding{k.Up, k.Down, k.NextStation, k.Toggle, k.Quit}
	out := ""
	for i, b := range bindings {
		if i > 0 {
			out += "  "
		}
		h := b.Help()
		out += h.Key + " " + h.Desc
	}
	return out
}
