package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Pause   key.Binding
	Prev    key.Binding
	Next    key.Binding
	Reveal  key.Binding
	Reset   key.Binding
	Mode    key.Binding
	Choose  key.Binding
	Faster  key.Binding
	Slower  key.Binding
	Sound   key.Binding
	Help    key.Binding
	Quit    key.Binding
	flash   bool
	showAll bool
}

func newKeyMap() keyMap {
	return keyMap{
		Pause:  key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "pause/play")),
		Prev:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "prev")),
		Next:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next")),
		Reveal: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "reveal")),
		Reset:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "retry card")),
		Mode:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "flash/test")),
		Choose: key.NewBinding(key.WithKeys("1", "2", "3", "4"), key.WithHelp("1-4", "answer")),
		Faster: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "faster")),
		Slower: key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "slower")),
		Sound:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sound")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap and lists the keys of the current mode.
func (k keyMap) ShortHelp() []key.Binding {
	if k.flash {
		return []key.Binding{k.Pause, k.Reveal, k.Prev, k.Next, k.Mode, k.Help, k.Quit}
	}
	return []key.Binding{k.Choose, k.Reset, k.Prev, k.Next, k.Mode, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.Reveal, k.Choose, k.Reset},
		{k.Prev, k.Next, k.Mode},
		{k.Slower, k.Faster, k.Sound},
		{k.Help, k.Quit},
	}
}
