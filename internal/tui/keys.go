package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Add     key.Binding
	Toggle  key.Binding
	Delete  key.Binding
	Sync    key.Binding
	Clear   key.Binding
	Network key.Binding
	Quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Add:     key.NewBinding(key.WithKeys("a", "n"), key.WithHelp("a", "add")),
		Toggle:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
		Delete:  key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Sync:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sync now")),
		Clear:   key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "clear all")),
		Network: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "go on/offline")),
		Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) extra() []key.Binding {
	return []key.Binding{k.Add, k.Toggle, k.Delete, k.Sync, k.Clear, k.Network}
}
