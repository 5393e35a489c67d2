package ui

import "github.com/charmbracelet/bubbles/key"

// seekStep is how far left/right move the playback position.
const seekStep = 10_000

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	enter   key.Binding
	back    key.Binding
	toggle  key.Binding
	rewind  key.Binding
	forward key.Binding
	next    key.Binding
	login   key.Binding
	reload  key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		toggle:  key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "play/pause")),
		rewind:  key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "-10s")),
		forward: key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "+10s")),
		next:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		login:   key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "log in")),
		reload:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.enter, k.back},
		{k.toggle, k.rewind, k.forward, k.next},
		{k.login, k.reload, k.quit},
	}
}
