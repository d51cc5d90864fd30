package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	toggle   key.Binding
	next     key.Binding
	like     key.Binding
	dislike  key.Binding
	preview  key.Binding
	play     key.Binding
	likeNow  key.Binding
	hateNow  key.Binding
	closeP   key.Binding
	more     key.Binding
	fewer    key.Binding
	retry    key.Binding
	filter   key.Binding
	quit     key.Binding
	showHelp key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select genre")),
		next:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "continue")),
		like:     key.NewBinding(key.WithKeys("l", "+"), key.WithHelp("l", "like")),
		dislike:  key.NewBinding(key.WithKeys("d", "-"), key.WithHelp("d", "dislike")),
		preview:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "preview")),
		play:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		likeNow:  key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "like playing")),
		hateNow:  key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "dislike playing")),
		closeP:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "close preview")),
		more:     key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "more songs")),
		fewer:    key.NewBinding(key.WithKeys("["), key.WithHelp("[", "fewer songs")),
		retry:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload genres")),
		filter:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		showHelp: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.showHelp, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.toggle, k.filter, k.next},
		{k.like, k.dislike, k.more, k.fewer},
		{k.preview, k.play, k.likeNow, k.hateNow, k.closeP},
		{k.retry, k.quit},
	}
}
