package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the transport UI.
type keyMap struct {
	toggle     key.Binding
	next       key.Binding
	prev       key.Binding
	volumeUp   key.Binding
	volumeDown key.Binding
	seekBack   key.Binding
	seekFwd    key.Binding
	open       key.Binding
	enqueue    key.Binding
	panel      key.Binding
	scrollUp   key.Binding
	scrollDown key.Binding
	help       key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		toggle:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		next:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		prev:       key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "prev")),
		volumeUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "volume up")),
		volumeDown: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "volume down")),
		seekBack:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "back 10s")),
		seekFwd:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "forward 10s")),
		open:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "play track")),
		enqueue:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add to queue")),
		panel:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch panel")),
		scrollUp:   key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll up")),
		scrollDown: key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll down")),
		help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.next, k.prev, k.volumeUp, k.volumeDown, k.open, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.toggle, k.next, k.prev, k.seekBack, k.seekFwd},
		{k.volumeUp, k.volumeDown, k.open, k.enqueue},
		{k.panel, k.scrollUp, k.scrollDown, k.help, k.quit},
	}
}
