package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit         key.Binding
	refresh      key.Binding
	toggleHelp   key.Binding
	moveUp       key.Binding
	moveDown     key.Binding
	detail       key.Binding
	search       key.Binding
	awaitingOnly key.Binding
	actionOnly   key.Binding
	cycleSort    key.Binding
	flipOrder    key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		refresh:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		toggleHelp:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveUp:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "row up")),
		moveDown:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "row down")),
		detail:       key.NewBinding(key.WithKeys("i", "enter"), key.WithHelp("i/enter", "record detail")),
		search:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter term")),
		awaitingOnly: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "awaiting approval")),
		actionOnly:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "action required")),
		cycleSort:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort column")),
		flipOrder:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "sort order")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.detail, k.search, k.awaitingOnly, k.actionOnly, k.cycleSort, k.refresh, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.detail, k.search, k.awaitingOnly, k.actionOnly, k.toggleHelp, k.refresh, k.quit},
		{k.moveUp, k.moveDown, k.cycleSort, k.flipOrder},
	}
}
