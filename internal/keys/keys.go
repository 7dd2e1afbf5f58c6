// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// DiffViewKeyMap defines the keybindings of the diff viewer.
type DiffViewKeyMap struct {
	// Cursor movement
	Down        key.Binding
	Up          key.Binding
	NextChunk   key.Binding
	PrevChunk   key.Binding
	NextFile    key.Binding
	PrevFile    key.Binding
	NextComment key.Binding
	PrevComment key.Binding
	ToggleSide  key.Binding

	// Scrolling
	PageDown key.Binding
	PageUp   key.Binding

	// Display
	ToggleView       key.Binding
	ToggleWhitespace key.Binding
	Reload           key.Binding

	// General
	Help key.Binding
	Quit key.Binding
}

// DiffView holds the default diff viewer keybindings.
var DiffView = DiffViewKeyMap{
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "next line"),
	),
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "previous line"),
	),
	NextChunk: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "next change"),
	),
	PrevChunk: key.NewBinding(
		key.WithKeys("N", "p"),
		key.WithHelp("N/p", "previous change"),
	),
	NextFile: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "next file"),
	),
	PrevFile: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "previous file"),
	),
	NextComment: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "next comment"),
	),
	PrevComment: key.NewBinding(
		key.WithKeys("C"),
		key.WithHelp("C", "previous comment"),
	),
	ToggleSide: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "switch column"),
	),

	PageDown: key.NewBinding(
		key.WithKeys("ctrl+d", "pgdown"),
		key.WithHelp("ctrl+d", "page down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("ctrl+u", "pgup"),
		key.WithHelp("ctrl+u", "page up"),
	),

	ToggleView: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "unified/split"),
	),
	ToggleWhitespace: key.NewBinding(
		key.WithKeys("w"),
		key.WithHelp("w", "ignore whitespace"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload"),
	),

	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "toggle help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp returns keybindings for the short help view.
func (k DiffViewKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.NextChunk, k.NextFile, k.ToggleView, k.Help, k.Quit}
}

// FullHelp returns keybindings for the full help view.
func (k DiffViewKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Down, k.Up, k.NextChunk, k.PrevChunk},                     // Lines and changes
		{k.NextFile, k.PrevFile, k.NextComment, k.PrevComment},       // Files and comments
		{k.ToggleSide, k.PageDown, k.PageUp},                         // Columns and scrolling
		{k.ToggleView, k.ToggleWhitespace, k.Reload, k.Help, k.Quit}, // General
	}
}
