package diffview

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/diffnav/internal/keys"
)

// commandID uniquely identifies commands in the diff view.
type commandID string

const (
	// Cursor movement
	cmdNextLine    commandID = "next_line"
	cmdPrevLine    commandID = "prev_line"
	cmdNextChunk   commandID = "next_chunk"
	cmdPrevChunk   commandID = "prev_chunk"
	cmdNextFile    commandID = "next_file"
	cmdPrevFile    commandID = "prev_file"
	cmdNextComment commandID = "next_comment"
	cmdPrevComment commandID = "prev_comment"
	cmdToggleSide  commandID = "toggle_side"
	cmdPageDown    commandID = "page_down"
	cmdPageUp      commandID = "page_up"

	// Display
	cmdToggleView       commandID = "toggle_view"
	cmdToggleWhitespace commandID = "toggle_whitespace"
	cmdReload           commandID = "reload"

	cmdShowHelp commandID = "show_help"
	cmdQuit     commandID = "quit"
)

// keyBindingToCommand maps key bindings to their command IDs.
var keyBindingToCommand = map[*key.Binding]commandID{
	&keys.DiffView.Down:             cmdNextLine,
	&keys.DiffView.Up:               cmdPrevLine,
	&keys.DiffView.NextChunk:        cmdNextChunk,
	&keys.DiffView.PrevChunk:        cmdPrevChunk,
	&keys.DiffView.NextFile:         cmdNextFile,
	&keys.DiffView.PrevFile:         cmdPrevFile,
	&keys.DiffView.NextComment:      cmdNextComment,
	&keys.DiffView.PrevComment:      cmdPrevComment,
	&keys.DiffView.ToggleSide:       cmdToggleSide,
	&keys.DiffView.PageDown:         cmdPageDown,
	&keys.DiffView.PageUp:           cmdPageUp,
	&keys.DiffView.ToggleView:       cmdToggleView,
	&keys.DiffView.ToggleWhitespace: cmdToggleWhitespace,
	&keys.DiffView.Reload:           cmdReload,
	&keys.DiffView.Help:             cmdShowHelp,
	&keys.DiffView.Quit:             cmdQuit,
}

// keyToCommand returns the commandID for a key message, or "" if none matches.
func keyToCommand(msg tea.KeyMsg) commandID {
	for binding, id := range keyBindingToCommand {
		if key.Matches(msg, *binding) {
			return id
		}
	}
	return ""
}
