package nav

import (
	"github.com/zjrosen/diffnav/internal/diff"
	"github.com/zjrosen/diffnav/internal/log"
)

// Navigator owns the single cursor of a view. It performs no I/O and is
// meant to be driven from one goroutine (the UI loop).
type Navigator struct {
	view   View
	cursor Position
	set    bool
}

// NewNavigator creates a Navigator over files with no cursor.
func NewNavigator(files []diff.FileDiff) *Navigator {
	return &Navigator{view: View{Files: files}}
}

// View returns the data the navigator evaluates filters against.
func (n *Navigator) View() View { return n.view }

// Cursor returns the current position; ok is false when unset.
func (n *Navigator) Cursor() (Position, bool) {
	return n.cursor, n.set
}

// SetCursor places the cursor. Positions that address no line are rejected.
func (n *Navigator) SetCursor(pos Position) bool {
	if !Valid(n.view.Files, pos) {
		return false
	}
	n.cursor = n.fix(pos)
	n.set = true
	return true
}

// Clear unsets the cursor.
func (n *Navigator) Clear() {
	n.cursor = Position{}
	n.set = false
}

// Reset replaces the files. The cursor survives if it still addresses a
// line; otherwise it is cleared.
func (n *Navigator) Reset(files []diff.FileDiff) {
	n.view.Files = files
	if n.set && !Valid(files, n.cursor) {
		log.Debug(log.CatNav, "Cursor cleared after reload", "file", n.cursor.FileIndex, "chunk", n.cursor.ChunkIndex)
		n.Clear()
		return
	}
	if n.set {
		n.cursor = n.fix(n.cursor)
	}
}

// SetSplit switches between single and two-column mode.
func (n *Navigator) SetSplit(split bool) {
	n.view.Split = split
	if n.set {
		n.cursor = n.fix(n.cursor)
	}
}

// SetComments replaces the comment index.
func (n *Navigator) SetComments(idx CommentIndex) {
	n.view.Comments = idx
}

// ToggleSide moves the cursor to the other column when that column has
// content. It reports whether the cursor moved.
func (n *Navigator) ToggleSide() bool {
	if !n.set || !n.view.Split {
		return false
	}
	line, ok := LineAt(n.view.Files, n.cursor)
	if !ok {
		return false
	}
	other := n.cursor.Side.Opposite()
	if !HasContentOnSide(line, other) {
		return false
	}
	n.cursor.Side = other
	return true
}

// Next moves forward to the next position accepted by filter.
func (n *Navigator) Next(filter Filter) (Position, bool) {
	return n.move(Forward, filter)
}

// Prev moves backward to the previous position accepted by filter.
func (n *Navigator) Prev(filter Filter) (Position, bool) {
	return n.move(Backward, filter)
}

// move leaves the cursor untouched when nothing matches.
func (n *Navigator) move(dir Direction, filter Filter) (Position, bool) {
	if !n.set {
		// An unset cursor starts just outside the diff so the first (or
		// last) position itself is a candidate.
		edge, ok := First(n.view.Files)
		if dir == Backward {
			edge, ok = Last(n.view.Files)
		}
		if !ok {
			return Position{}, false
		}
		if n.view.Matches(filter, edge) {
			n.cursor, n.set = FixSide(n.view.Files, edge), true
			return n.cursor, true
		}
		n.cursor, n.set = edge, true
		pos, found := FindNext(n.view, edge, dir, filter)
		if !found {
			n.Clear()
			return Position{}, false
		}
		n.cursor = pos
		return pos, true
	}

	pos, ok := FindNext(n.view, n.cursor, dir, filter)
	if !ok {
		log.Debug(log.CatNav, "No match", "filter", string(filter), "direction", int(dir))
		return Position{}, false
	}
	n.cursor = pos
	return pos, true
}

func (n *Navigator) fix(pos Position) Position {
	if pos.Side == "" {
		pos.Side = SideRight
	}
	return FixSide(n.view.Files, pos)
}

// ElementID returns the handle of the cursor's row, or "" when unset.
func (n *Navigator) ElementID() string {
	if !n.set {
		return ""
	}
	return ElementID(n.cursor, n.view.Split)
}
