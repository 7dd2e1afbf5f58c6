// Package nav moves a cursor through a diff's files, chunks and lines.
//
// Everything here is a pure function of a position and the file slice it
// indexes into. Nothing derived is cached, so the files may be replaced
// wholesale between calls.
package nav

import (
	"fmt"

	"github.com/zjrosen/diffnav/internal/diff"
)

// Side is the column of a two-column view.
type Side string

const (
	SideLeft  Side = "left"  // old file
	SideRight Side = "right" // new file
)

// Opposite returns the other column.
func (s Side) Opposite() Side {
	if s == SideLeft {
		return SideRight
	}
	return SideLeft
}

// Position addresses one line of one chunk of one file.
type Position struct {
	FileIndex  int  `json:"fileIndex"`
	ChunkIndex int  `json:"chunkIndex"`
	LineIndex  int  `json:"lineIndex"`
	Side       Side `json:"side"`
}

// SamePlace reports whether two positions address the same line,
// regardless of side.
func (p Position) SamePlace(o Position) bool {
	return p.FileIndex == o.FileIndex && p.ChunkIndex == o.ChunkIndex && p.LineIndex == o.LineIndex
}

// Direction is the stepping direction of Advance.
type Direction int

const (
	Forward  Direction = 1
	Backward Direction = -1
)

// LineAt returns the line at pos, if pos addresses one.
func LineAt(files []diff.FileDiff, pos Position) (diff.DiffLine, bool) {
	if pos.FileIndex < 0 || pos.FileIndex >= len(files) {
		return diff.DiffLine{}, false
	}
	chunks := files[pos.FileIndex].Chunks
	if pos.ChunkIndex < 0 || pos.ChunkIndex >= len(chunks) {
		return diff.DiffLine{}, false
	}
	lines := chunks[pos.ChunkIndex].Lines
	if pos.LineIndex < 0 || pos.LineIndex >= len(lines) {
		return diff.DiffLine{}, false
	}
	return lines[pos.LineIndex], true
}

// Valid reports whether pos addresses an existing line.
func Valid(files []diff.FileDiff, pos Position) bool {
	_, ok := LineAt(files, pos)
	return ok
}

// HasContentOnSide reports whether line has text in the given column:
// deletions only on the left, additions only on the right, context on both.
func HasContentOnSide(line diff.DiffLine, side Side) bool {
	if side == SideLeft {
		return line.HasOld()
	}
	return line.HasNew()
}

// FixSide moves pos to a column that has content at its line. Positions
// that address no line are returned unchanged.
func FixSide(files []diff.FileDiff, pos Position) Position {
	line, ok := LineAt(files, pos)
	if !ok {
		return pos
	}
	switch line.Type {
	case diff.LineDelete:
		pos.Side = SideLeft
	case diff.LineAdd:
		pos.Side = SideRight
	default:
		if pos.Side == "" {
			pos.Side = SideRight
		}
	}
	return pos
}

// ElementID is the stable handle a front end uses for the row at pos. The
// side suffix is present only in two-column mode.
func ElementID(pos Position, split bool) string {
	id := fmt.Sprintf("file-%d-chunk-%d-line-%d", pos.FileIndex, pos.ChunkIndex, pos.LineIndex)
	if split {
		side := pos.Side
		if side == "" {
			side = SideRight
		}
		id += "-" + string(side)
	}
	return id
}

// First returns the first existing position, if any.
func First(files []diff.FileDiff) (Position, bool) {
	for f := range files {
		for c, chunk := range files[f].Chunks {
			if len(chunk.Lines) > 0 {
				return Position{FileIndex: f, ChunkIndex: c, LineIndex: 0, Side: SideRight}, true
			}
		}
	}
	return Position{}, false
}

// Last returns the last existing position, if any.
func Last(files []diff.FileDiff) (Position, bool) {
	for f := len(files) - 1; f >= 0; f-- {
		chunks := files[f].Chunks
		for c := len(chunks) - 1; c >= 0; c-- {
			if n := len(chunks[c].Lines); n > 0 {
				return Position{FileIndex: f, ChunkIndex: c, LineIndex: n - 1, Side: SideRight}, true
			}
		}
	}
	return Position{}, false
}

// FirstInFile returns the first existing position of one file.
func FirstInFile(files []diff.FileDiff, fileIndex int) (Position, bool) {
	if fileIndex < 0 || fileIndex >= len(files) {
		return Position{}, false
	}
	for c, chunk := range files[fileIndex].Chunks {
		if len(chunk.Lines) > 0 {
			return Position{FileIndex: fileIndex, ChunkIndex: c, Side: SideRight}, true
		}
	}
	return Position{}, false
}

// countPositions returns the number of existing positions.
func countPositions(files []diff.FileDiff) int {
	n := 0
	for _, f := range files {
		for _, c := range f.Chunks {
			n += len(c.Lines)
		}
	}
	return n
}
