package nav

import (
	"github.com/zjrosen/diffnav/internal/diff"
)

// Advance steps one line in dir, rolling over chunk and file boundaries
// and wrapping around the file list. Empty chunks and files are skipped.
// The side of pos is carried over unchanged.
//
// ok is false when no line exists anywhere: stepping gives up after going
// once around all files.
func Advance(files []diff.FileDiff, pos Position, dir Direction) (Position, bool) {
	n := len(files)
	if n == 0 {
		return pos, false
	}
	if dir != Backward {
		dir = Forward
	}

	f := ((pos.FileIndex % n) + n) % n
	c := pos.ChunkIndex
	l := pos.LineIndex + int(dir)
	transitions := 0

	for {
		chunks := files[f].Chunks
		if c >= 0 && c < len(chunks) {
			lines := chunks[c].Lines
			if l >= 0 && l < len(lines) {
				return Position{FileIndex: f, ChunkIndex: c, LineIndex: l, Side: pos.Side}, true
			}
		}

		if dir == Forward {
			if c+1 < len(chunks) {
				c = max(c+1, 0)
				l = 0
				continue
			}
			transitions++
			if transitions > n+1 {
				return pos, false
			}
			f = (f + 1) % n
			c, l = 0, 0
			continue
		}

		if c > 0 {
			c = min(c-1, len(chunks)-1)
			if c >= 0 {
				l = len(chunks[c].Lines) - 1
			}
			continue
		}
		transitions++
		if transitions > n+1 {
			return pos, false
		}
		f = (f - 1 + n) % n
		c = len(files[f].Chunks) - 1
		l = -1
		if c >= 0 {
			l = len(files[f].Chunks[c].Lines) - 1
		}
	}
}

// FindNext advances from start until filter accepts a position, then
// fixes the side of the match.
//
// Returning to start after visiting some other position means nothing
// matched. When start is the only position it is returned if it matches.
func FindNext(v View, start Position, dir Direction, filter Filter) (Position, bool) {
	limit := countPositions(v.Files) + 1
	pos := start
	visitedOther := false

	for range limit {
		next, ok := Advance(v.Files, pos, dir)
		if !ok {
			return Position{}, false
		}

		if next.SamePlace(start) {
			if visitedOther || !v.Matches(filter, next) {
				return Position{}, false
			}
			return FixSide(v.Files, next), true
		}
		visitedOther = true

		if v.Matches(filter, next) {
			return FixSide(v.Files, next), true
		}
		pos = next
	}

	return Position{}, false
}
