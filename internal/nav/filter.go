package nav

import (
	"github.com/zjrosen/diffnav/internal/diff"
)

// Filter names a movement predicate.
type Filter string

const (
	// FilterLine stops on every line; in two-column mode only on lines
	// with content on the cursor's side.
	FilterLine Filter = "line"
	// FilterChunk stops at the first line of each run of changes.
	FilterChunk Filter = "chunk"
	// FilterComment stops on lines that carry a comment.
	FilterComment Filter = "comment"
	// FilterFile stops on the first line of each file.
	FilterFile Filter = "file"
)

// ParseFilter maps a name to a Filter.
func ParseFilter(s string) (Filter, bool) {
	switch f := Filter(s); f {
	case FilterLine, FilterChunk, FilterComment, FilterFile:
		return f, true
	}
	return "", false
}

// View is the read-only data filters evaluate against.
type View struct {
	Files    []diff.FileDiff
	Split    bool
	Comments CommentIndex
}

// Matches evaluates filter at pos. Positions that address no line never
// match.
func (v View) Matches(filter Filter, pos Position) bool {
	line, ok := LineAt(v.Files, pos)
	if !ok {
		return false
	}

	switch filter {
	case FilterLine:
		if !v.Split {
			return true
		}
		return HasContentOnSide(line, pos.Side)

	case FilterChunk:
		if line.Type == diff.LineNormal {
			return false
		}
		if pos.LineIndex == 0 {
			return true
		}
		prev := v.Files[pos.FileIndex].Chunks[pos.ChunkIndex].Lines[pos.LineIndex-1]
		return prev.Type == diff.LineNormal

	case FilterComment:
		n := v.EffectiveLineNumber(pos)
		return n > 0 && v.Comments.Has(v.Files[pos.FileIndex].Path, n)

	case FilterFile:
		first, ok := FirstInFile(v.Files, pos.FileIndex)
		return ok && first.SamePlace(pos)
	}

	return false
}

// EffectiveLineNumber is the file line number a comment at pos refers to.
// Single-column mode prefers the new-file number. Two-column mode uses the
// cursor's side, falling back to the side that has content.
func (v View) EffectiveLineNumber(pos Position) int {
	line, ok := LineAt(v.Files, pos)
	if !ok {
		return 0
	}

	if v.Split {
		if pos.Side == SideLeft && line.HasOld() {
			return line.OldLineNumber
		}
		if pos.Side != SideLeft && line.HasNew() {
			return line.NewLineNumber
		}
	}
	if line.HasNew() {
		return line.NewLineNumber
	}
	return line.OldLineNumber
}
