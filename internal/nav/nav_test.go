package nav

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/diffnav/internal/diff"
)

func line(t diff.LineType, old, new int) diff.DiffLine {
	return diff.DiffLine{Type: t, Content: string(t), OldLineNumber: old, NewLineNumber: new}
}

// sampleFiles:
//
//	file 0: chunk 0 [normal, delete, add, normal], chunk 1 [] (empty)
//	file 1: no chunks
//	file 2: chunk 0 [add, add]
func sampleFiles() []diff.FileDiff {
	return []diff.FileDiff{
		{Path: "a.go", Chunks: []diff.DiffChunk{
			{Lines: []diff.DiffLine{
				line(diff.LineNormal, 1, 1),
				line(diff.LineDelete, 2, 0),
				line(diff.LineAdd, 0, 2),
				line(diff.LineNormal, 3, 3),
			}},
			{Lines: nil},
		}},
		{Path: "empty.go"},
		{Path: "b.go", Chunks: []diff.DiffChunk{
			{Lines: []diff.DiffLine{line(diff.LineAdd, 0, 1), line(diff.LineAdd, 0, 2)}},
		}},
	}
}

func pos(f, c, l int) Position { return Position{FileIndex: f, ChunkIndex: c, LineIndex: l, Side: SideRight} }

func TestAdvance_SkipsEmptyChunksAndFiles(t *testing.T) {
	files := sampleFiles()

	next, ok := Advance(files, pos(0, 0, 3), Forward)
	require.True(t, ok)
	require.Equal(t, pos(2, 0, 0), next)

	next, ok = Advance(files, pos(2, 0, 1), Forward)
	require.True(t, ok)
	require.Equal(t, pos(0, 0, 0), next, "wraps to the first file")

	prev, ok := Advance(files, pos(2, 0, 0), Backward)
	require.True(t, ok)
	require.Equal(t, pos(0, 0, 3), prev)

	prev, ok = Advance(files, pos(0, 0, 0), Backward)
	require.True(t, ok)
	require.Equal(t, pos(2, 0, 1), prev, "wraps to the last file")
}

func TestAdvance_NoLines(t *testing.T) {
	_, ok := Advance(nil, pos(0, 0, 0), Forward)
	require.False(t, ok)

	files := []diff.FileDiff{{Path: "x"}, {Path: "y", Chunks: []diff.DiffChunk{{}}}}
	_, ok = Advance(files, pos(0, 0, 0), Forward)
	require.False(t, ok)
	_, ok = Advance(files, pos(1, 0, 0), Backward)
	require.False(t, ok)
}

func TestAdvance_KeepsSide(t *testing.T) {
	start := Position{FileIndex: 0, ChunkIndex: 0, LineIndex: 0, Side: SideLeft}
	next, ok := Advance(sampleFiles(), start, Forward)
	require.True(t, ok)
	require.Equal(t, SideLeft, next.Side)
}

func TestFindNext_Chunk(t *testing.T) {
	v := View{Files: sampleFiles()}

	got, ok := FindNext(v, pos(0, 0, 0), Forward, FilterChunk)
	require.True(t, ok)
	require.Equal(t, 1, got.LineIndex)
	require.Equal(t, SideLeft, got.Side, "delete line is fixed to the left")

	got, ok = FindNext(v, got, Forward, FilterChunk)
	require.True(t, ok)
	require.Equal(t, pos(2, 0, 0), got)
}

func TestFindNext_NoMatch(t *testing.T) {
	v := View{Files: sampleFiles()}
	_, ok := FindNext(v, pos(0, 0, 0), Forward, FilterComment)
	require.False(t, ok)
}

func TestFindNext_OnlyPosition(t *testing.T) {
	files := []diff.FileDiff{{Path: "x", Chunks: []diff.DiffChunk{{Lines: []diff.DiffLine{line(diff.LineAdd, 0, 1)}}}}}
	v := View{Files: files}

	got, ok := FindNext(v, pos(0, 0, 0), Forward, FilterFile)
	require.True(t, ok)
	require.Equal(t, pos(0, 0, 0), got)

	_, ok = FindNext(v, pos(0, 0, 0), Forward, FilterComment)
	require.False(t, ok)
}

func TestFindNext_File(t *testing.T) {
	v := View{Files: sampleFiles()}

	got, ok := FindNext(v, pos(0, 0, 2), Forward, FilterFile)
	require.True(t, ok)
	require.Equal(t, pos(2, 0, 0), got)

	got, ok = FindNext(v, got, Forward, FilterFile)
	require.True(t, ok)
	require.Equal(t, pos(0, 0, 0), got)
}

func TestFindNext_Comment(t *testing.T) {
	files := sampleFiles()
	v := View{Files: files, Comments: NewCommentIndex([]Comment{
		{File: "b.go", Line: SingleLine(2), Body: "nit"},
		{File: "a.go", Line: LineRef{Start: 1, End: 3}, Body: "range"},
	})}

	got, ok := FindNext(v, pos(0, 0, 0), Forward, FilterComment)
	require.True(t, ok)
	require.Equal(t, pos(0, 0, 3), got, "range comment keyed on its end line")

	got, ok = FindNext(v, got, Forward, FilterComment)
	require.True(t, ok)
	require.Equal(t, pos(2, 0, 1), got)
}

func TestView_LineFilterSplit(t *testing.T) {
	v := View{Files: sampleFiles(), Split: true}
	start := Position{FileIndex: 0, ChunkIndex: 0, LineIndex: 0, Side: SideLeft}

	got, ok := FindNext(v, start, Forward, FilterLine)
	require.True(t, ok)
	require.Equal(t, 1, got.LineIndex, "delete line has left content")

	got, ok = FindNext(v, got, Forward, FilterLine)
	require.True(t, ok)
	require.Equal(t, 3, got.LineIndex, "add line is skipped on the left")
}

func TestView_EffectiveLineNumber(t *testing.T) {
	files := sampleFiles()

	unified := View{Files: files}
	require.Equal(t, 2, unified.EffectiveLineNumber(pos(0, 0, 1)), "delete uses old number")
	require.Equal(t, 3, unified.EffectiveLineNumber(pos(0, 0, 3)))

	split := View{Files: files, Split: true}
	left := Position{FileIndex: 0, ChunkIndex: 0, LineIndex: 3, Side: SideLeft}
	require.Equal(t, 3, split.EffectiveLineNumber(left))
	require.Equal(t, 0, split.EffectiveLineNumber(pos(5, 0, 0)))
}

func TestFixSideAndHasContent(t *testing.T) {
	files := sampleFiles()

	require.Equal(t, SideLeft, FixSide(files, pos(0, 0, 1)).Side)
	require.Equal(t, SideRight, FixSide(files, Position{LineIndex: 2, Side: SideLeft}).Side)
	require.Equal(t, SideLeft, FixSide(files, Position{LineIndex: 0, Side: SideLeft}).Side)

	require.True(t, HasContentOnSide(line(diff.LineNormal, 1, 1), SideLeft))
	require.False(t, HasContentOnSide(line(diff.LineAdd, 0, 1), SideLeft))
	require.False(t, HasContentOnSide(line(diff.LineDelete, 1, 0), SideRight))
}

func TestElementID(t *testing.T) {
	p := Position{FileIndex: 1, ChunkIndex: 2, LineIndex: 3, Side: SideLeft}
	require.Equal(t, "file-1-chunk-2-line-3", ElementID(p, false))
	require.Equal(t, "file-1-chunk-2-line-3-left", ElementID(p, true))
}

func TestLineRefJSON(t *testing.T) {
	var c Comment
	require.NoError(t, json.Unmarshal([]byte(`{"file":"a","line":[3,5],"body":"x"}`), &c))
	require.Equal(t, LineRef{Start: 3, End: 5}, c.Line)

	require.NoError(t, json.Unmarshal([]byte(`{"file":"a","line":7,"body":"x"}`), &c))
	require.Equal(t, SingleLine(7), c.Line)

	require.Error(t, json.Unmarshal([]byte(`{"line":[1,2,3]}`), &c))

	out, err := json.Marshal(LineRef{Start: 3, End: 5})
	require.NoError(t, err)
	require.JSONEq(t, `[3,5]`, string(out))
}

func TestNavigator(t *testing.T) {
	n := NewNavigator(sampleFiles())

	_, set := n.Cursor()
	require.False(t, set)
	require.Empty(t, n.ElementID())

	got, ok := n.Next(FilterLine)
	require.True(t, ok)
	require.Equal(t, pos(0, 0, 0), got, "unset cursor starts at the first line")

	got, ok = n.Prev(FilterLine)
	require.True(t, ok)
	require.Equal(t, pos(2, 0, 1), got)

	_, ok = n.Next(FilterComment)
	require.False(t, ok)
	cur, _ := n.Cursor()
	require.Equal(t, pos(2, 0, 1), cur, "no match leaves the cursor alone")

	n.Clear()
	got, ok = n.Prev(FilterChunk)
	require.True(t, ok)
	require.Equal(t, pos(2, 0, 0), got, "unset cursor searches back from the last line")
}

func TestNavigator_SplitAndToggle(t *testing.T) {
	n := NewNavigator(sampleFiles())
	require.True(t, n.SetCursor(pos(0, 0, 1)))
	cur, _ := n.Cursor()
	require.Equal(t, SideLeft, cur.Side)

	n.SetSplit(true)
	require.False(t, n.ToggleSide(), "delete line has no right side")
	require.Equal(t, "file-0-chunk-0-line-1-left", n.ElementID())

	require.True(t, n.SetCursor(pos(0, 0, 0)))
	require.True(t, n.ToggleSide())
	cur, _ = n.Cursor()
	require.Equal(t, SideLeft, cur.Side)

	require.False(t, n.SetCursor(pos(1, 0, 0)), "empty file has no lines")
}

func TestNavigator_Reset(t *testing.T) {
	n := NewNavigator(sampleFiles())
	require.True(t, n.SetCursor(pos(2, 0, 1)))

	n.Reset(sampleFiles()[:1])
	_, set := n.Cursor()
	require.False(t, set, "cursor past the new files is cleared")

	require.True(t, n.SetCursor(pos(0, 0, 3)))
	n.Reset(sampleFiles())
	cur, set := n.Cursor()
	require.True(t, set)
	require.Equal(t, pos(0, 0, 3), cur)
}

func genFiles(t *rapid.T) []diff.FileDiff {
	types := []diff.LineType{diff.LineNormal, diff.LineAdd, diff.LineDelete}
	nFiles := rapid.IntRange(1, 4).Draw(t, "files")
	files := make([]diff.FileDiff, nFiles)
	for f := range files {
		files[f].Path = fmt.Sprintf("f%d", f)
		nChunks := rapid.IntRange(0, 3).Draw(t, fmt.Sprintf("chunks%d", f))
		for c := range nChunks {
			nLines := rapid.IntRange(0, 4).Draw(t, fmt.Sprintf("lines%d_%d", f, c))
			chunk := diff.DiffChunk{}
			for l := range nLines {
				chunk.Lines = append(chunk.Lines, diff.DiffLine{
					Type: rapid.SampledFrom(types).Draw(t, fmt.Sprintf("type%d_%d_%d", f, c, l)),
				})
			}
			files[f].Chunks = append(files[f].Chunks, chunk)
		}
	}
	return files
}

func allPositions(files []diff.FileDiff) []Position {
	var out []Position
	for f := range files {
		for c := range files[f].Chunks {
			for l := range files[f].Chunks[c].Lines {
				out = append(out, pos(f, c, l))
			}
		}
	}
	return out
}

func TestAdvance_WrapsVisitingEachPositionOnceProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		files := genFiles(t)
		positions := allPositions(files)
		if len(positions) == 0 {
			_, ok := Advance(files, pos(0, 0, 0), Forward)
			require.False(t, ok)
			return
		}

		start := positions[rapid.IntRange(0, len(positions)-1).Draw(t, "start")]
		dir := rapid.SampledFrom([]Direction{Forward, Backward}).Draw(t, "dir")

		seen := map[Position]int{}
		cur := start
		for range positions {
			next, ok := Advance(files, cur, dir)
			require.True(t, ok)
			seen[next]++
			cur = next
		}

		require.Equal(t, start, cur, "returns to start after one lap")
		require.Len(t, seen, len(positions))
		for p, n := range seen {
			require.Equal(t, 1, n, "visited %v more than once", p)
		}
	})
}

func TestFindNext_ChunkFilterProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		files := genFiles(t)
		positions := allPositions(files)
		if len(positions) == 0 {
			return
		}
		v := View{Files: files}
		start := positions[rapid.IntRange(0, len(positions)-1).Draw(t, "start")]

		got, ok := FindNext(v, start, Forward, FilterChunk)
		if !ok {
			return
		}
		ln, exists := LineAt(files, got)
		require.True(t, exists)
		require.NotEqual(t, diff.LineNormal, ln.Type)
		if got.LineIndex > 0 {
			prev := files[got.FileIndex].Chunks[got.ChunkIndex].Lines[got.LineIndex-1]
			require.Equal(t, diff.LineNormal, prev.Type)
		}
	})
}
