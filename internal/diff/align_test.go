package diff

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestAlign_Scenario(t *testing.T) {
	chunks, err := ParseUnified("@@ -1,2 +1,3 @@\n context\n-old\n+new1\n+new2")
	require.NoError(t, err)

	rows := Align(chunks[0])
	require.Len(t, rows, 3)

	require.True(t, rows[0].IsContext())
	require.Equal(t, "context", rows[0].Old.Content)
	require.Equal(t, "context", rows[0].New.Content)

	require.True(t, rows[1].IsModification())
	require.Equal(t, "old", rows[1].Old.Content)
	require.Equal(t, 2, rows[1].Old.Number)
	require.Equal(t, "new1", rows[1].New.Content)
	require.Equal(t, 2, rows[1].New.Number)

	require.True(t, rows[2].IsAddition())
	require.Nil(t, rows[2].Old)
	require.Equal(t, "new2", rows[2].New.Content)
	require.Equal(t, 3, rows[2].New.Number)
}

func TestAlign_MoreDeletesThanAdds(t *testing.T) {
	chunk := DiffChunk{
		OldStart: 5, OldLines: 3, NewStart: 5, NewLines: 1,
		Lines: []DiffLine{
			{Type: LineDelete, Content: "a"},
			{Type: LineDelete, Content: "b"},
			{Type: LineDelete, Content: "c"},
			{Type: LineAdd, Content: "z"},
		},
	}

	rows := Align(chunk)
	require.Len(t, rows, 3)
	require.True(t, rows[0].IsModification())
	require.True(t, rows[1].IsDeletion())
	require.True(t, rows[2].IsDeletion())
	require.Equal(t, 7, rows[2].Old.Number)
	require.Equal(t, 2, rows[2].Old.LineIndex)
}

func TestAlign_AddBeforeDeleteIsNotPaired(t *testing.T) {
	chunk := DiffChunk{
		OldStart: 1, OldLines: 1, NewStart: 1, NewLines: 1,
		Lines: []DiffLine{
			{Type: LineAdd, Content: "new"},
			{Type: LineDelete, Content: "old"},
		},
	}

	rows := Align(chunk)
	require.Len(t, rows, 2)
	require.True(t, rows[0].IsAddition())
	require.True(t, rows[1].IsDeletion())
}

func TestAlign_Empty(t *testing.T) {
	require.Nil(t, Align(DiffChunk{}))
}

func TestAlign_SidesMatchCountsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		chunks, err := ParseUnified(genChunkText(t))
		require.NoError(t, err)
		chunk := chunks[0]

		rows := Align(chunk)
		oldRows, newRows := 0, 0
		for _, r := range rows {
			require.True(t, r.Old != nil || r.New != nil, "row with no side")
			if r.Old != nil {
				oldRows++
				require.Equal(t, chunk.Lines[r.Old.LineIndex].OldLineNumber, r.Old.Number)
			}
			if r.New != nil {
				newRows++
				require.Equal(t, chunk.Lines[r.New.LineIndex].NewLineNumber, r.New.Number)
			}
		}

		oldCount, newCount := chunk.Counts()
		require.Equal(t, oldCount, oldRows)
		require.Equal(t, newCount, newRows)
	})
}

func TestAlignFile(t *testing.T) {
	f := SynthesizeAddition("x", []byte("a\nb\n"))
	aligned := AlignFile(f)
	require.Len(t, aligned, 1)
	require.Len(t, aligned[0], 2)
	require.True(t, aligned[0][0].IsAddition())
}
