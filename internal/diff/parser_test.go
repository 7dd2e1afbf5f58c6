package diff

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParseUnified_Scenario(t *testing.T) {
	chunks, err := ParseUnified("@@ -1,2 +1,3 @@\n context\n-old\n+new1\n+new2")
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	c := chunks[0]
	require.Equal(t, 1, c.OldStart)
	require.Equal(t, 2, c.OldLines)
	require.Equal(t, 1, c.NewStart)
	require.Equal(t, 3, c.NewLines)
	require.Equal(t, []DiffLine{
		{Type: LineNormal, Content: "context", OldLineNumber: 1, NewLineNumber: 1},
		{Type: LineDelete, Content: "old", OldLineNumber: 2},
		{Type: LineAdd, Content: "new1", NewLineNumber: 2},
		{Type: LineAdd, Content: "new2", NewLineNumber: 3},
	}, c.Lines)
}

func TestParseUnified_DiscardsFileHeaders(t *testing.T) {
	input := `diff --git a/file.go b/file.go
index abc1234..def5678 100644
--- a/file.go
+++ b/file.go
@@ -10,3 +10,3 @@ func example() {
 	context line
-	deleted line
+	added line
 	more context
`

	chunks, err := ParseUnified(input)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	c := chunks[0]
	require.Equal(t, "@@ -10,3 +10,3 @@ func example() {", c.Header)
	require.Len(t, c.Lines, 4)
	require.Equal(t, 10, c.Lines[0].OldLineNumber)
	require.Equal(t, 11, c.Lines[1].OldLineNumber)
	require.Equal(t, 0, c.Lines[1].NewLineNumber)
	require.Equal(t, 11, c.Lines[2].NewLineNumber)
	require.Equal(t, "\tmore context", c.Lines[3].Content)
}

func TestParseUnified_MultipleChunks(t *testing.T) {
	input := `@@ -1,2 +1,2 @@
-a
+b
 c
@@ -20 +20,2 @@
 x
+y
`
	chunks, err := ParseUnified(input)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	require.Equal(t, 1, chunks[1].OldLines, "omitted length means 1")
	require.Equal(t, 20, chunks[1].Lines[0].OldLineNumber)
	require.Equal(t, 21, chunks[1].Lines[1].NewLineNumber)
}

func TestParseUnified_NoNewlineMarkerSkipped(t *testing.T) {
	input := "@@ -1 +1 @@\n-a\n\\ No newline at end of file\n+b\n\\ No newline at end of file\n"

	chunks, err := ParseUnified(input)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Len(t, chunks[0].Lines, 2)
	require.Equal(t, LineDelete, chunks[0].Lines[0].Type)
	require.Equal(t, LineAdd, chunks[0].Lines[1].Type)
}

func TestParseUnified_TrailingTextAfterChunkDiscarded(t *testing.T) {
	input := "@@ -1 +1 @@\n-a\n+b\ndiff --git a/next b/next\n+stray\n"

	chunks, err := ParseUnified(input)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Len(t, chunks[0].Lines, 2)
}

func TestParseUnified_EmptyInput(t *testing.T) {
	chunks, err := ParseUnified("")
	require.NoError(t, err)
	require.Empty(t, chunks)
}

func TestBuildFile_CountsAndBinary(t *testing.T) {
	f, err := BuildFile(Change{Status: StatusModified, Path: "a.go"}, "@@ -1,2 +1,3 @@\n context\n-old\n+new1\n+new2\n")
	require.NoError(t, err)
	require.Equal(t, 2, f.Additions)
	require.Equal(t, 1, f.Deletions)
	require.False(t, f.Binary)

	bin, err := BuildFile(Change{Status: StatusAdded, Path: "logo.png"},
		"diff --git a/logo.png b/logo.png\nBinary files /dev/null and b/logo.png differ\n")
	require.NoError(t, err)
	require.True(t, bin.Binary)
	require.Empty(t, bin.Chunks)
	require.Equal(t, StatusAdded, bin.Status)
}

func TestBuildFile_RenameKeepsOldPath(t *testing.T) {
	f, err := BuildFile(Change{Status: StatusRenamed, Path: "new.go", OldPath: "old.go"}, "")
	require.NoError(t, err)
	require.Equal(t, "old.go", f.OldPath)

	m, err := BuildFile(Change{Status: StatusModified, Path: "x.go", OldPath: "ignored.go"}, "")
	require.NoError(t, err)
	require.Empty(t, m.OldPath)
}

func TestParseNameStatus(t *testing.T) {
	out := "M\x00main.go\x00A\x00new.go\x00D\x00gone.go\x00R087\x00old.go\x00renamed.go\x00C100\x00src.go\x00copy.go\x00T\x00link\x00"

	changes, err := ParseNameStatus(out)
	require.NoError(t, err)
	require.Equal(t, []Change{
		{Status: StatusModified, Path: "main.go"},
		{Status: StatusAdded, Path: "new.go"},
		{Status: StatusDeleted, Path: "gone.go"},
		{Status: StatusRenamed, Path: "renamed.go", OldPath: "old.go"},
		{Status: StatusAdded, Path: "copy.go"},
		{Status: StatusModified, Path: "link"},
	}, changes)
}

func TestParseNameStatus_Errors(t *testing.T) {
	_, err := ParseNameStatus("R100\x00only-one")
	require.Error(t, err)

	_, err = ParseNameStatus("Z\x00what")
	require.Error(t, err)

	changes, err := ParseNameStatus("")
	require.NoError(t, err)
	require.Empty(t, changes)
}

func TestSynthesizeAddition(t *testing.T) {
	f := SynthesizeAddition("notes.txt", []byte("one\ntwo\n"))
	require.Equal(t, StatusAdded, f.Status)
	require.Equal(t, 2, f.Additions)
	require.Len(t, f.Chunks, 1)

	c := f.Chunks[0]
	require.Equal(t, "@@ -0,0 +1,2 @@", c.Header)
	require.Equal(t, 0, c.OldLines)
	require.Equal(t, 2, c.NewLines)
	require.Equal(t, DiffLine{Type: LineAdd, Content: "two", NewLineNumber: 2}, c.Lines[1])

	empty := SynthesizeAddition("empty", nil)
	require.Empty(t, empty.Chunks)

	bin := SynthesizeAddition("blob", []byte{'a', 0, 'b'})
	require.True(t, bin.Binary)
	require.Empty(t, bin.Chunks)
}

// genChunkText draws a well-formed single-hunk unified diff.
func genChunkText(t *rapid.T) string {
	n := rapid.IntRange(1, 20).Draw(t, "n")
	var body strings.Builder
	oldCount, newCount := 0, 0
	for i := range n {
		content := rapid.StringMatching(`[a-z ]{0,8}`).Draw(t, fmt.Sprintf("content%d", i))
		switch rapid.SampledFrom([]LineType{LineNormal, LineAdd, LineDelete}).Draw(t, fmt.Sprintf("type%d", i)) {
		case LineAdd:
			body.WriteString("+" + content + "\n")
			newCount++
		case LineDelete:
			body.WriteString("-" + content + "\n")
			oldCount++
		default:
			body.WriteString(" " + content + "\n")
			oldCount++
			newCount++
		}
	}

	oldStart := rapid.IntRange(1, 500).Draw(t, "oldStart")
	newStart := rapid.IntRange(1, 500).Draw(t, "newStart")
	if oldCount == 0 {
		oldStart--
	}
	if newCount == 0 {
		newStart--
	}

	return fmt.Sprintf("--- a/f\n+++ b/f\n@@ -%d,%d +%d,%d @@\n%s", oldStart, oldCount, newStart, newCount, body.String())
}

func TestParseUnified_CountsMatchHeaderProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := genChunkText(t)

		chunks, err := ParseUnified(raw)
		require.NoError(t, err)
		require.Len(t, chunks, 1)

		oldCount, newCount := chunks[0].Counts()
		require.Equal(t, chunks[0].OldLines, oldCount)
		require.Equal(t, chunks[0].NewLines, newCount)

		again, err := ParseUnified(raw)
		require.NoError(t, err)
		require.Equal(t, chunks, again)
	})
}
