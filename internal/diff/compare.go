package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultContextLines matches git's default hunk context.
const DefaultContextLines = 3

// Compare computes a line diff of two texts and groups it into chunks with
// the given number of context lines, like `git diff -U<context>`.
//
// Within each change block deletions come before additions, so the result
// aligns the same way parsed git output does.
func Compare(oldText, newText string, context int) []DiffChunk {
	if oldText == newText {
		return nil
	}
	if context < 0 {
		context = 0
	}

	lines := numberLines(lineOps(oldText, newText))

	// oldBefore[i] / newBefore[i]: lines of each side preceding lines[i].
	oldBefore := make([]int, len(lines)+1)
	newBefore := make([]int, len(lines)+1)
	for i, l := range lines {
		oldBefore[i+1] = oldBefore[i]
		newBefore[i+1] = newBefore[i]
		if l.HasOld() {
			oldBefore[i+1]++
		}
		if l.HasNew() {
			newBefore[i+1]++
		}
	}

	var chunks []DiffChunk
	for i := 0; i < len(lines); {
		if lines[i].Type == LineNormal {
			i++
			continue
		}

		start := max(0, i-context)
		last := i
		for j := i; j < len(lines); {
			if lines[j].Type != LineNormal {
				last = j
				j++
				continue
			}
			k := j
			for k < len(lines) && lines[k].Type == LineNormal {
				k++
			}
			// Merge with the next change when the contexts would overlap.
			if k < len(lines) && k-j <= 2*context {
				j = k
				continue
			}
			break
		}
		stop := min(len(lines), last+1+context)

		chunks = append(chunks, makeChunk(lines[start:stop], oldBefore[start], newBefore[start]))
		i = stop
	}

	return chunks
}

func makeChunk(lines []DiffLine, oldBefore, newBefore int) DiffChunk {
	c := DiffChunk{Lines: make([]DiffLine, len(lines))}
	copy(c.Lines, lines)
	c.OldLines, c.NewLines = c.Counts()

	// An empty range starts at the line it follows, as git prints it.
	c.OldStart = oldBefore
	if c.OldLines > 0 {
		c.OldStart = oldBefore + 1
	}
	c.NewStart = newBefore
	if c.NewLines > 0 {
		c.NewStart = newBefore + 1
	}

	c.Header = fmt.Sprintf("@@ -%d,%d +%d,%d @@", c.OldStart, c.OldLines, c.NewStart, c.NewLines)
	return c
}

func numberLines(lines []DiffLine) []DiffLine {
	oldNum, newNum := 0, 0
	for i := range lines {
		switch lines[i].Type {
		case LineDelete:
			oldNum++
			lines[i].OldLineNumber = oldNum
		case LineAdd:
			newNum++
			lines[i].NewLineNumber = newNum
		default:
			oldNum++
			newNum++
			lines[i].OldLineNumber = oldNum
			lines[i].NewLineNumber = newNum
		}
	}
	return lines
}

// lineOps runs a line-mode diff and flattens it into typed lines with
// deletions ahead of additions inside every change block.
func lineOps(oldText, newText string) []DiffLine {
	dmp := diffmatchpatch.New()
	oldChars, newChars, lineArray := dmp.DiffLinesToChars(withFinalNewline(oldText), withFinalNewline(newText))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(oldChars, newChars, false), lineArray)

	var (
		out     []DiffLine
		deletes []DiffLine
		adds    []DiffLine
	)
	flushBlock := func() {
		out = append(out, deletes...)
		out = append(out, adds...)
		deletes, adds = nil, nil
	}

	for _, d := range diffs {
		for _, text := range splitLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffDelete:
				deletes = append(deletes, DiffLine{Type: LineDelete, Content: text})
			case diffmatchpatch.DiffInsert:
				adds = append(adds, DiffLine{Type: LineAdd, Content: text})
			default:
				flushBlock()
				out = append(out, DiffLine{Type: LineNormal, Content: text})
			}
		}
	}
	flushBlock()

	return out
}

func withFinalNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
