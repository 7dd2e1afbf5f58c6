package diff

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Intraline diff bounds.
const (
	// IntralineMaxLineLength skips word diff for lines exceeding this length.
	IntralineMaxLineLength = 500
	// IntralineMaxPairs limits word diff to the first N modified rows per chunk.
	IntralineMaxPairs = 100
	// IntralineTimeout is the maximum time spent on word diff per file.
	IntralineTimeout = 50 * time.Millisecond
)

// SegmentType says whether a piece of a line changed.
type SegmentType string

const (
	SegmentUnchanged SegmentType = "unchanged"
	SegmentAdded     SegmentType = "added"
	SegmentDeleted   SegmentType = "deleted"
)

// Segment is a run of text within one line.
type Segment struct {
	Type SegmentType `json:"type"`
	Text string      `json:"text"`
}

// tokenize splits a line into words, punctuation and single whitespace runes.
// Example: "foo.bar()" → ["foo", ".", "bar", "(", ")"]
func tokenize(line string) []string {
	if line == "" {
		return nil
	}

	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range line {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			flush()
			tokens = append(tokens, string(r))
			continue
		}
		current.WriteRune(r)
	}
	flush()

	return tokens
}

// WordDiff computes segments for an old and a new version of a line.
func WordDiff(oldLine, newLine string) (oldSegs, newSegs []Segment) {
	if oldLine == "" && newLine == "" {
		return nil, nil
	}
	if oldLine == "" {
		return nil, []Segment{{Type: SegmentAdded, Text: newLine}}
	}
	if newLine == "" {
		return []Segment{{Type: SegmentDeleted, Text: oldLine}}, nil
	}

	dmp := diffmatchpatch.New()

	// Diff at token granularity: map each token to a rune, diff the rune
	// strings, then expand back.
	oldChars, newChars, tokenArray := tokensToChars(tokenize(oldLine), tokenize(newLine))
	diffs := dmp.DiffMain(oldChars, newChars, false)
	diffs = charsToTokens(diffs, tokenArray)
	diffs = dmp.DiffCleanupSemantic(diffs)

	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			oldSegs = append(oldSegs, Segment{Type: SegmentUnchanged, Text: d.Text})
			newSegs = append(newSegs, Segment{Type: SegmentUnchanged, Text: d.Text})
		case diffmatchpatch.DiffDelete:
			oldSegs = append(oldSegs, Segment{Type: SegmentDeleted, Text: d.Text})
		case diffmatchpatch.DiffInsert:
			newSegs = append(newSegs, Segment{Type: SegmentAdded, Text: d.Text})
		}
	}

	return oldSegs, newSegs
}

func tokensToChars(oldTokens, newTokens []string) (string, string, []string) {
	index := map[string]rune{}
	var array []string

	encode := func(tokens []string) string {
		var b strings.Builder
		for _, t := range tokens {
			r, ok := index[t]
			if !ok {
				// Skip the surrogate range so every token maps to a valid rune.
				r = rune(len(array) + 1)
				if r >= 0xD800 {
					r += 0x800
				}
				index[t] = r
				array = append(array, t)
			}
			b.WriteRune(r)
		}
		return b.String()
	}

	return encode(oldTokens), encode(newTokens), array
}

func charsToTokens(diffs []diffmatchpatch.Diff, array []string) []diffmatchpatch.Diff {
	out := make([]diffmatchpatch.Diff, 0, len(diffs))
	for _, d := range diffs {
		var b strings.Builder
		for _, r := range d.Text {
			idx := int(r) - 1
			if r >= 0xD800+0x800 {
				idx -= 0x800
			}
			if idx >= 0 && idx < len(array) {
				b.WriteString(array[idx])
			}
		}
		out = append(out, diffmatchpatch.Diff{Type: d.Type, Text: b.String()})
	}
	return out
}

// WithIntraline returns a copy of rows where modified rows carry word
// segments. Work stops early when ctx is done; remaining rows are left plain.
func WithIntraline(ctx context.Context, rows []Row) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)

	pairs := 0
	for i, r := range out {
		if !r.IsModification() {
			continue
		}
		if pairs >= IntralineMaxPairs {
			break
		}
		pairs++

		select {
		case <-ctx.Done():
			return out
		default:
		}

		if len(r.Old.Content) > IntralineMaxLineLength || len(r.New.Content) > IntralineMaxLineLength {
			continue
		}

		oldCell, newCell := *r.Old, *r.New
		oldCell.Segments, newCell.Segments = WordDiff(oldCell.Content, newCell.Content)
		out[i] = Row{Old: &oldCell, New: &newCell}
	}

	return out
}

// AlignFileIntraline aligns a file and computes word diff for its modified
// rows within IntralineTimeout.
func AlignFileIntraline(f FileDiff) [][]Row {
	aligned := AlignFile(f)

	ctx, cancel := context.WithTimeout(context.Background(), IntralineTimeout)
	defer cancel()

	for i, rows := range aligned {
		if ctx.Err() != nil {
			break
		}
		aligned[i] = WithIntraline(ctx, rows)
	}
	return aligned
}
