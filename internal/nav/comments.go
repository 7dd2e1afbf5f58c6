package nav

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// LineRef is a comment anchor: a single line (Start == End) or a range.
type LineRef struct {
	Start int
	End   int
}

// SingleLine anchors a comment to one line.
func SingleLine(n int) LineRef { return LineRef{Start: n, End: n} }

// UnmarshalJSON accepts 12 or [10, 12].
func (r *LineRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var pair []int
		if err := json.Unmarshal(data, &pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("line range must have 2 elements, got %d", len(pair))
		}
		*r = LineRef{Start: pair[0], End: pair[1]}
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*r = SingleLine(n)
	return nil
}

// MarshalJSON writes a number for single lines and a pair for ranges.
func (r LineRef) MarshalJSON() ([]byte, error) {
	if r.Start == r.End {
		return json.Marshal(r.End)
	}
	return json.Marshal([2]int{r.Start, r.End})
}

// Comment is a review comment anchored to a file line.
type Comment struct {
	File string  `json:"file"`
	Line LineRef `json:"line"`
	Body string  `json:"body"`
}

// CommentIndex looks comments up by file and line. Range comments are
// indexed on their last line, where they are displayed.
type CommentIndex map[string][]Comment

// CommentKey is the lookup key of a file line.
func CommentKey(path string, line int) string {
	return fmt.Sprintf("%s:%d", path, line)
}

// NewCommentIndex indexes comments.
func NewCommentIndex(comments []Comment) CommentIndex {
	idx := make(CommentIndex, len(comments))
	for _, c := range comments {
		key := CommentKey(c.File, c.Line.End)
		idx[key] = append(idx[key], c)
	}
	return idx
}

// Has reports whether any comment is anchored at path:line.
func (ci CommentIndex) Has(path string, line int) bool {
	return len(ci[CommentKey(path, line)]) > 0
}

// Lookup returns the comments anchored at path:line.
func (ci CommentIndex) Lookup(path string, line int) []Comment {
	return ci[CommentKey(path, line)]
}
