package diff

// Cell is one side of a side-by-side row.
type Cell struct {
	Number  int      `json:"number"`
	Content string   `json:"content"`
	Type    LineType `json:"type"`
	// LineIndex points back into DiffChunk.Lines.
	LineIndex int `json:"lineIndex"`
	// Segments holds intraline word diff for modified rows, if computed.
	Segments []Segment `json:"segments,omitempty"`
}

// Row pairs an old-side and a new-side line for two-column display.
//
// Alignment rules:
//   - Normal lines appear on both sides
//   - Deletions appear on the left with a blank right
//   - Additions appear on the right with a blank left
//   - A delete run immediately followed by an add run is paired index-wise
//
// At least one side is always set.
type Row struct {
	Old *Cell `json:"old,omitempty"`
	New *Cell `json:"new,omitempty"`
}

// IsContext returns true if both sides hold the same unchanged line.
func (r Row) IsContext() bool {
	return r.Old != nil && r.New != nil && r.Old.Type == LineNormal
}

// IsDeletion returns true if only the left side has content.
func (r Row) IsDeletion() bool {
	return r.Old != nil && r.New == nil
}

// IsAddition returns true if only the right side has content.
func (r Row) IsAddition() bool {
	return r.Old == nil && r.New != nil
}

// IsModification returns true if a deleted line is paired with an added one.
func (r Row) IsModification() bool {
	return r.Old != nil && r.New != nil &&
		r.Old.Type == LineDelete && r.New.Type == LineAdd
}

// Align converts a chunk's lines into side-by-side rows.
//
// Line numbers come from counters seeded at the chunk's start positions, not
// from the lines themselves, so a chunk built by hand still gets numbered.
func Align(chunk DiffChunk) []Row {
	if len(chunk.Lines) == 0 {
		return nil
	}

	lines := chunk.Lines
	oldNum := chunk.OldStart
	newNum := chunk.NewStart
	rows := make([]Row, 0, len(lines))

	for i := 0; i < len(lines); {
		switch lines[i].Type {
		case LineDelete:
			deletions := collectConsecutive(lines, i, LineDelete)
			next := i + len(deletions)
			additions := collectConsecutive(lines, next, LineAdd)

			rows = append(rows, pairDeletionsAndAdditions(lines, deletions, additions, oldNum, newNum)...)
			oldNum += len(deletions)
			newNum += len(additions)
			i = next + len(additions)

		case LineAdd:
			rows = append(rows, Row{New: cellAt(lines, i, newNum)})
			newNum++
			i++

		default:
			rows = append(rows, Row{
				Old: cellAt(lines, i, oldNum),
				New: cellAt(lines, i, newNum),
			})
			oldNum++
			newNum++
			i++
		}
	}

	return rows
}

// AlignFile aligns every chunk of a file, one row slice per chunk.
func AlignFile(f FileDiff) [][]Row {
	out := make([][]Row, len(f.Chunks))
	for i, c := range f.Chunks {
		out[i] = Align(c)
	}
	return out
}

func cellAt(lines []DiffLine, idx, number int) *Cell {
	return &Cell{
		Number:    number,
		Content:   lines[idx].Content,
		Type:      lines[idx].Type,
		LineIndex: idx,
	}
}

// collectConsecutive returns indices of consecutive lines of the given type
// starting at startIdx.
func collectConsecutive(lines []DiffLine, startIdx int, lineType LineType) []int {
	var indices []int
	for i := startIdx; i < len(lines) && lines[i].Type == lineType; i++ {
		indices = append(indices, i)
	}
	return indices
}

// pairDeletionsAndAdditions pairs deletions and additions 1:1, then emits the
// longer side's extras unpaired.
func pairDeletionsAndAdditions(lines []DiffLine, deletions, additions []int, oldNum, newNum int) []Row {
	n := max(len(deletions), len(additions))
	rows := make([]Row, 0, n)

	for j := range n {
		var row Row
		if j < len(deletions) {
			row.Old = cellAt(lines, deletions[j], oldNum+j)
		}
		if j < len(additions) {
			row.New = cellAt(lines, additions[j], newNum+j)
		}
		rows = append(rows, row)
	}

	return rows
}
