package notebook

import (
	"github.com/zjrosen/diffnav/internal/diff"
	"github.com/zjrosen/diffnav/internal/log"
)

// CellStatus is the change kind of one cell.
type CellStatus string

const (
	CellAdded     CellStatus = "added"
	CellDeleted   CellStatus = "deleted"
	CellModified  CellStatus = "modified"
	CellUnchanged CellStatus = "unchanged"
)

// OutputChange is the status of one output position of a modified cell.
type OutputChange struct {
	Index  int        `json:"index"`
	Status CellStatus `json:"status"`
	Kind   string     `json:"kind"`
}

// CellDiff describes one cell position.
type CellDiff struct {
	CellIndex             int              `json:"cellIndex"`
	OldCellIndex          *int             `json:"oldCellIndex,omitempty"`
	Status                CellStatus       `json:"status"`
	OldCell               *Cell            `json:"oldCell,omitempty"`
	NewCell               *Cell            `json:"newCell,omitempty"`
	SourceChanges         []diff.DiffChunk `json:"sourceChanges,omitempty"`
	OutputChanges         []OutputChange   `json:"outputChanges,omitempty"`
	OutputDiffChunks      []diff.DiffChunk `json:"outputDiffChunks,omitempty"`
	MetadataChanged       bool             `json:"metadataChanged"`
	ExecutionCountChanged bool             `json:"executionCountChanged"`
}

// Result is the notebook diff handed to front ends.
type Result struct {
	Path               string          `json:"path"`
	Status             diff.FileStatus `json:"status"`
	CellDiffs          []CellDiff      `json:"cellDiffs"`
	MetadataChanged    bool            `json:"metadataChanged"`
	TotalCellsAdded    int             `json:"totalCellsAdded"`
	TotalCellsDeleted  int             `json:"totalCellsDeleted"`
	TotalCellsModified int             `json:"totalCellsModified"`
}

type options struct {
	contextLines int
}

// Option configures Diff.
type Option func(*options)

// WithContextLines sets the context used for source and output sub-diffs.
func WithContextLines(n int) Option {
	return func(o *options) { o.contextLines = n }
}

// Diff compares two notebooks cell by cell. Either side may be nil, which
// covers a notebook that was added or deleted (or failed to parse).
//
// Cells are compared by position: a cell inserted mid-notebook shows up as
// every following cell being modified.
func Diff(path string, status diff.FileStatus, oldNB, newNB *Notebook, opts ...Option) Result {
	o := options{contextLines: diff.DefaultContextLines}
	for _, opt := range opts {
		opt(&o)
	}

	var oldCells, newCells []Cell
	if oldNB != nil {
		oldCells = oldNB.Cells
	}
	if newNB != nil {
		newCells = newNB.Cells
	}

	if status == "" {
		status = inferStatus(oldNB, newNB)
	}

	r := Result{
		Path:      path,
		Status:    status,
		CellDiffs: make([]CellDiff, 0, max(len(oldCells), len(newCells))),
	}
	if oldNB != nil && newNB != nil {
		r.MetadataChanged = canonicalJSON(oldNB.Metadata) != canonicalJSON(newNB.Metadata)
	}

	for i := range max(len(oldCells), len(newCells)) {
		var oldCell, newCell *Cell
		if i < len(oldCells) {
			oldCell = &oldCells[i]
		}
		if i < len(newCells) {
			newCell = &newCells[i]
		}

		cd := diffCell(i, oldCell, newCell, o.contextLines)
		switch cd.Status {
		case CellAdded:
			r.TotalCellsAdded++
		case CellDeleted:
			r.TotalCellsDeleted++
		case CellModified:
			r.TotalCellsModified++
		}
		r.CellDiffs = append(r.CellDiffs, cd)
	}

	log.Debug(log.CatNotebook, "Notebook diffed",
		"path", path,
		"cells", len(r.CellDiffs),
		"added", r.TotalCellsAdded,
		"deleted", r.TotalCellsDeleted,
		"modified", r.TotalCellsModified)

	return r
}

func inferStatus(oldNB, newNB *Notebook) diff.FileStatus {
	switch {
	case oldNB == nil && newNB != nil:
		return diff.StatusAdded
	case oldNB != nil && newNB == nil:
		return diff.StatusDeleted
	default:
		return diff.StatusModified
	}
}

func diffCell(i int, oldCell, newCell *Cell, contextLines int) CellDiff {
	cd := CellDiff{CellIndex: i, OldCell: oldCell, NewCell: newCell}
	if oldCell != nil {
		idx := i
		cd.OldCellIndex = &idx
	}

	switch {
	case oldCell == nil:
		cd.Status = CellAdded
		cd.SourceChanges = diff.Compare("", string(newCell.Source), contextLines)
		cd.OutputDiffChunks = diff.Compare("", renderOutputs(newCell.Outputs), contextLines)
		return cd
	case newCell == nil:
		cd.Status = CellDeleted
		cd.SourceChanges = diff.Compare(string(oldCell.Source), "", contextLines)
		cd.OutputDiffChunks = diff.Compare(renderOutputs(oldCell.Outputs), "", contextLines)
		return cd
	}

	sourceChanged := oldCell.Source != newCell.Source
	outputsChanged := !outputsEqual(oldCell.Outputs, newCell.Outputs)
	cd.MetadataChanged = canonicalJSON(oldCell.Metadata) != canonicalJSON(newCell.Metadata)
	cd.ExecutionCountChanged = !intPtrEqual(oldCell.ExecutionCount, newCell.ExecutionCount)

	if !sourceChanged && !outputsChanged && !cd.MetadataChanged && !cd.ExecutionCountChanged {
		cd.Status = CellUnchanged
		return cd
	}

	cd.Status = CellModified
	if sourceChanged {
		cd.SourceChanges = diff.Compare(string(oldCell.Source), string(newCell.Source), contextLines)
	}
	if outputsChanged {
		cd.OutputChanges = compareOutputs(oldCell.Outputs, newCell.Outputs)
		cd.OutputDiffChunks = diff.Compare(renderOutputs(oldCell.Outputs), renderOutputs(newCell.Outputs), contextLines)
	}
	return cd
}

func outputsEqual(a, b []Output) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if canonicalJSON(a[i].Raw) != canonicalJSON(b[i].Raw) {
			return false
		}
	}
	return true
}

func compareOutputs(oldOuts, newOuts []Output) []OutputChange {
	changes := make([]OutputChange, 0, max(len(oldOuts), len(newOuts)))
	for i := range max(len(oldOuts), len(newOuts)) {
		c := OutputChange{Index: i}
		switch {
		case i >= len(oldOuts):
			c.Status = CellAdded
			c.Kind = newOuts[i].Kind.String()
		case i >= len(newOuts):
			c.Status = CellDeleted
			c.Kind = oldOuts[i].Kind.String()
		case canonicalJSON(oldOuts[i].Raw) != canonicalJSON(newOuts[i].Raw):
			c.Status = CellModified
			c.Kind = newOuts[i].Kind.String()
		default:
			c.Status = CellUnchanged
			c.Kind = newOuts[i].Kind.String()
		}
		changes = append(changes, c)
	}
	return changes
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
