// Package diff models unified diffs as files, chunks and typed lines, and
// derives side-by-side rows from them.
//
// Everything in this package is pure: values are built fresh from their
// inputs and never mutated afterwards, so they can be shared across
// goroutines without locking.
package diff

// LineType classifies a line inside a chunk.
type LineType string

const (
	LineNormal LineType = "normal" // ' ' prefix - present on both sides
	LineAdd    LineType = "add"    // '+' prefix - new side only
	LineDelete LineType = "delete" // '-' prefix - old side only
)

// FileStatus is the change kind of a whole file.
type FileStatus string

const (
	StatusAdded    FileStatus = "added"
	StatusDeleted  FileStatus = "deleted"
	StatusModified FileStatus = "modified"
	StatusRenamed  FileStatus = "renamed"
)

// DiffLine is one line of a chunk. Line numbers are 1-based; a zero value
// means the line does not exist on that side (adds have no old number,
// deletes have no new number).
type DiffLine struct {
	Type          LineType `json:"type"`
	Content       string   `json:"content"`
	OldLineNumber int      `json:"oldLineNumber,omitempty"`
	NewLineNumber int      `json:"newLineNumber,omitempty"`
}

// HasOld reports whether the line exists in the old file.
func (l DiffLine) HasOld() bool { return l.Type != LineAdd }

// HasNew reports whether the line exists in the new file.
func (l DiffLine) HasNew() bool { return l.Type != LineDelete }

// DiffChunk is one hunk: a contiguous region with its own line ranges.
type DiffChunk struct {
	Header   string     `json:"header"`
	OldStart int        `json:"oldStart"`
	OldLines int        `json:"oldLines"`
	NewStart int        `json:"newStart"`
	NewLines int        `json:"newLines"`
	Lines    []DiffLine `json:"lines"`
}

// Counts returns the number of lines present on the old and new side.
func (c DiffChunk) Counts() (oldCount, newCount int) {
	for _, l := range c.Lines {
		if l.HasOld() {
			oldCount++
		}
		if l.HasNew() {
			newCount++
		}
	}
	return oldCount, newCount
}

// FileDiff is everything known about one changed path.
type FileDiff struct {
	Path      string      `json:"path"`
	OldPath   string      `json:"oldPath,omitempty"` // set for renames
	Status    FileStatus  `json:"status"`
	Additions int         `json:"additions"`
	Deletions int         `json:"deletions"`
	Chunks    []DiffChunk `json:"chunks"`
	Binary    bool        `json:"binary,omitempty"`
	// LoadError is set when this file's diff could not be retrieved.
	// The file is kept in the listing with no chunks.
	LoadError string `json:"loadError,omitempty"`
}

// Failed reports whether retrieval of this file failed.
func (f FileDiff) Failed() bool { return f.LoadError != "" }

// Stats summarizes a set of files.
type Stats struct {
	Files     int `json:"files"`
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

// ComputeStats totals additions and deletions across files.
func ComputeStats(files []FileDiff) Stats {
	s := Stats{Files: len(files)}
	for _, f := range files {
		s.Additions += f.Additions
		s.Deletions += f.Deletions
	}
	return s
}

// ViewMode is how a front end lays out a diff.
type ViewMode string

const (
	ViewUnified ViewMode = "unified"
	ViewSplit   ViewMode = "split"
)

// Valid reports whether m is a known view mode.
func (m ViewMode) Valid() bool {
	return m == ViewUnified || m == ViewSplit
}

// Result is the full diff handed to front ends.
type Result struct {
	Files            []FileDiff `json:"files"`
	Stats            Stats      `json:"stats"`
	IsEmpty          bool       `json:"isEmpty"`
	IgnoreWhitespace bool       `json:"ignoreWhitespace"`
	ViewMode         ViewMode   `json:"mode"`
	DiffMode         string     `json:"diffMode"`
	Target           string     `json:"target"`
	Base             string     `json:"base"`
}

// NewResult assembles a Result, computing stats and emptiness.
func NewResult(files []FileDiff) *Result {
	return &Result{
		Files:   files,
		Stats:   ComputeStats(files),
		IsEmpty: len(files) == 0,
	}
}
