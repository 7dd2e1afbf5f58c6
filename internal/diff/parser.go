package diff

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	hunkHeaderRegex  = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@(.*)$`)
	binaryFilesRegex = regexp.MustCompile(`^Binary files .+ and .+ differ$`)
)

// binarySniffLen matches git's heuristic: a NUL in the first 8000 bytes.
const binarySniffLen = 8000

// Change is one entry of a changed-path listing.
type Change struct {
	Status  FileStatus
	Path    string
	OldPath string
}

// ParseUnified parses one file's unified diff text into chunks.
//
// Hunk headers open a chunk and reset the line counters to start-1. Lines
// before the first header (diff/index/---/+++ headers) are discarded, and a
// chunk stops accepting lines once its declared old and new lengths are
// consumed, so anything trailing it is discarded too.
func ParseUnified(raw string) ([]DiffChunk, error) {
	chunks, _, err := parseChunks(raw)
	return chunks, err
}

// BuildFile parses raw diff text for a listed change into a FileDiff.
func BuildFile(change Change, raw string) (FileDiff, error) {
	chunks, binary, err := parseChunks(raw)
	if err != nil {
		return FileDiff{}, fmt.Errorf("parsing diff for %s: %w", change.Path, err)
	}

	f := FileDiff{
		Path:   change.Path,
		Status: change.Status,
		Chunks: chunks,
		Binary: binary,
	}
	if change.Status == StatusRenamed {
		f.OldPath = change.OldPath
	}
	if f.Status == "" {
		f.Status = StatusModified
	}
	f.Additions, f.Deletions = countChanges(chunks)
	return f, nil
}

func countChanges(chunks []DiffChunk) (additions, deletions int) {
	for _, c := range chunks {
		for _, l := range c.Lines {
			switch l.Type {
			case LineAdd:
				additions++
			case LineDelete:
				deletions++
			}
		}
	}
	return additions, deletions
}

func parseChunks(raw string) ([]DiffChunk, bool, error) {
	if raw == "" {
		return nil, false, nil
	}

	var (
		chunks     []DiffChunk
		current    *DiffChunk
		binary     bool
		oldLineNum int
		newLineNum int
		oldLeft    int
		newLeft    int
	)

	flush := func() {
		if current != nil {
			chunks = append(chunks, *current)
			current = nil
		}
	}

	raw = strings.TrimSuffix(raw, "\n")
	for _, line := range strings.Split(raw, "\n") {
		if matches := hunkHeaderRegex.FindStringSubmatch(line); matches != nil {
			flush()

			oldStart, oldCount, err := parseRange(matches[1], matches[2])
			if err != nil {
				return nil, false, fmt.Errorf("invalid old range in hunk header %q: %w", line, err)
			}
			newStart, newCount, err := parseRange(matches[3], matches[4])
			if err != nil {
				return nil, false, fmt.Errorf("invalid new range in hunk header %q: %w", line, err)
			}

			current = &DiffChunk{
				Header:   line,
				OldStart: oldStart,
				OldLines: oldCount,
				NewStart: newStart,
				NewLines: newCount,
				Lines:    []DiffLine{},
			}
			oldLineNum = oldStart - 1
			newLineNum = newStart - 1
			oldLeft = oldCount
			newLeft = newCount
			continue
		}

		if current == nil {
			if binaryFilesRegex.MatchString(line) {
				binary = true
			}
			continue
		}

		// "\ No newline at end of file" annotates the previous line
		if strings.HasPrefix(line, `\`) {
			continue
		}

		var prefix byte
		if len(line) > 0 {
			prefix = line[0]
		}

		switch {
		case prefix == '+' && newLeft > 0:
			newLineNum++
			newLeft--
			current.Lines = append(current.Lines, DiffLine{
				Type:          LineAdd,
				Content:       line[1:],
				NewLineNumber: newLineNum,
			})
		case prefix == '-' && oldLeft > 0:
			oldLineNum++
			oldLeft--
			current.Lines = append(current.Lines, DiffLine{
				Type:          LineDelete,
				Content:       line[1:],
				OldLineNumber: oldLineNum,
			})
		case prefix != '+' && prefix != '-' && oldLeft > 0 && newLeft > 0:
			content := line
			if prefix == ' ' {
				content = line[1:]
			}
			oldLineNum++
			newLineNum++
			oldLeft--
			newLeft--
			current.Lines = append(current.Lines, DiffLine{
				Type:          LineNormal,
				Content:       content,
				OldLineNumber: oldLineNum,
				NewLineNumber: newLineNum,
			})
		default:
			// Line does not fit the declared ranges: the chunk is over.
			flush()
			continue
		}

		if oldLeft == 0 && newLeft == 0 {
			flush()
		}
	}
	flush()

	return chunks, binary, nil
}

// parseRange parses the "start[,len]" halves of a hunk header. An omitted
// length means 1.
func parseRange(startStr, lenStr string) (int, int, error) {
	start, err := strconv.Atoi(startStr)
	if err != nil {
		return 0, 0, err
	}
	count := 1
	if lenStr != "" {
		count, err = strconv.Atoi(lenStr)
		if err != nil {
			return 0, 0, err
		}
	}
	return start, count, nil
}

// ParseNameStatus parses `git diff --name-status -z` output.
//
// Records are NUL separated: a status token followed by one path, or two
// paths (old, new) for renames and copies.
func ParseNameStatus(out string) ([]Change, error) {
	tokens := strings.Split(out, "\x00")
	var changes []Change

	for i := 0; i < len(tokens); i++ {
		code := strings.TrimSpace(tokens[i])
		if code == "" {
			continue
		}

		switch code[0] {
		case 'R', 'C':
			if i+2 >= len(tokens) {
				return nil, fmt.Errorf("truncated name-status record %q", code)
			}
			oldPath, newPath := tokens[i+1], tokens[i+2]
			i += 2
			if code[0] == 'C' {
				changes = append(changes, Change{Status: StatusAdded, Path: newPath})
				continue
			}
			changes = append(changes, Change{Status: StatusRenamed, Path: newPath, OldPath: oldPath})
		case 'A', 'D', 'M', 'T', 'U', 'X':
			if i+1 >= len(tokens) {
				return nil, fmt.Errorf("truncated name-status record %q", code)
			}
			path := tokens[i+1]
			i++
			changes = append(changes, Change{Status: statusFromCode(code[0]), Path: path})
		default:
			return nil, fmt.Errorf("unknown name-status code %q", code)
		}
	}

	return changes, nil
}

func statusFromCode(c byte) FileStatus {
	switch c {
	case 'A':
		return StatusAdded
	case 'D':
		return StatusDeleted
	default:
		return StatusModified
	}
}

// SynthesizeAddition builds a FileDiff in which every line of content is an
// addition, as for a file that has no old side.
func SynthesizeAddition(path string, content []byte) FileDiff {
	f := FileDiff{Path: path, Status: StatusAdded}

	if bytes.IndexByte(content[:min(len(content), binarySniffLen)], 0) >= 0 {
		f.Binary = true
		return f
	}
	if len(content) == 0 {
		return f
	}

	text := strings.TrimSuffix(string(content), "\n")
	rawLines := strings.Split(text, "\n")
	lines := make([]DiffLine, len(rawLines))
	for i, l := range rawLines {
		lines[i] = DiffLine{Type: LineAdd, Content: l, NewLineNumber: i + 1}
	}

	f.Chunks = []DiffChunk{{
		Header:   fmt.Sprintf("@@ -0,0 +1,%d @@", len(lines)),
		OldStart: 0,
		OldLines: 0,
		NewStart: 1,
		NewLines: len(lines),
		Lines:    lines,
	}}
	f.Additions = len(lines)
	return f
}
