package diff

import (
	"bytes"
	"fmt"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

const devNull = "/dev/null"

// FormatPatch renders a FileDiff back into git-style unified diff text.
func FormatPatch(f FileDiff) (string, error) {
	oldPath := f.Path
	if f.OldPath != "" {
		oldPath = f.OldPath
	}

	fd := &godiff.FileDiff{
		OrigName: "a/" + oldPath,
		NewName:  "b/" + f.Path,
		Extended: []string{fmt.Sprintf("diff --git a/%s b/%s", oldPath, f.Path)},
	}

	switch f.Status {
	case StatusAdded:
		fd.OrigName = devNull
		fd.Extended = append(fd.Extended, "new file mode 100644")
	case StatusDeleted:
		fd.NewName = devNull
		fd.Extended = append(fd.Extended, "deleted file mode 100644")
	case StatusRenamed:
		fd.Extended = append(fd.Extended, "rename from "+oldPath, "rename to "+f.Path)
	}

	if f.Binary {
		fd.Extended = append(fd.Extended, fmt.Sprintf("Binary files %s and %s differ", fd.OrigName, fd.NewName))
	}

	for _, c := range f.Chunks {
		fd.Hunks = append(fd.Hunks, toHunk(c))
	}

	out, err := godiff.PrintFileDiff(fd)
	if err != nil {
		return "", fmt.Errorf("printing patch for %s: %w", f.Path, err)
	}
	return string(out), nil
}

// FormatPatches renders several files as one multi-file patch.
func FormatPatches(files []FileDiff) (string, error) {
	var b strings.Builder
	for _, f := range files {
		if f.Failed() {
			continue
		}
		p, err := FormatPatch(f)
		if err != nil {
			return "", err
		}
		b.WriteString(p)
	}
	return b.String(), nil
}

func toHunk(c DiffChunk) *godiff.Hunk {
	var body bytes.Buffer
	for _, l := range c.Lines {
		switch l.Type {
		case LineAdd:
			body.WriteByte('+')
		case LineDelete:
			body.WriteByte('-')
		default:
			body.WriteByte(' ')
		}
		body.WriteString(l.Content)
		body.WriteByte('\n')
	}

	var section string
	if m := hunkHeaderRegex.FindStringSubmatch(c.Header); m != nil {
		section = strings.TrimPrefix(m[5], " ")
	}

	return &godiff.Hunk{
		OrigStartLine: int32(c.OldStart),
		OrigLines:     int32(c.OldLines),
		NewStartLine:  int32(c.NewStart),
		NewLines:      int32(c.NewLines),
		Section:       section,
		Body:          body.Bytes(),
	}
}

// ParsePatch reads a multi-file unified diff (for example a saved
// `git diff` output) into FileDiffs.
func ParsePatch(patch string) ([]FileDiff, error) {
	fds, err := godiff.NewMultiFileDiffReader(strings.NewReader(patch)).ReadAllFiles()
	if err != nil {
		return nil, fmt.Errorf("reading patch: %w", err)
	}

	files := make([]FileDiff, 0, len(fds))
	for _, fd := range fds {
		change := changeFromHeaders(fd)

		var raw strings.Builder
		for _, h := range fd.Hunks {
			raw.WriteString(hunkHeader(h))
			raw.WriteByte('\n')
			raw.Write(h.Body)
			if !bytes.HasSuffix(h.Body, []byte{'\n'}) {
				raw.WriteByte('\n')
			}
		}
		for _, x := range fd.Extended {
			if binaryFilesRegex.MatchString(x) {
				raw.WriteString(x)
				raw.WriteByte('\n')
			}
		}

		f, err := BuildFile(change, raw.String())
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func hunkHeader(h *godiff.Hunk) string {
	header := fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OrigStartLine, h.OrigLines, h.NewStartLine, h.NewLines)
	if h.Section != "" {
		header += " " + h.Section
	}
	return header
}

func changeFromHeaders(fd *godiff.FileDiff) Change {
	oldName := strings.TrimPrefix(fd.OrigName, "a/")
	newName := strings.TrimPrefix(fd.NewName, "b/")

	var renameFrom, renameTo string
	status := StatusModified
	for _, x := range fd.Extended {
		switch {
		case strings.HasPrefix(x, "diff --git "):
			if a, b, ok := strings.Cut(strings.TrimPrefix(x, "diff --git "), " b/"); ok {
				if oldName == "" {
					oldName = strings.TrimPrefix(a, "a/")
				}
				if newName == "" {
					newName = b
				}
			}
		case strings.HasPrefix(x, "new file mode"):
			status = StatusAdded
		case strings.HasPrefix(x, "deleted file mode"):
			status = StatusDeleted
		case strings.HasPrefix(x, "rename from "):
			renameFrom = strings.TrimPrefix(x, "rename from ")
		case strings.HasPrefix(x, "rename to "):
			renameTo = strings.TrimPrefix(x, "rename to ")
		}
	}

	switch {
	case fd.OrigName == devNull:
		status = StatusAdded
	case fd.NewName == devNull:
		status = StatusDeleted
	}

	if renameFrom != "" && renameTo != "" {
		return Change{Status: StatusRenamed, Path: renameTo, OldPath: renameFrom}
	}
	if status == StatusDeleted {
		return Change{Status: status, Path: oldName}
	}
	return Change{Status: status, Path: newName}
}
