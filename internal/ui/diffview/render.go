package diffview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/diffnav/internal/diff"
	"github.com/zjrosen/diffnav/internal/nav"
	"github.com/zjrosen/diffnav/internal/ui/styles"
)

const (
	gutterWidth  = 2 // cursor marker column
	numberWidth  = 5 // line number plus a space
	columnSep    = " │ "
	cursorMarker = "▌ "
	tabWidth     = 4
)

// renderedLine is one screen row. Rows that show diff lines carry the
// element IDs of the cells they display so the cursor gutter can be drawn
// without re-rendering content.
type renderedLine struct {
	left    string
	right   string
	leftID  string
	rightID string
	columns bool // draw right after a separator
}

// rebuild renders every row for the current result and layout.
func (m *Model) rebuild() {
	m.lines = nil
	if m.result == nil || m.width == 0 {
		m.compose()
		return
	}

	comments := m.nav.View().Comments
	for fi, f := range m.result.Files {
		m.lines = append(m.lines, renderedLine{left: fileHeader(f, m.width)})

		switch {
		case f.Failed():
			m.lines = append(m.lines, renderedLine{left: errorText(fmt.Errorf("failed to load: %s", f.LoadError))})
			continue
		case f.Binary:
			m.lines = append(m.lines, renderedLine{left: mutedText("Binary file not shown")})
			continue
		case len(f.Chunks) == 0:
			m.lines = append(m.lines, renderedLine{left: mutedText("No content changes")})
			continue
		}

		for ci, chunk := range f.Chunks {
			m.lines = append(m.lines, renderedLine{left: styles.ChunkHeaderStyle.Render(
				styles.TruncateString(chunkHeader(chunk), m.width-gutterWidth))})

			var rows []diff.Row
			if fi < len(m.aligned) && ci < len(m.aligned[fi]) {
				rows = m.aligned[fi][ci]
			}
			if m.split {
				m.appendSplit(fi, ci, f, rows, comments)
			} else {
				m.appendUnified(fi, ci, f, rows, comments)
			}
		}
	}
	m.compose()
}

func (m *Model) appendUnified(fi, ci int, f diff.FileDiff, rows []diff.Row, comments nav.CommentIndex) {
	segs := segmentsByLine(rows)
	width := m.width - gutterWidth - 2*numberWidth - 1

	for li, line := range f.Chunks[ci].Lines {
		pos := nav.Position{FileIndex: fi, ChunkIndex: ci, LineIndex: li}
		text := lineNumber(line.OldLineNumber) + lineNumber(line.NewLineNumber) +
			m.renderContent(f.Path, line.Type, line.Content, segs[li], width)
		m.lines = append(m.lines, renderedLine{left: text, leftID: nav.ElementID(pos, false)})
		m.appendComments(comments, f.Path, line, nav.SideRight)
	}
}

func (m *Model) appendSplit(fi, ci int, f diff.FileDiff, rows []diff.Row, comments nav.CommentIndex) {
	half := max((m.width-ansi.StringWidth(columnSep))/2-gutterWidth, 1)
	width := half - numberWidth - 1

	for _, row := range rows {
		var rl renderedLine
		rl.columns = true
		if row.Old != nil {
			pos := nav.Position{FileIndex: fi, ChunkIndex: ci, LineIndex: row.Old.LineIndex, Side: nav.SideLeft}
			rl.leftID = nav.ElementID(pos, true)
			rl.left = lineNumber(row.Old.Number) + m.renderContent(f.Path, row.Old.Type, row.Old.Content, row.Old.Segments, width)
		}
		if row.New != nil {
			pos := nav.Position{FileIndex: fi, ChunkIndex: ci, LineIndex: row.New.LineIndex, Side: nav.SideRight}
			rl.rightID = nav.ElementID(pos, true)
			rl.right = lineNumber(row.New.Number) + m.renderContent(f.Path, row.New.Type, row.New.Content, row.New.Segments, width)
		}
		rl.left = padTo(rl.left, half)
		m.lines = append(m.lines, rl)

		lines := f.Chunks[ci].Lines
		if row.New != nil {
			m.appendComments(comments, f.Path, lines[row.New.LineIndex], nav.SideRight)
		} else if row.Old != nil {
			m.appendComments(comments, f.Path, lines[row.Old.LineIndex], nav.SideLeft)
		}
	}
}

func (m *Model) appendComments(comments nav.CommentIndex, path string, line diff.DiffLine, side nav.Side) {
	n := line.NewLineNumber
	if side == nav.SideLeft || !line.HasNew() {
		n = line.OldLineNumber
	}
	if n == 0 {
		return
	}
	for _, c := range comments.Lookup(path, n) {
		text := fmt.Sprintf("%s %s", styles.FormatCommentIndicator(1), c.Body)
		m.lines = append(m.lines, renderedLine{left: styles.CommentStyle.Render(
			styles.TruncateString(text, m.width-gutterWidth))})
	}
}

// renderContent colors a line's sign and text and fits it to width cells.
func (m *Model) renderContent(path string, t diff.LineType, content string, segs []diff.Segment, width int) string {
	content = expandTabs(content)

	sign, style := " ", styles.LineContextStyle
	switch t {
	case diff.LineAdd:
		sign, style = "+", styles.LineAddStyle
	case diff.LineDelete:
		sign, style = "-", styles.LineDeleteStyle
	}

	var body string
	switch {
	case len(segs) > 0:
		var sb strings.Builder
		for _, s := range segs {
			text := expandTabs(s.Text)
			switch s.Type {
			case diff.SegmentAdded:
				sb.WriteString(styles.WordAddStyle.Render(text))
			case diff.SegmentDeleted:
				sb.WriteString(styles.WordDeleteStyle.Render(text))
			default:
				sb.WriteString(style.Render(text))
			}
		}
		body = sb.String()
	case m.highlighter.Enabled():
		body = m.highlighter.Line(path, content)
	default:
		body = style.Render(content)
	}

	return style.Render(sign) + styles.TruncateString(body, max(width, 1))
}

// segmentsByLine indexes intraline segments by chunk line index.
func segmentsByLine(rows []diff.Row) map[int][]diff.Segment {
	out := make(map[int][]diff.Segment)
	for _, r := range rows {
		if r.Old != nil && len(r.Old.Segments) > 0 {
			out[r.Old.LineIndex] = r.Old.Segments
		}
		if r.New != nil && len(r.New.Segments) > 0 {
			out[r.New.LineIndex] = r.New.Segments
		}
	}
	return out
}

// compose draws the cursor gutter and hands the rows to the viewport.
func (m *Model) compose() {
	id := m.nav.ElementID()
	m.cursorRow = -1

	var sb strings.Builder
	for i, l := range m.lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(gutter(id != "" && l.leftID == id))
		sb.WriteString(l.left)
		if l.columns {
			sb.WriteString(styles.MutedStyle.Render(columnSep))
			sb.WriteString(gutter(id != "" && l.rightID == id))
			sb.WriteString(l.right)
		}
		if id != "" && (l.leftID == id || l.rightID == id) {
			m.cursorRow = i
		}
	}
	m.viewport.SetContent(sb.String())
	m.scrollToCursor()
}

// scrollToCursor keeps the cursor row inside the viewport.
func (m *Model) scrollToCursor() {
	if m.cursorRow < 0 || m.viewport.Height <= 0 {
		return
	}
	top := m.viewport.YOffset
	switch {
	case m.cursorRow < top:
		m.viewport.SetYOffset(m.cursorRow)
	case m.cursorRow >= top+m.viewport.Height:
		m.viewport.SetYOffset(m.cursorRow - m.viewport.Height + 1)
	}
}

func gutter(active bool) string {
	if active {
		return styles.CursorGutterStyle.Render(cursorMarker)
	}
	return strings.Repeat(" ", gutterWidth)
}

func fileHeader(f diff.FileDiff, width int) string {
	name := f.Path
	if f.Status == diff.StatusRenamed && f.OldPath != "" {
		name = f.OldPath + " → " + f.Path
	}
	text := fmt.Sprintf("%s (%s) +%d -%d", name, f.Status, f.Additions, f.Deletions)
	return styles.FileHeaderStyle.Render(styles.TruncateString(text, width-gutterWidth))
}

func chunkHeader(c diff.DiffChunk) string {
	if c.Header != "" {
		return c.Header
	}
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", c.OldStart, c.OldLines, c.NewStart, c.NewLines)
}

func lineNumber(n int) string {
	if n <= 0 {
		return styles.LineNumberStyle.Render(strings.Repeat(" ", numberWidth))
	}
	return styles.LineNumberStyle.Render(fmt.Sprintf("%4d ", n))
}

// padTo pads a rendered string with spaces to width cells.
func padTo(s string, width int) string {
	w := ansi.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

func errorText(err error) string {
	return styles.ErrorStyle.Render("Error: " + err.Error())
}

func mutedText(s string) string {
	return styles.MutedStyle.Render(s)
}

func statusText(s string, width int) string {
	// StatusBarStyle pads one cell on each side.
	return styles.StatusBarStyle.Render(styles.PadRight(ansi.Strip(s), max(width-2, 0)))
}
