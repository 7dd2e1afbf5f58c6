package styles

import (
	"fmt"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// TruncateString truncates s to fit within maxWidth cells, adding an
// ellipsis if needed. ANSI sequences in s are preserved.
func TruncateString(s string, maxWidth int) string {
	if maxWidth < 1 {
		return ""
	}
	if ansi.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return ansi.Truncate(s, maxWidth, "")
	}
	return ansi.Truncate(s, maxWidth, "...")
}

// PadRight pads plain text with spaces to width cells. Wide runes count
// as two cells.
func PadRight(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, ""), width)
}

// FormatCommentIndicator returns the comment indicator string.
// Returns empty string when count is 0.
func FormatCommentIndicator(count int) string {
	if count <= 0 {
		return ""
	}
	return fmt.Sprintf("%d\U0001F4AC", count) // 💬
}
