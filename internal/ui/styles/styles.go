// Package styles contains Lip Gloss style definitions for the diff viewer.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	LineAddColor     = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	LineDeleteColor  = lipgloss.AdaptiveColor{Light: "#D20F39", Dark: "#FF8787"}
	LineContextColor = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BBBBBB"}
	LineNumberColor  = lipgloss.AdaptiveColor{Light: "#9CA0B0", Dark: "#696969"}

	WordAddColor    = lipgloss.AdaptiveColor{Light: "#C6F6D5", Dark: "#1E5631"}
	WordDeleteColor = lipgloss.AdaptiveColor{Light: "#FED7D7", Dark: "#6B1F1F"}

	CursorColor      = lipgloss.AdaptiveColor{Light: "#1E66F5", Dark: "#54A0FF"}
	HeaderColor      = lipgloss.AdaptiveColor{Light: "#8839EF", Dark: "#CBA6F7"}
	ChunkHeaderColor = lipgloss.AdaptiveColor{Light: "#1E66F5", Dark: "#89B4FA"}
	CommentColor     = lipgloss.AdaptiveColor{Light: "#DF8E1D", Dark: "#FECA57"}

	TextMutedColor     = lipgloss.AdaptiveColor{Light: "#9CA0B0", Dark: "#777777"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#D20F39", Dark: "#FF8787"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#DF8E1D", Dark: "#FECA57"}
)

var (
	LineAddStyle     lipgloss.Style
	LineDeleteStyle  lipgloss.Style
	LineContextStyle lipgloss.Style
	LineNumberStyle  lipgloss.Style

	WordAddStyle    lipgloss.Style
	WordDeleteStyle lipgloss.Style

	// CursorGutterStyle draws the cursor marker in the gutter.
	CursorGutterStyle lipgloss.Style
	FileHeaderStyle   lipgloss.Style
	ChunkHeaderStyle  lipgloss.Style
	CommentStyle      lipgloss.Style

	StatusBarStyle lipgloss.Style
	MutedStyle     lipgloss.Style
	ErrorStyle     lipgloss.Style
	WarningStyle   lipgloss.Style
)

func init() {
	rebuildStyles()
}
