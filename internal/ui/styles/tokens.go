package styles

// ColorToken represents a named, themeable color.
type ColorToken string

// Color tokens users can override in their config.
const (
	TokenLineAdd     ColorToken = "line.add"
	TokenLineDelete  ColorToken = "line.delete"
	TokenLineContext ColorToken = "line.context"
	TokenLineNumber  ColorToken = "line.number"

	// Intraline word highlights
	TokenWordAdd    ColorToken = "word.add"
	TokenWordDelete ColorToken = "word.delete"

	TokenCursor      ColorToken = "cursor"
	TokenHeader      ColorToken = "header"
	TokenChunkHeader ColorToken = "chunk.header"
	TokenComment     ColorToken = "comment"

	TokenTextMuted     ColorToken = "text.muted"
	TokenStatusError   ColorToken = "status.error"
	TokenStatusWarning ColorToken = "status.warning"
)

// AllTokens returns every token in display order.
func AllTokens() []ColorToken {
	return []ColorToken{
		TokenLineAdd,
		TokenLineDelete,
		TokenLineContext,
		TokenLineNumber,
		TokenWordAdd,
		TokenWordDelete,
		TokenCursor,
		TokenHeader,
		TokenChunkHeader,
		TokenComment,
		TokenTextMuted,
		TokenStatusError,
		TokenStatusWarning,
	}
}
