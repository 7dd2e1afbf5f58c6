// Package highlight colors source lines for terminal display using chroma.
package highlight

import (
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/zjrosen/diffnav/internal/log"
)

// DefaultFormatter emits 256-color ANSI sequences.
const DefaultFormatter = "terminal256"

// Highlighter renders lines with a fixed chroma style. The zero value and a
// Highlighter with an empty style name return input unchanged.
type Highlighter struct {
	style     *chroma.Style
	formatter chroma.Formatter

	mu      sync.Mutex
	lexers  map[string]chroma.Lexer // by filename
	enabled bool
}

// New creates a Highlighter for the named chroma style. Unknown names fall
// back to chroma's default style; "" disables highlighting.
func New(styleName string) *Highlighter {
	h := &Highlighter{lexers: make(map[string]chroma.Lexer)}
	if styleName == "" {
		return h
	}

	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	f := formatters.Get(DefaultFormatter)
	if f == nil {
		f = formatters.Fallback
	}

	h.style = style
	h.formatter = f
	h.enabled = true
	return h
}

// Enabled reports whether lines are colored.
func (h *Highlighter) Enabled() bool {
	return h != nil && h.enabled
}

// Line highlights one line of filename. Errors leave the line unchanged.
func (h *Highlighter) Line(filename, line string) string {
	if !h.Enabled() || line == "" {
		return line
	}
	out, err := h.render(h.lexerFor(filename, line), line)
	if err != nil {
		log.Debug(log.CatUI, "Highlight failed", "file", filename, "error", err)
		return line
	}
	// Lexers append a newline to their input; a rendered row must not wrap.
	return strings.ReplaceAll(out, "\n", "")
}

// Lines highlights each line of filename independently.
func (h *Highlighter) Lines(filename string, lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = h.Line(filename, l)
	}
	return out
}

func (h *Highlighter) lexerFor(filename, sample string) chroma.Lexer {
	h.mu.Lock()
	defer h.mu.Unlock()

	if l, ok := h.lexers[filename]; ok {
		return l
	}
	l := lexers.Match(filename)
	if l == nil {
		l = lexers.Analyse(sample)
	}
	if l == nil {
		l = lexers.Fallback
	}
	l = chroma.Coalesce(l)
	h.lexers[filename] = l
	return l
}

func (h *Highlighter) render(lexer chroma.Lexer, line string) (string, error) {
	it, err := lexer.Tokenise(nil, line)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := h.formatter.Format(&sb, h.style, it); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Highlight colors source using filename to pick the lexer.
func Highlight(filename, source, styleName string) (string, error) {
	h := New(styleName)
	if !h.Enabled() {
		return source, nil
	}
	return h.render(h.lexerFor(filename, source), source)
}
