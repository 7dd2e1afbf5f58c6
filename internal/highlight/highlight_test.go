package highlight

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
)

func TestNew_EmptyStyleDisables(t *testing.T) {
	h := New("")
	require.False(t, h.Enabled())
	require.Equal(t, "func main() {}", h.Line("main.go", "func main() {}"))
}

func TestNilHighlighter(t *testing.T) {
	var h *Highlighter
	require.False(t, h.Enabled())
	require.Equal(t, "x := 1", h.Line("a.go", "x := 1"))
}

func TestLine_AddsColorAndKeepsText(t *testing.T) {
	h := New("monokai")
	require.True(t, h.Enabled())

	out := h.Line("main.go", "func main() {}")
	require.NotEqual(t, "func main() {}", out, "expected ANSI sequences")
	require.Equal(t, "func main() {}", ansi.Strip(out))
	require.NotContains(t, out, "\n")
}

func TestLine_UnknownStyleFallsBack(t *testing.T) {
	h := New("no-such-style")
	require.True(t, h.Enabled())
	require.Equal(t, "package x", ansi.Strip(h.Line("x.go", "package x")))
}

func TestLine_EmptyLine(t *testing.T) {
	require.Equal(t, "", New("monokai").Line("a.go", ""))
}

func TestLines_ReusesLexerPerFile(t *testing.T) {
	h := New("monokai")
	out := h.Lines("a.py", []string{"def f():", "    return 1"})
	require.Len(t, out, 2)
	require.Equal(t, "def f():", ansi.Strip(out[0]))
	require.Equal(t, "    return 1", ansi.Strip(out[1]))
	require.Len(t, h.lexers, 1)
}

func TestHighlight(t *testing.T) {
	out, err := Highlight("a.go", "var x = 1\n", "")
	require.NoError(t, err)
	require.Equal(t, "var x = 1\n", out)

	out, err = Highlight("a.go", "var x = 1\n", "monokai")
	require.NoError(t, err)
	require.Equal(t, "var x = 1", strings.TrimSpace(ansi.Strip(out)))
}
