package render

import (
	"testing"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainRendererPassesThrough(t *testing.T) {
	r := New(true)

	input := "# Heading\n\nSome **bold** text"
	assert.Equal(t, input, r.Markdown(input))
}

func TestEmptyContentPassesThrough(t *testing.T) {
	r := New(true)
	assert.Equal(t, "  ", r.Markdown("  "))
}

// styledRenderer builds a renderer with a fixed style so the test does
// not depend on the terminal it runs in.
func styledRenderer(t *testing.T) *Renderer {
	t.Helper()
	term, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(100),
	)
	require.NoError(t, err)
	return &Renderer{term: term}
}

func TestMarkdownKeepsTextContent(t *testing.T) {
	r := styledRenderer(t)

	out := r.Markdown("# Title\n\nSome **bold** words")

	stripped := ansi.Strip(out)
	assert.Contains(t, stripped, "Title")
	assert.Contains(t, stripped, "bold")
}

func TestMarkdownEndsWithSingleNewline(t *testing.T) {
	r := styledRenderer(t)

	out := r.Markdown("plain sentence")

	require.NotEmpty(t, out)
	assert.Equal(t, byte('\n'), out[len(out)-1])
	assert.NotEqual(t, "\n\n", out[len(out)-2:])
}
