// Package render formats assistant replies for the terminal using
// Glamour markdown rendering, degrading to plain text on dumb terminals
// or when rendering is disabled.
package render

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"zchat/internal/logger"
)

// Renderer converts assistant markdown into ANSI terminal output.
type Renderer struct {
	term  *glamour.TermRenderer
	plain bool
}

// New creates a renderer. With plain set, or when the terminal supports
// no color at all, output passes through untouched.
func New(plain bool) *Renderer {
	if plain || termenv.ColorProfile() == termenv.Ascii {
		return &Renderer{plain: true}
	}

	term, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		logger.Warn("markdown renderer unavailable, using plain output", "error", err)
		return &Renderer{plain: true}
	}
	return &Renderer{term: term}
}

// Markdown renders content for display. Rendering never fails the
// caller: any problem falls back to the raw text.
func (r *Renderer) Markdown(content string) string {
	if r.plain || strings.TrimSpace(content) == "" {
		return content
	}
	rendered, err := r.term.Render(content)
	if err != nil {
		logger.Debug("markdown render failed, using raw text", "error", err)
		return content
	}
	return strings.TrimRight(rendered, "\n") + "\n"
}
