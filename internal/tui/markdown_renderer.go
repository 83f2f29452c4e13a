package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// minDetailWrap keeps the detail pane legible on very narrow terminals.
const minDetailWrap = 24

// markdownRenderer lazily builds a glamour renderer for the detail pane
// and rebuilds it only when the wrap width changes. Render failures fall
// back to the raw markdown so a styling problem never hides record data.
type markdownRenderer struct {
	wrapWidth int
	renderer  *glamour.TermRenderer
}

func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}
	if width < minDetailWrap {
		width = minDetailWrap
	}

	if r.renderer == nil || r.wrapWidth != width {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.wrapWidth = width
	}

	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(rendered, "\n")
}
