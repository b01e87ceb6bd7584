package tui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

var (
	mdMu sync.Mutex
	// Renderers are cached per wrap width; building one is not cheap.
	mdRenderers = map[int]*glamour.TermRenderer{}
)

// renderMarkdown renders a card description for the terminal, falling back
// to the raw text if rendering fails.
func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 20 {
		width = 20
	}

	mdMu.Lock()
	defer mdMu.Unlock()
	r := mdRenderers[width]
	if r == nil {
		var err error
		r, err = glamour.NewTermRenderer(
			// A fixed style avoids the terminal background query WithAutoStyle makes.
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		mdRenderers[width] = r
	}

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
