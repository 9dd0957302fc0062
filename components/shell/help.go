package shell

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

//go:embed content/*.md
var embeddedContent embed.FS

// HelpContent renders per-locale Markdown help documents to HTML.
type HelpContent struct {
	mu       sync.RWMutex
	fsys     fs.FS
	markdown goldmark.Markdown
	cache    map[string]string
}

// NewHelpContent uses the embedded documents when fsys is nil.
func NewHelpContent(fsys fs.FS) *HelpContent {
	if fsys == nil {
		fsys = embeddedContent
	}
	return &HelpContent{
		fsys: fsys,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
		cache: map[string]string{},
	}
}

// HTML returns the help document for locale, falling back to the base
// language and then to English.
func (h *HelpContent) HTML(locale string) (string, error) {
	candidates := localeCandidates(locale)
	candidates[len(candidates)-1] = "en"
	for _, candidate := range candidates {
		h.mu.RLock()
		cached, ok := h.cache[candidate]
		h.mu.RUnlock()
		if ok {
			return cached, nil
		}
		source, err := fs.ReadFile(h.fsys, "content/help."+candidate+".md")
		if err != nil {
			continue
		}
		var buf bytes.Buffer
		if err := h.markdown.Convert(source, &buf); err != nil {
			return "", fmt.Errorf("shell: render help %s: %w", candidate, err)
		}
		h.mu.Lock()
		h.cache[candidate] = buf.String()
		h.mu.Unlock()
		return buf.String(), nil
	}
	return "", fmt.Errorf("shell: no help content for %q", locale)
}
