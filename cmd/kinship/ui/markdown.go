package ui

import (
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
)

// maxCachedRenders bounds the render cache; it is cleared when full.
const maxCachedRenders = 256

// Markdown renders assistant answers, which are often lightly formatted.
// The chat view re-renders on every change, so output is cached by text
// and wrap width.
type Markdown struct {
	renderer *glamour.TermRenderer
	width    int
	dark     bool
	cache    map[uint64]string
}

// NewMarkdown builds a renderer for theme wrapped at width.
func NewMarkdown(theme Theme, width int) *Markdown {
	m := &Markdown{dark: theme.IsDark, cache: make(map[uint64]string)}
	m.SetWidth(width)
	return m
}

func renderKey(text string, width int) uint64 {
	h := fnv.New64a()
	h.Write([]byte(strconv.Itoa(width)))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return h.Sum64()
}

// SetWidth rebuilds the renderer when the wrap width changes.
func (m *Markdown) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	if m.renderer != nil && width == m.width {
		return
	}
	m.width = width

	var (
		r   *glamour.TermRenderer
		err error
	)
	if m.dark {
		r, err = glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
	} else {
		r, err = glamour.NewTermRenderer(
			glamour.WithStylePath("light"),
			glamour.WithWordWrap(width),
		)
	}
	if err != nil {
		m.renderer = nil
		return
	}
	m.renderer = r
}

// Render returns text as terminal markdown, or text unchanged when rendering fails.
func (m *Markdown) Render(text string) string {
	if m.renderer == nil {
		return text
	}
	key := renderKey(text, m.width)
	if out, ok := m.cache[key]; ok {
		return out
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	out = strings.TrimRight(out, "\n")
	if len(m.cache) >= maxCachedRenders {
		clear(m.cache)
	}
	m.cache[key] = out
	return out
}

// Cached returns the number of cached renders.
func (m *Markdown) Cached() int { return len(m.cache) }
