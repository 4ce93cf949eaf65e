package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// MarkdownRenderer renders bot answers, which the endpoint may format as
// markdown. Rendering failures fall back to the raw text.
type MarkdownRenderer struct {
	style string
	width int
	r     *glamour.TermRenderer
}

// NewMarkdownRenderer builds a renderer for style ("auto", "dark", "light",
// "notty" or "ascii") wrapping at width columns.
func NewMarkdownRenderer(style string, width int) (*MarkdownRenderer, error) {
	m := &MarkdownRenderer{style: resolveStyle(style)}
	if err := m.SetWidth(width); err != nil {
		return nil, err
	}
	return m, nil
}

func resolveStyle(style string) string {
	style = strings.ToLower(strings.TrimSpace(style))
	switch style {
	case "", "auto":
		if termenv.HasDarkBackground() {
			return "dark"
		}
		return "light"
	default:
		return style
	}
}

func (m *MarkdownRenderer) Style() string { return m.style }

// SetWidth rebuilds the underlying renderer when the wrap width changes.
func (m *MarkdownRenderer) SetWidth(width int) error {
	if width < 10 {
		width = 10
	}
	if m.r != nil && width == m.width {
		return nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return errors.Wrapf(err, "create markdown renderer (style %s)", m.style)
	}
	m.r, m.width = r, width
	return nil
}

func (m *MarkdownRenderer) Render(text string) string {
	if m == nil || m.r == nil {
		return text
	}
	out, err := m.r.Render(text)
	if err != nil {
		log.Debug().Str("component", "ui").Err(err).Msg("markdown rendering failed, using plain text")
		return text
	}
	return strings.Trim(out, "\n")
}
