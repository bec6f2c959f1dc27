// Package chat implements chabeau's renderer (C8): turning a conversation
// snapshot into styled, wrapped, link-armored terminal lines, with a
// prewrap cache and a syntax-highlight cache. Grounded on the teacher's
// internal/render/chat package (BlockCache, MessageBlockRenderer, Renderer)
// and internal/ui's markdown/highlight helpers, restructured around the
// pure build_display_lines/prewrap_lines/arm_links pipeline the
// specification requires instead of the teacher's stateful
// render-to-scrollback model.
package chat

// SpanKind classifies one styled run of text within a Line (spec §4.5).
type SpanKind int

const (
	SpanText SpanKind = iota
	SpanUserPrefix
	SpanLink
)

// Span is one styled run of text.
type Span struct {
	Kind    SpanKind
	Text    string
	Styled  string // text with ANSI styling already applied
	HrefIdx int    // index into the Line's Links table, valid iff Kind == SpanLink
}

// Line is one logical or (after prewrap) visual line of rendered output.
type Line struct {
	Spans []Span
	Links []string // hyperlink URLs referenced by this line's SpanLink spans
}

// PlainText concatenates a line's raw (unstyled) text, used for fingerprinting
// and for word-wrap measurement.
func (l Line) PlainText() string {
	var out string
	for _, s := range l.Spans {
		out += s.Text
	}
	return out
}

// Rendered concatenates a line's styled text, the form actually painted to
// the terminal.
func (l Line) Rendered() string {
	var out string
	for _, s := range l.Spans {
		if s.Styled != "" {
			out += s.Styled
		} else {
			out += s.Text
		}
	}
	return out
}
