package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/chabeau/chabeau/internal/chatlog"
	"github.com/chabeau/chabeau/internal/theme"
)

// BuildDisplayLines is the renderer's pure entry point (spec §4.5
// "build_display_lines"): deterministic, independent of terminal width.
// Grounded on the teacher's MessageBlockRenderer.Render in
// internal/render/chat/message_block.go, restructured to return logical
// Lines instead of a pre-joined string so prewrap/arm_links can operate
// on them afterward.
func BuildDisplayLines(messages []chatlog.Message, styles theme.Styles, markdown, syntaxEnabled bool, userName string) []Line {
	var out []Line
	for _, m := range messages {
		switch m.Role {
		case chatlog.RoleUser:
			out = append(out, buildUserLines(m, styles, userName)...)
		case chatlog.RoleAssistant:
			out = append(out, buildAssistantLines(m, styles, markdown, syntaxEnabled)...)
		case chatlog.RoleAppInfo, chatlog.RoleAppWarning, chatlog.RoleAppError, chatlog.RoleAppLog:
			out = append(out, buildAppLines(m, styles)...)
		case chatlog.RoleSystem, chatlog.RoleTool:
			// Visible only through the inspector (spec §4.6 "inspect"); the
			// main transcript omits them, matching the teacher's
			// renderUserMessage/renderAssistantMessage convention of
			// skipping system/tool roles.
		}
	}
	return out
}

func buildUserLines(m chatlog.Message, styles theme.Styles, userName string) []Line {
	prefix := "❯ "
	if userName != "" {
		prefix = userName + "> "
	}
	var lines []Line
	for i, raw := range strings.Split(m.Content, "\n") {
		var links []string
		spans := armSpanLinks(raw, &links)
		if i == 0 {
			spans = append([]Span{{Kind: SpanUserPrefix, Text: prefix, Styled: styles.Primary.Bold(true).Render(prefix)}}, spans...)
		} else {
			spans = append([]Span{{Kind: SpanUserPrefix, Text: "  "}}, spans...)
		}
		lines = append(lines, Line{Spans: spans, Links: links})
	}
	lines = append(lines, Line{})
	return lines
}

func buildAppLines(m chatlog.Message, styles theme.Styles) []Line {
	style := styles.Muted
	switch m.Role {
	case chatlog.RoleAppWarning:
		style = styles.Warning
	case chatlog.RoleAppError:
		style = styles.Error
	}
	var lines []Line
	for _, raw := range strings.Split(m.Content, "\n") {
		lines = append(lines, Line{Spans: []Span{{Kind: SpanText, Text: raw, Styled: style.Render(raw)}}})
	}
	return append(lines, Line{})
}

func buildAssistantLines(m chatlog.Message, styles theme.Styles, markdown, syntaxEnabled bool) []Line {
	content := m.Content
	if content == "" {
		return nil
	}

	var rendered string
	if markdown {
		rendered = renderMarkdownUnwrapped(content)
	} else {
		rendered = content
	}

	blocks := splitFencedCodeBlocks(rendered)
	var lines []Line
	for _, b := range blocks {
		if b.lang == "" {
			for _, raw := range strings.Split(b.text, "\n") {
				var links []string
				spans := armSpanLinks(raw, &links)
				lines = append(lines, Line{Spans: spans, Links: links})
			}
			continue
		}
		if !syntaxEnabled {
			for _, raw := range strings.Split(b.text, "\n") {
				lines = append(lines, Line{Spans: []Span{{Kind: SpanText, Text: raw}}})
			}
			continue
		}
		highlighted := HighlightCode(b.lang, b.text)
		for _, raw := range strings.Split(highlighted.plain, "\n") {
			lines = append(lines, Line{Spans: []Span{{Kind: SpanText, Text: raw}}})
		}
	}
	for _, tc := range m.ToolCalls {
		lines = append(lines, Line{Spans: []Span{{
			Kind:   SpanText,
			Text:   "→ " + tc.Name,
			Styled: styles.Secondary.Render("→ " + tc.Name),
		}}})
	}
	return append(lines, Line{})
}

// glamourWidth is large enough that glamour never wraps on its own;
// width-aware wrapping happens later, in PrewrapLines, so
// BuildDisplayLines stays width-independent per spec §4.5.
const glamourWidth = 100000

func renderMarkdownUnwrapped(content string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("notty"),
		glamour.WithWordWrap(glamourWidth),
	)
	if err != nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}
