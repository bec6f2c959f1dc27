package chat

import (
	"regexp"
)

// Sentinel runes armed into OSC 8 hyperlink escapes at paint time (spec
// §4.5 "arm_links"): sentinelStart marks where a hyperlink-start escape
// belongs, sentinelEnd where its matching end escape belongs.
const (
	sentinelStart = rune(0xE000)
	sentinelEnd   = rune(0xE001)

	oscHyperlinkPrefix = "\x1b]8;;"
	stringTerminator   = "\x1b\\"
)

var (
	markdownLinkRe = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\s)]+)\)`)
	bareURLRe      = regexp.MustCompile(`https?://[^\s<>\]")]+`)
)

// armSpanLinks scans plain text for markdown-style and bare URLs and
// splits it into spans, recording each URL's target in links. A link
// span's Text carries the bare label; ArmLinks later wraps it in sentinels,
// which ExpandSentinels turns into the real escape sequence.
func armSpanLinks(text string, links *[]string) []Span {
	var spans []Span
	rest := text
	for {
		loc := markdownLinkRe.FindStringSubmatchIndex(rest)
		bareLoc := bareURLRe.FindStringIndex(rest)

		useMarkdown := loc != nil && (bareLoc == nil || loc[0] <= bareLoc[0])
		if useMarkdown {
			if loc[0] > 0 {
				spans = append(spans, Span{Kind: SpanText, Text: rest[:loc[0]]})
			}
			label := rest[loc[2]:loc[3]]
			url := rest[loc[4]:loc[5]]
			*links = append(*links, url)
			spans = append(spans, Span{Kind: SpanLink, Text: label, HrefIdx: len(*links) - 1})
			rest = rest[loc[1]:]
			continue
		}
		if bareLoc != nil {
			if bareLoc[0] > 0 {
				spans = append(spans, Span{Kind: SpanText, Text: rest[:bareLoc[0]]})
			}
			url := rest[bareLoc[0]:bareLoc[1]]
			*links = append(*links, url)
			spans = append(spans, Span{Kind: SpanLink, Text: url, HrefIdx: len(*links) - 1})
			rest = rest[bareLoc[1]:]
			continue
		}
		break
	}
	if rest != "" {
		spans = append(spans, Span{Kind: SpanText, Text: rest})
	}
	if len(spans) == 0 {
		spans = append(spans, Span{Kind: SpanText, Text: ""})
	}
	return spans
}

// ArmLinks replaces each line's SpanLink runs with their sentinel-wrapped
// form (spec §4.5 "arm_links"): sentinelStart/sentinelEnd bracket the
// label, to be expanded into real OSC 8 escapes at paint time by
// ExpandSentinels.
func ArmLinks(lines []Line) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		nl := Line{Links: l.Links}
		nl.Spans = make([]Span, len(l.Spans))
		for j, s := range l.Spans {
			if s.Kind == SpanLink && s.HrefIdx < len(l.Links) {
				label := s.Text
				if s.Styled != "" {
					label = s.Styled
				}
				s.Styled = string(sentinelStart) + label + string(sentinelEnd)
			}
			nl.Spans[j] = s
		}
		out[i] = nl
	}
	return out
}

// ExpandSentinels replaces a line's sentinelStart/sentinelEnd sentinels
// with real OSC 8 escape sequences for the given URL, used at paint time
// once a span's href is known.
func ExpandSentinels(rendered string, url string) string {
	out := make([]rune, 0, len(rendered))
	for _, r := range rendered {
		switch r {
		case sentinelStart:
			out = append(out, []rune(oscHyperlinkPrefix+url+stringTerminator)...)
		case sentinelEnd:
			out = append(out, []rune(oscHyperlinkPrefix+stringTerminator)...)
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
