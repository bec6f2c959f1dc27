package chat

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"

	"github.com/mattn/go-runewidth"
)

// rune2 pairs a rune with the span it came from, so wrapping can slice
// spans at word boundaries without losing style/link association.
type rune2 struct {
	r       rune
	spanIdx int
}

// PrewrapLines wraps logical lines to width with word-boundary semantics
// (spec §4.5 "prewrap_lines"). A width of zero maps each input line to
// exactly one output line; empty lines remain empty; a single word wider
// than width still counts as one visual line ("policy A").
func PrewrapLines(lines []Line, width int) []Line {
	if width <= 0 {
		return append([]Line(nil), lines...)
	}
	var out []Line
	for _, l := range lines {
		out = append(out, wrapOneLine(l, width)...)
	}
	return out
}

func wrapOneLine(l Line, width int) []Line {
	if len(l.Spans) == 0 || l.PlainText() == "" {
		return []Line{l}
	}

	var stream []rune2
	for i, s := range l.Spans {
		for _, r := range s.Text {
			stream = append(stream, rune2{r: r, spanIdx: i})
		}
	}

	var out []Line
	var cur []rune2
	curWidth := 0
	wordStart := 0 // index into cur just past the last word, before any trailing spaces

	flush := func() {
		out = append(out, spansFromStream(l, cur))
		cur = nil
		curWidth = 0
		wordStart = 0
	}

	i := 0
	for i < len(stream) {
		r := stream[i].r
		if r == ' ' {
			cur = append(cur, stream[i])
			curWidth += runewidth.RuneWidth(r)
			i++
			continue
		}
		// Collect the next whole word.
		wordBegin := i
		for i < len(stream) && stream[i].r != ' ' {
			i++
		}
		word := stream[wordBegin:i]
		wordWidth := runeWidth(word)

		if curWidth == 0 {
			// Oversized single word on an empty line counts as one visual
			// line regardless of width (policy A).
			cur = append(cur, word...)
			curWidth += wordWidth
			wordStart = len(cur)
			continue
		}
		if curWidth+wordWidth > width {
			// Drop the trailing space we may have appended before this word.
			cur = cur[:wordStart]
			flush()
			cur = append(cur, word...)
			curWidth = wordWidth
			wordStart = len(cur)
			continue
		}
		cur = append(cur, word...)
		curWidth += wordWidth
		wordStart = len(cur)
	}
	if len(cur) > 0 {
		flush()
	}
	if len(out) == 0 {
		out = []Line{{Links: l.Links}}
	}
	return out
}

func runeWidth(rs []rune2) int {
	w := 0
	for _, rr := range rs {
		w += runewidth.RuneWidth(rr.r)
	}
	return w
}

func spansFromStream(orig Line, stream []rune2) Line {
	if len(stream) == 0 {
		return Line{Links: orig.Links}
	}
	var spans []Span
	curIdx := stream[0].spanIdx
	var b []rune
	flush := func() {
		if len(b) == 0 {
			return
		}
		src := orig.Spans[curIdx]
		spans = append(spans, Span{Kind: src.Kind, Text: string(b), HrefIdx: src.HrefIdx})
		b = nil
	}
	for _, rr := range stream {
		if rr.spanIdx != curIdx {
			flush()
			curIdx = rr.spanIdx
		}
		b = append(b, rr.r)
	}
	flush()
	return Line{Spans: spans, Links: orig.Links}
}

// Fingerprint derives a stable identity for a slice of logical lines,
// used as half of the prewrap cache key (spec §4.5 "logical_lines_fingerprint").
func Fingerprint(lines []Line) string {
	h := sha256.New()
	for _, l := range lines {
		h.Write([]byte(l.PlainText()))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// PrewrapCache memoizes PrewrapLines results keyed by (fingerprint, width),
// invalidated whenever the underlying messages change (spec §4.5 "Prewrap
// cache"). Grounded on the teacher's BlockCache in
// internal/render/chat/cache.go, keyed differently since prewrap's unit of
// work is the whole transcript, not one message block.
type PrewrapCache struct {
	mu    sync.Mutex
	key   string
	lines []Line
}

// NewPrewrapCache returns an empty cache.
func NewPrewrapCache() *PrewrapCache {
	return &PrewrapCache{}
}

// Get returns the wrapped lines for (fingerprint, width) if cached.
func (c *PrewrapCache) Get(fingerprint string, width int) ([]Line, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.key == cacheKeyFor(fingerprint, width) {
		return c.lines, true
	}
	return nil, false
}

// Put stores the wrapped lines for (fingerprint, width), replacing any
// previous entry — this cache holds only the most recent render, matching
// spec §4.5's single active prewrap cache entry per App.
func (c *PrewrapCache) Put(fingerprint string, width int, lines []Line) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key = cacheKeyFor(fingerprint, width)
	c.lines = lines
}

// Invalidate clears the cache, used when messages change.
func (c *PrewrapCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key = ""
	c.lines = nil
}

func cacheKeyFor(fingerprint string, width int) string {
	return fingerprint + ":" + strconv.Itoa(width)
}
