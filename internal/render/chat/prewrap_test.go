package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plainLine(text string) Line {
	return Line{Spans: []Span{{Kind: SpanText, Text: text}}}
}

func TestPrewrapLines_ZeroWidthIsIdentity(t *testing.T) {
	lines := []Line{plainLine("hello world"), plainLine("")}
	out := PrewrapLines(lines, 0)
	require.Len(t, out, 2)
	assert.Equal(t, "hello world", out[0].PlainText())
}

func TestPrewrapLines_NeverShrinksLineCount(t *testing.T) {
	lines := []Line{plainLine("the quick brown fox jumps over the lazy dog"), plainLine("")}
	for _, w := range []int{1, 5, 10, 40, 100} {
		out := PrewrapLines(lines, w)
		assert.GreaterOrEqual(t, len(out), len(lines), "width=%d", w)
	}
}

func TestPrewrapLines_EmptyLinesStayEmpty(t *testing.T) {
	out := PrewrapLines([]Line{{}}, 20)
	require.Len(t, out, 1)
	assert.Equal(t, "", out[0].PlainText())
}

func TestPrewrapLines_WrapsAtWordBoundaries(t *testing.T) {
	out := PrewrapLines([]Line{plainLine("one two three four")}, 8)
	for _, l := range out {
		assert.LessOrEqual(t, len([]rune(l.PlainText())), 8+len("three")) // oversized-word slack
	}
	joined := ""
	for i, l := range out {
		if i > 0 {
			joined += " "
		}
		joined += l.PlainText()
	}
	assert.Contains(t, joined, "one")
	assert.Contains(t, joined, "four")
}

func TestPrewrapLines_OversizedWordIsOneVisualLine(t *testing.T) {
	out := PrewrapLines([]Line{plainLine("supercalifragilisticexpialidocious")}, 5)
	require.Len(t, out, 1)
	assert.Equal(t, "supercalifragilisticexpialidocious", out[0].PlainText())
}

func TestPrewrapCache_HitOnSameKey(t *testing.T) {
	c := NewPrewrapCache()
	lines := []Line{plainLine("a b c")}
	c.Put("fp1", 10, lines)
	got, ok := c.Get("fp1", 10)
	require.True(t, ok)
	assert.Equal(t, lines, got)

	_, ok = c.Get("fp1", 20)
	assert.False(t, ok)
	_, ok = c.Get("fp2", 10)
	assert.False(t, ok)
}

func TestPrewrapCache_InvalidateClears(t *testing.T) {
	c := NewPrewrapCache()
	c.Put("fp", 10, []Line{plainLine("x")})
	c.Invalidate()
	_, ok := c.Get("fp", 10)
	assert.False(t, ok)
}

func TestFingerprint_ChangesWithContent(t *testing.T) {
	a := Fingerprint([]Line{plainLine("hello")})
	b := Fingerprint([]Line{plainLine("world")})
	assert.NotEqual(t, a, b)

	c := Fingerprint([]Line{plainLine("hello")})
	assert.Equal(t, a, c)
}
