package chat

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// codeBlock is one fenced-code or prose segment of a message, produced by
// splitFencedCodeBlocks.
type codeBlock struct {
	lang string // empty for prose segments
	text string
}

// splitFencedCodeBlocks splits rendered markdown on ``` fences, tagging
// each fenced segment with its language tag (if any).
func splitFencedCodeBlocks(s string) []codeBlock {
	lines := strings.Split(s, "\n")
	var blocks []codeBlock
	var cur strings.Builder
	inFence := false
	lang := ""

	flush := func(l string) {
		blocks = append(blocks, codeBlock{lang: l, text: strings.TrimRight(cur.String(), "\n")})
		cur.Reset()
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inFence {
				flush(lang)
				inFence = false
				lang = ""
			} else {
				if cur.Len() > 0 {
					flush("")
				}
				inFence = true
				lang = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			}
			continue
		}
		cur.WriteString(line)
		cur.WriteString("\n")
	}
	if cur.Len() > 0 {
		flush(lang)
	}
	return blocks
}

// syntaxCacheSize is the bounded FIFO capacity for highlighted-block
// entries (spec §4.5 "a bounded FIFO eviction (default 64)").
const syntaxCacheSize = 64

type highlightResult struct {
	plain string
}

// syntaxCache is a process-wide FIFO cache of highlighted code blocks
// keyed by (normalized_lang, content_hash, theme_signature), grounded on
// the teacher's BlockCache in internal/render/chat/cache.go, adapted from
// LRU to a plain FIFO since spec §4.5 specifies FIFO eviction here.
type syntaxCache struct {
	mu    sync.Mutex
	order []string
	data  map[string]highlightResult
	cap   int
}

var sharedSyntaxCache = newSyntaxCache(syntaxCacheSize)

func newSyntaxCache(capacity int) *syntaxCache {
	return &syntaxCache{data: make(map[string]highlightResult), cap: capacity}
}

func (c *syntaxCache) get(key string) (highlightResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *syntaxCache) put(key string, v highlightResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.data[key]; exists {
		c.data[key] = v
		return
	}
	if len(c.order) >= c.cap {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.data, oldest)
	}
	c.order = append(c.order, key)
	c.data[key] = v
}

// ThemeSignature derives the cache key component that must change
// whenever a theme change would alter highlighted output (spec §4.5
// "Theme signature includes chosen syntect theme name ... code block bg
// color, and main bg color"). Callers pass the theme's raw color strings
// (not lipgloss styles) so the signature is comparable by value.
func ThemeSignature(chromaStyleName, codeBlockBg, mainBg string) string {
	return chromaStyleName + "|" + codeBlockBg + "|" + mainBg
}

// chromaStyleForBackground picks a chroma style by background-brightness
// heuristic (spec §4.5): dark backgrounds get "monokai" (grounded on the
// teacher's NewHighlighter in internal/ui/highlight.go, which hardcodes
// monokai), light backgrounds get "tango".
func chromaStyleForBackground(dark bool) string {
	if dark {
		return "monokai"
	}
	return "tango"
}

// HighlightCode renders one fenced code block through chroma, consulting
// the shared FIFO cache first (spec §4.5).
func HighlightCode(lang, code string) highlightResult {
	styleName := chromaStyleForBackground(true)
	key := cacheKey(lang, code, styleName)
	if v, ok := sharedSyntaxCache.get(key); ok {
		return v
	}

	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := stylesGet(styleName)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		res := highlightResult{plain: code}
		sharedSyntaxCache.put(key, res)
		return res
	}

	var b strings.Builder
	for token := iterator(); token != chroma.EOF; token = iterator() {
		value := token.Value
		entry := style.Get(token.Type)
		var codes []string
		if entry.Colour.IsSet() {
			codes = append(codes, fmt.Sprintf("38;2;%d;%d;%d", entry.Colour.Red(), entry.Colour.Green(), entry.Colour.Blue()))
		}
		if entry.Bold == chroma.Yes {
			codes = append(codes, "1")
		}
		if len(codes) > 0 {
			b.WriteString("\x1b[" + strings.Join(codes, ";") + "m" + value + "\x1b[0m")
		} else {
			b.WriteString(value)
		}
	}

	res := highlightResult{plain: b.String()}
	sharedSyntaxCache.put(key, res)
	return res
}

func stylesGet(name string) *chroma.Style {
	s := styles.Get(name)
	if s == nil {
		return styles.Fallback
	}
	return s
}

func cacheKey(lang, code, themeSig string) string {
	sum := sha256.Sum256([]byte(code))
	return strings.ToLower(lang) + "|" + hex.EncodeToString(sum[:]) + "|" + themeSig
}
