package chat

import (
	"github.com/chabeau/chabeau/internal/chatlog"
	"github.com/chabeau/chabeau/internal/theme"
)

// Renderer ties together BuildDisplayLines, PrewrapLines and ArmLinks
// behind the prewrap cache (spec §4.5), grounded on the teacher's Renderer
// in internal/render/chat/renderer.go but built around the pure
// build/prewrap/arm pipeline instead of a stateful block cache.
type Renderer struct {
	prewrap *PrewrapCache
}

// NewRenderer returns a renderer with an empty prewrap cache.
func NewRenderer() *Renderer {
	return &Renderer{prewrap: NewPrewrapCache()}
}

// Render produces the armed, wrapped lines for one frame. It is the
// renderer's composition of the three pure contract functions plus the
// prewrap cache (spec §4.5).
func (r *Renderer) Render(conv *chatlog.Conversation, styles theme.Styles, markdown, syntaxEnabled bool, userName string, width int) []Line {
	logical := BuildDisplayLines(conv.Messages(), styles, markdown, syntaxEnabled, userName)
	fp := Fingerprint(logical)
	if cached, ok := r.prewrap.Get(fp, width); ok {
		return cached
	}
	wrapped := PrewrapLines(logical, width)
	armed := ArmLinks(wrapped)
	r.prewrap.Put(fp, width, armed)
	return armed
}

// InvalidateCache forces the next Render to recompute, used on resize or
// whenever messages change outside the normal append path (spec §4.5
// "Invalidates when messages change").
func (r *Renderer) InvalidateCache() {
	r.prewrap.Invalidate()
}

// ScrollWindow computes the effective scroll window [offset, offset+height)
// over wrapped lines (spec §4.5 "Scroll").
func ScrollWindow(total, offset, height int) (start, end int) {
	if height <= 0 {
		return 0, 0
	}
	start = offset
	if start < 0 {
		start = 0
	}
	end = start + height
	if end > total {
		end = total
	}
	if start > end {
		start = end
	}
	return start, end
}

// MaxOffset returns the largest valid scroll offset for a given total line
// count and viewport height.
func MaxOffset(total, height int) int {
	if total <= height {
		return 0
	}
	return total - height
}
