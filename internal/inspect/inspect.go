// Package inspect implements chabeau's InspectState (spec §3): a
// read-only overlay for viewing either static text (an MCP server's
// capabilities, a picker item's metadata) or a specific tool call's
// request/result payload. Grounded on the teacher's
// internal/tui/inspector package (Model, content.go's request/response
// toggle), trimmed to the state spec §3 actually names.
package inspect

// View selects which side of a tool call's payload is shown.
type View string

const (
	ViewResult  View = "result"
	ViewRequest View = "request"
)

// Kind distinguishes a completed tool call's result from one still
// in-flight.
type Kind string

const (
	KindResult  Kind = "result"
	KindPending Kind = "pending"
)

// ToolCallMode is the InspectState variant for browsing tool call payloads
// (spec §3 "ToolCalls{index, view, kind}").
type ToolCallMode struct {
	Index int
	View  View
	Kind  Kind
}

// State is chabeau's InspectState (spec §3). Exactly one of the two modes
// is meaningful: Static content when ToolCall is nil, else ToolCall.
type State struct {
	Title        string
	Content      string
	ScrollOffset int
	ToolCall     *ToolCallMode
}

// NewStatic opens an inspect overlay over static text (spec §4.6 "inspect
// (opens an inspect overlay with the item's metadata)").
func NewStatic(title, content string) *State {
	return &State{Title: title, Content: content}
}

// NewToolCall opens an inspect overlay over one tool call's payloads.
func NewToolCall(title string, index int, kind Kind) *State {
	view := ViewResult
	if kind == KindPending {
		view = ViewRequest
	}
	return &State{Title: title, ToolCall: &ToolCallMode{Index: index, View: view, Kind: kind}}
}

// ToggleView flips between the request and result views of a tool call
// inspect (no-op in Static mode).
func (s *State) ToggleView() {
	if s.ToolCall == nil {
		return
	}
	if s.ToolCall.View == ViewResult {
		s.ToolCall.View = ViewRequest
	} else {
		s.ToolCall.View = ViewResult
	}
}

// ScrollUp moves the overlay's viewport up, clamped at zero.
func (s *State) ScrollUp(lines int) {
	s.ScrollOffset -= lines
	if s.ScrollOffset < 0 {
		s.ScrollOffset = 0
	}
}

// ScrollDown moves the overlay's viewport down, clamped to maxOffset
// (spec §4.6 "Scroll offset is clamped on render").
func (s *State) ScrollDown(lines, maxOffset int) {
	s.ScrollOffset += lines
	if s.ScrollOffset > maxOffset {
		s.ScrollOffset = maxOffset
	}
	if s.ScrollOffset < 0 {
		s.ScrollOffset = 0
	}
}

// Clamp re-clamps ScrollOffset to [0, maxOffset], used whenever the
// underlying content changes size (spec §4.6 "clamped on render").
func (s *State) Clamp(maxOffset int) {
	if maxOffset < 0 {
		maxOffset = 0
	}
	if s.ScrollOffset > maxOffset {
		s.ScrollOffset = maxOffset
	}
	if s.ScrollOffset < 0 {
		s.ScrollOffset = 0
	}
}
