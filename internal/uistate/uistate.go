// Package uistate implements chabeau's UI state (C11): the input buffer,
// scroll position, compose mode, status line and the set of active modal
// modes, independent of any one terminal framework. Grounded on the
// teacher's Model fields in internal/tui/chat/chat.go (textarea, scrollOffset,
// quitting, dialog/completions flags), split out into its own package so
// the action dispatcher (C12) can mutate it without importing bubbletea.
package uistate

import "github.com/chabeau/chabeau/internal/theme"

// Mode is one of the mode contexts named in spec §4.1 ("Mode contexts")
// and §3 ("active_modes"); only those in exclusiveModals exclude each other.
type Mode string

const (
	ModeTyping      Mode = "typing"
	ModePicker      Mode = "picker"
	ModeInPlaceEdit Mode = "in_place_edit"
	ModeFilePrompt  Mode = "file_prompt"
	ModeMCPPrompt   Mode = "mcp_prompt"
	ModeInspect     Mode = "inspect"
	ModeEditSelect  Mode = "edit_select"
	ModeBlockSelect Mode = "block_select"
)

// exclusiveModals is the set of modes spec §3 allows at most one of active
// at a time ("at most one modal from {picker, in_place_edit, file_prompt,
// mcp_prompt, inspect} active at a time").
var exclusiveModals = map[Mode]bool{
	ModePicker:      true,
	ModeInPlaceEdit: true,
	ModeFilePrompt:  true,
	ModeMCPPrompt:   true,
	ModeInspect:     true,
}

// State is chabeau's UiState (spec §3).
type State struct {
	InputText  string
	Cursor     int
	ScrollOffset int
	AutoScroll bool

	Theme          theme.Styles
	CurrentThemeID string

	ComposeMode bool
	Status      string

	UserDisplayName string

	active map[Mode]bool
}

// New returns a State in its initial Typing-only, auto-scrolling state.
func New() *State {
	return &State{AutoScroll: true, active: map[Mode]bool{ModeTyping: true}}
}

// EnterModal activates an exclusive modal mode, deactivating whichever
// exclusive modal was previously active (spec §3 invariant). Non-exclusive
// modes (EditSelect, BlockSelect, Typing) are additive and do not evict
// each other.
func (s *State) EnterModal(m Mode) {
	if exclusiveModals[m] {
		for other := range exclusiveModals {
			if other != m {
				delete(s.active, other)
			}
		}
	}
	s.active[m] = true
}

// Leave deactivates a mode. Leaving the last active mode falls back to
// Typing, so the UI always has some mode active.
func (s *State) Leave(m Mode) {
	delete(s.active, m)
	if len(s.active) == 0 {
		s.active[ModeTyping] = true
	}
}

// Active reports whether m is currently active.
func (s *State) Active(m Mode) bool {
	return s.active[m]
}

// ActiveModal returns the currently active exclusive modal, if any.
func (s *State) ActiveModal() (Mode, bool) {
	for m := range exclusiveModals {
		if s.active[m] {
			return m, true
		}
	}
	return "", false
}

// InTyping reports whether no exclusive modal and neither edit-select nor
// block-select is active, i.e. keys route to the typing handler table
// (spec §4.1 "Mode contexts").
func (s *State) InTyping() bool {
	_, modal := s.ActiveModal()
	return !modal && !s.Active(ModeEditSelect) && !s.Active(ModeBlockSelect)
}

// ScrollUp records a user-initiated upward scroll, clearing AutoScroll
// (spec §3 "auto_scroll clears when user scrolls up").
func (s *State) ScrollUp(lines, maxOffset int) {
	s.ScrollOffset -= lines
	if s.ScrollOffset < 0 {
		s.ScrollOffset = 0
	}
	s.AutoScroll = false
	if s.ScrollOffset >= maxOffset {
		s.AutoScroll = true
	}
}

// ScrollDown records a user-initiated downward scroll, re-enabling
// AutoScroll once the viewport reaches the bottom (spec §3 "re-enables...
// on bottom-scroll").
func (s *State) ScrollDown(lines, maxOffset int) {
	s.ScrollOffset += lines
	if s.ScrollOffset >= maxOffset {
		s.ScrollOffset = maxOffset
		s.AutoScroll = true
	}
}

// ScrollToBottom re-enables AutoScroll and snaps the offset to the bottom
// (spec §3 "re-enables on send").
func (s *State) ScrollToBottom(maxOffset int) {
	s.ScrollOffset = maxOffset
	s.AutoScroll = true
}

// SetStatus sets the transient status line (action ClearStatus/SetStatus,
// spec §4.8).
func (s *State) SetStatus(msg string) { s.Status = msg }

// ClearStatus clears the transient status line.
func (s *State) ClearStatus() { s.Status = "" }

// InsertAtCursor inserts text at the cursor, used by InsertIntoInput and
// bracketed-paste handling (spec §4.1).
func (s *State) InsertAtCursor(text string) {
	r := []rune(s.InputText)
	if s.Cursor < 0 {
		s.Cursor = 0
	}
	if s.Cursor > len(r) {
		s.Cursor = len(r)
	}
	out := make([]rune, 0, len(r)+len(text))
	out = append(out, r[:s.Cursor]...)
	out = append(out, []rune(text)...)
	out = append(out, r[s.Cursor:]...)
	s.InputText = string(out)
	s.Cursor += len([]rune(text))
}

// ClearInput empties the input buffer and resets the cursor (action
// ClearInput, spec §4.8).
func (s *State) ClearInput() {
	s.InputText = ""
	s.Cursor = 0
}

// DeleteBackward removes the rune before the cursor, a no-op at the start
// of the buffer (plain Backspace in typing mode, spec §4.1).
func (s *State) DeleteBackward() {
	if s.Cursor <= 0 {
		return
	}
	r := []rune(s.InputText)
	if s.Cursor > len(r) {
		s.Cursor = len(r)
	}
	r = append(r[:s.Cursor-1], r[s.Cursor:]...)
	s.InputText = string(r)
	s.Cursor--
}

// DeleteWordBackward removes the run of trailing whitespace and the word
// before it, up to the cursor (Ctrl+W in typing mode, spec §4.1).
func (s *State) DeleteWordBackward() {
	r := []rune(s.InputText)
	if s.Cursor > len(r) {
		s.Cursor = len(r)
	}
	i := s.Cursor
	for i > 0 && r[i-1] == ' ' {
		i--
	}
	for i > 0 && r[i-1] != ' ' {
		i--
	}
	s.InputText = string(append(append([]rune(nil), r[:i]...), r[s.Cursor:]...))
	s.Cursor = i
}

// ToggleComposeMode flips compose mode (F4, spec §4.1).
func (s *State) ToggleComposeMode() {
	s.ComposeMode = !s.ComposeMode
}

// SanitizePaste applies spec §4.1's bracketed-paste sanitization: tabs to
// four spaces, CR to LF, other control characters stripped except LF.
func SanitizePaste(s string) string {
	var b []rune
	for _, r := range s {
		switch {
		case r == '\t':
			b = append(b, ' ', ' ', ' ', ' ')
		case r == '\r':
			b = append(b, '\n')
		case r == '\n':
			b = append(b, r)
		case r < 0x20 || r == 0x7f:
			// stripped
		default:
			b = append(b, r)
		}
	}
	return string(b)
}
