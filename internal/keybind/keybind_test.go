package keybind

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/chabeau/chabeau/internal/uistate"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+p":
		return tea.KeyMsg{Type: tea.KeyCtrlP}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestRouter_TypingSubmit(t *testing.T) {
	r := NewRouter()
	ev, ok := r.Resolve(uistate.ModeTyping, keyMsg("enter"))
	assert.True(t, ok)
	assert.Equal(t, EventSubmit, ev)
}

func TestRouter_TypingOpenModelPicker(t *testing.T) {
	r := NewRouter()
	ev, ok := r.Resolve(uistate.ModeTyping, keyMsg("ctrl+p"))
	assert.True(t, ok)
	assert.Equal(t, EventOpenModelPicker, ev)
}

func TestRouter_TypingCancelOrQuit(t *testing.T) {
	r := NewRouter()
	ev, ok := r.Resolve(uistate.ModeTyping, keyMsg("ctrl+c"))
	assert.True(t, ok)
	assert.Equal(t, EventCancelOrQuit, ev)
}

func TestRouter_PickerEscape(t *testing.T) {
	r := NewRouter()
	ev, ok := r.Resolve(uistate.ModePicker, keyMsg("esc"))
	assert.True(t, ok)
	assert.Equal(t, EventEscape, ev)
}

func TestRouter_PickerApply(t *testing.T) {
	r := NewRouter()
	ev, ok := r.Resolve(uistate.ModePicker, keyMsg("enter"))
	assert.True(t, ok)
	assert.Equal(t, EventPickerApply, ev)
}

func TestRouter_UnmatchedKeyIsCatchAll(t *testing.T) {
	r := NewRouter()
	_, ok := r.Resolve(uistate.ModeTyping, keyMsg("x"))
	assert.False(t, ok)
}
