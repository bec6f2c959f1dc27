// Package keybind implements chabeau's key router (C13): a mode-aware
// table of key.Binding values that classifies a terminal keypress into a
// logical Event, leaving the chat loop (C14) to turn that Event into the
// action.Action it corresponds to (some Events need state the router
// doesn't own, e.g. the current input buffer text for EventSubmit).
// Grounded on the teacher's KeyMap/DefaultKeyMap in
// internal/tui/chat/keys.go, restructured from one flat KeyMap into
// per-mode tables matching spec §4.1's "Mode contexts" ("The key router
// selects a handler table by context").
package keybind

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/chabeau/chabeau/internal/uistate"
)

// Event is the logical outcome of a classified keypress. The loop maps
// each Event to zero or more action.Action values.
type Event string

const (
	EventNone Event = ""

	// Typing context (spec §4.1).
	EventSubmit         Event = "submit"
	EventNewline        Event = "newline"
	EventClearLine      Event = "clear_line"
	EventDeleteWord     Event = "delete_word"
	EventBackspace      Event = "backspace"
	EventTab            Event = "tab"
	EventPageUp         Event = "page_up"
	EventPageDown       Event = "page_down"
	EventBlockSelect    Event = "block_select"
	EventEditSelect     Event = "edit_select"
	EventOpenModelPicker Event = "open_model_picker"
	EventOpenMCPPicker  Event = "open_mcp_picker"
	EventOpenInspector  Event = "open_inspector"
	EventOpenCommands   Event = "open_commands"
	EventRetry          Event = "retry"
	EventExternalEditor Event = "external_editor"
	EventToggleCompose  Event = "toggle_compose"
	EventClearRedraw    Event = "clear_redraw"
	EventCancelOrQuit   Event = "cancel_or_quit"
	EventCancel         Event = "cancel"

	// Picker context (spec §4.6), shared by every picker domain.
	EventPickerUp             Event = "picker_up"
	EventPickerDown           Event = "picker_down"
	EventPickerStart          Event = "picker_start"
	EventPickerEnd            Event = "picker_end"
	EventPickerCycleSort      Event = "picker_cycle_sort"
	EventPickerApply          Event = "picker_apply"
	EventPickerApplyPersist   Event = "picker_apply_persist"
	EventPickerUnsetDefault   Event = "picker_unset_default"
	EventPickerInspect        Event = "picker_inspect"
	EventPickerBackspace      Event = "picker_backspace"
	EventEscape               Event = "escape"

	// Inspect context (spec §4.6 "Inspect integration").
	EventInspectToggleView Event = "inspect_toggle_view"
	EventInspectScrollUp   Event = "inspect_scroll_up"
	EventInspectScrollDown Event = "inspect_scroll_down"

	// Edit-select context (spec §4.1 "edit_select").
	EventEditSelectUp     Event = "edit_select_up"
	EventEditSelectDown   Event = "edit_select_down"
	EventEditSelectChoose Event = "edit_select_choose"

	// Block-select context (spec §4.1 "block_select").
	EventBlockSelectUp   Event = "block_select_up"
	EventBlockSelectDown Event = "block_select_down"
	EventBlockSelectSave Event = "block_select_save"

	// MCP prompt context (spec §4.1 "mcp_prompt").
	EventMCPPromptSubmit Event = "mcp_prompt_submit"
)

// KeyMap holds every bound key.Binding, grouped by the mode context it
// applies in. Exported so the loop can render a help line from it
// (key.Binding carries its own help text, per bubbles/key convention).
type KeyMap struct {
	// Global, checked before any mode-specific table.
	Cancel       key.Binding
	CancelOrQuit key.Binding

	// Typing.
	Submit          key.Binding
	Newline         key.Binding
	ClearLine       key.Binding
	DeleteWord      key.Binding
	Backspace       key.Binding
	Tab             key.Binding
	PageUp          key.Binding
	PageDown        key.Binding
	BlockSelect     key.Binding
	OpenModelPicker key.Binding
	OpenMCPPicker   key.Binding
	OpenInspector   key.Binding
	OpenCommands    key.Binding
	Retry           key.Binding
	ExternalEditor  key.Binding
	ToggleCompose   key.Binding
	ClearRedraw     key.Binding
	EditSelect      key.Binding

	// Picker (all domains share one table; spec §4.6 describes one
	// cursor/filter/sort/apply/escape model regardless of item domain).
	PickerUp           key.Binding
	PickerDown         key.Binding
	PickerStart        key.Binding
	PickerEnd          key.Binding
	PickerCycleSort    key.Binding
	PickerApply        key.Binding
	PickerApplyPersist key.Binding
	PickerUnsetDefault key.Binding
	PickerInspect      key.Binding
	PickerBackspace    key.Binding

	// Inspect overlay.
	InspectToggleView key.Binding
	InspectScrollUp   key.Binding
	InspectScrollDown key.Binding

	// Edit-select overlay. Up/Down/Choose reuse the picker's cursor/apply
	// keys (spec §4.1 describes one shared up/down/choose/cancel shape
	// across every non-typing navigation context).
	EditSelectUp     key.Binding
	EditSelectDown   key.Binding
	EditSelectChoose key.Binding

	// Block-select overlay.
	BlockSelectUp   key.Binding
	BlockSelectDown key.Binding
	BlockSelectSave key.Binding
}

// DefaultKeyMap returns chabeau's default bindings (spec §4.1). Ctrl+T,
// reserved for the external editor here, is why the MCP picker (the
// teacher's ctrl+t) moves to Ctrl+G.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Cancel:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		CancelOrQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "cancel/quit")),

		Submit:          key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Newline:         key.NewBinding(key.WithKeys("ctrl+j", "alt+enter", "shift+enter"), key.WithHelp("ctrl+j", "newline")),
		ClearLine:       key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "clear line")),
		DeleteWord:      key.NewBinding(key.WithKeys("ctrl+w"), key.WithHelp("ctrl+w", "delete word")),
		Backspace:       key.NewBinding(key.WithKeys("backspace")),
		Tab:             key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "complete")),
		PageUp:          key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown:        key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdown", "page down")),
		BlockSelect:     key.NewBinding(key.WithKeys("ctrl+b"), key.WithHelp("ctrl+b", "block select")),
		OpenModelPicker: key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "model")),
		OpenMCPPicker:   key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "mcp servers")),
		OpenInspector:   key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "inspect")),
		OpenCommands:    key.NewBinding(key.WithKeys("ctrl+/"), key.WithHelp("ctrl+/", "commands")),
		Retry:           key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "retry")),
		ExternalEditor:  key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "editor")),
		ToggleCompose:   key.NewBinding(key.WithKeys("f4"), key.WithHelp("f4", "compose mode")),
		ClearRedraw:     key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear/redraw")),
		EditSelect:      key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "edit select")),

		PickerUp:           key.NewBinding(key.WithKeys("up", "ctrl+k")),
		PickerDown:         key.NewBinding(key.WithKeys("down", "ctrl+j")),
		PickerStart:        key.NewBinding(key.WithKeys("home")),
		PickerEnd:          key.NewBinding(key.WithKeys("end")),
		PickerCycleSort:    key.NewBinding(key.WithKeys("ctrl+s")),
		PickerApply:        key.NewBinding(key.WithKeys("enter")),
		PickerApplyPersist: key.NewBinding(key.WithKeys("alt+enter")),
		PickerUnsetDefault: key.NewBinding(key.WithKeys("ctrl+u")),
		PickerInspect:      key.NewBinding(key.WithKeys("ctrl+i")),
		PickerBackspace:    key.NewBinding(key.WithKeys("backspace")),

		InspectToggleView: key.NewBinding(key.WithKeys("tab")),
		InspectScrollUp:   key.NewBinding(key.WithKeys("up", "pgup")),
		InspectScrollDown: key.NewBinding(key.WithKeys("down", "pgdown")),

		EditSelectUp:     key.NewBinding(key.WithKeys("up", "ctrl+k")),
		EditSelectDown:   key.NewBinding(key.WithKeys("down", "ctrl+j")),
		EditSelectChoose: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit")),

		BlockSelectUp:   key.NewBinding(key.WithKeys("up", "ctrl+k")),
		BlockSelectDown: key.NewBinding(key.WithKeys("down", "ctrl+j")),
		BlockSelectSave: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save block")),
	}
}

// Router resolves keypresses against a KeyMap, dispatching to one
// per-mode table (spec §4.1 "The key router selects a handler table by
// context; a catch-all handler exists per non-typing context").
type Router struct {
	Keys KeyMap
}

// NewRouter returns a Router using chabeau's default bindings.
func NewRouter() *Router {
	return &Router{Keys: DefaultKeyMap()}
}

// Resolve classifies msg under the given mode, returning EventNone (and
// false) when nothing in that mode's table matches — the catch-all case,
// left to the loop to ignore or route to plain text input.
func (r *Router) Resolve(mode uistate.Mode, msg tea.KeyMsg) (Event, bool) {
	switch mode {
	case uistate.ModePicker:
		return r.resolvePicker(msg)
	case uistate.ModeInspect:
		return r.resolveInspect(msg)
	case uistate.ModeInPlaceEdit, uistate.ModeFilePrompt:
		if key.Matches(msg, r.Keys.Cancel) {
			return EventEscape, true
		}
		return EventNone, false
	case uistate.ModeMCPPrompt:
		return r.resolveMCPPrompt(msg)
	case uistate.ModeEditSelect:
		return r.resolveEditSelect(msg)
	case uistate.ModeBlockSelect:
		return r.resolveBlockSelect(msg)
	default:
		return r.resolveTyping(msg)
	}
}

func (r *Router) resolveTyping(msg tea.KeyMsg) (Event, bool) {
	k := r.Keys
	switch {
	case key.Matches(msg, k.CancelOrQuit):
		return EventCancelOrQuit, true
	case key.Matches(msg, k.Cancel):
		return EventCancel, true
	case key.Matches(msg, k.Submit):
		return EventSubmit, true
	case key.Matches(msg, k.Newline):
		return EventNewline, true
	case key.Matches(msg, k.ClearLine):
		return EventClearLine, true
	case key.Matches(msg, k.DeleteWord):
		return EventDeleteWord, true
	case key.Matches(msg, k.Backspace):
		return EventBackspace, true
	case key.Matches(msg, k.BlockSelect):
		return EventBlockSelect, true
	case key.Matches(msg, k.EditSelect):
		return EventEditSelect, true
	case key.Matches(msg, k.OpenModelPicker):
		return EventOpenModelPicker, true
	case key.Matches(msg, k.OpenMCPPicker):
		return EventOpenMCPPicker, true
	case key.Matches(msg, k.OpenInspector):
		return EventOpenInspector, true
	case key.Matches(msg, k.OpenCommands):
		return EventOpenCommands, true
	case key.Matches(msg, k.Retry):
		return EventRetry, true
	case key.Matches(msg, k.ExternalEditor):
		return EventExternalEditor, true
	case key.Matches(msg, k.ToggleCompose):
		return EventToggleCompose, true
	case key.Matches(msg, k.ClearRedraw):
		return EventClearRedraw, true
	case key.Matches(msg, k.Tab):
		return EventTab, true
	case key.Matches(msg, k.PageUp):
		return EventPageUp, true
	case key.Matches(msg, k.PageDown):
		return EventPageDown, true
	}
	return EventNone, false
}

func (r *Router) resolvePicker(msg tea.KeyMsg) (Event, bool) {
	k := r.Keys
	switch {
	case key.Matches(msg, k.Cancel):
		return EventEscape, true
	case key.Matches(msg, k.PickerApplyPersist):
		return EventPickerApplyPersist, true
	case key.Matches(msg, k.PickerApply):
		return EventPickerApply, true
	case key.Matches(msg, k.PickerUp):
		return EventPickerUp, true
	case key.Matches(msg, k.PickerDown):
		return EventPickerDown, true
	case key.Matches(msg, k.PickerStart):
		return EventPickerStart, true
	case key.Matches(msg, k.PickerEnd):
		return EventPickerEnd, true
	case key.Matches(msg, k.PickerCycleSort):
		return EventPickerCycleSort, true
	case key.Matches(msg, k.PickerUnsetDefault):
		return EventPickerUnsetDefault, true
	case key.Matches(msg, k.PickerInspect):
		return EventPickerInspect, true
	case key.Matches(msg, k.PickerBackspace):
		return EventPickerBackspace, true
	}
	return EventNone, false
}

// resolveMCPPrompt only classifies Escape and Enter; plain text input is
// left to the loop's catch-all the same way ModeFilePrompt's is.
func (r *Router) resolveMCPPrompt(msg tea.KeyMsg) (Event, bool) {
	switch {
	case key.Matches(msg, r.Keys.Cancel):
		return EventEscape, true
	case msg.Type == tea.KeyEnter:
		return EventMCPPromptSubmit, true
	}
	return EventNone, false
}

func (r *Router) resolveEditSelect(msg tea.KeyMsg) (Event, bool) {
	k := r.Keys
	switch {
	case key.Matches(msg, k.Cancel):
		return EventEscape, true
	case key.Matches(msg, k.EditSelectChoose):
		return EventEditSelectChoose, true
	case key.Matches(msg, k.EditSelectUp):
		return EventEditSelectUp, true
	case key.Matches(msg, k.EditSelectDown):
		return EventEditSelectDown, true
	}
	return EventNone, false
}

func (r *Router) resolveBlockSelect(msg tea.KeyMsg) (Event, bool) {
	k := r.Keys
	switch {
	case key.Matches(msg, k.Cancel):
		return EventEscape, true
	case key.Matches(msg, k.BlockSelect):
		return EventEscape, true
	case key.Matches(msg, k.BlockSelectSave):
		return EventBlockSelectSave, true
	case key.Matches(msg, k.BlockSelectUp):
		return EventBlockSelectUp, true
	case key.Matches(msg, k.BlockSelectDown):
		return EventBlockSelectDown, true
	}
	return EventNone, false
}

func (r *Router) resolveInspect(msg tea.KeyMsg) (Event, bool) {
	k := r.Keys
	switch {
	case key.Matches(msg, k.Cancel):
		return EventEscape, true
	case key.Matches(msg, k.InspectToggleView):
		return EventInspectToggleView, true
	case key.Matches(msg, k.InspectScrollUp):
		return EventInspectScrollUp, true
	case key.Matches(msg, k.InspectScrollDown):
		return EventInspectScrollDown, true
	}
	return EventNone, false
}
