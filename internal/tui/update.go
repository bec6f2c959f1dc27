package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/chabeau/chabeau/internal/action"
	"github.com/chabeau/chabeau/internal/httpchat"
	"github.com/chabeau/chabeau/internal/keybind"
	"github.com/chabeau/chabeau/internal/picker"
	"github.com/chabeau/chabeau/internal/uistate"
)

// pageSize is how many rendered lines PageUp/PageDown move, grounded on
// the teacher's tickEvery-adjacent scroll step in internal/tui/chat/chat.go.
const pageSize = 10

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		return m, m.apply(action.Resize{Width: msg.Width, Height: msg.Height})

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case streamEventMsg:
		return m, m.handleStreamEvent(msg.ev)

	case streamClosedMsg:
		m.streamChan = nil
		return m, nil

	case modelsLoadedMsg:
		if msg.err != nil {
			return m, m.apply(action.ModelPickerLoadFailed{Error: msg.err.Error()})
		}
		defaultModel, _ := m.app.Config.GetDefaultModel(msg.providerID)
		return m, m.apply(action.ModelPickerLoaded{Session: picker.NewModelPicker(msg.models, defaultModel)})

	case toolResultsMsg:
		return m, m.apply(action.ToolResultsReceived{StreamID: msg.streamID, Results: msg.results})

	case editorDoneMsg:
		if msg.err != nil {
			return m, m.apply(action.SetStatus{Message: "editor: " + msg.err.Error()})
		}
		text := strings.TrimSpace(msg.text)
		if text == "" {
			return m, nil
		}
		return m, m.apply(action.SubmitMessage{Text: text})

	case statusMsg:
		return m, m.apply(action.SetStatus{Message: msg.text})

	case mcpPromptLoadedMsg:
		if msg.err != nil {
			return m, m.apply(action.MCPPromptFailed{Error: msg.err.Error()})
		}
		return m, m.apply(action.MCPPromptLoaded{Content: msg.content})

	case fileWrittenMsg:
		if msg.err != nil {
			return m, m.apply(action.SetStatus{Message: "write failed: " + msg.err.Error()})
		}
		return m, m.apply(action.SetStatus{Message: "wrote " + msg.path})

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKey routes a keypress through the key router under the currently
// active mode, converting the resulting Event (or, for typing-mode plain
// text, the raw key itself) into an Action (spec §4.1 "The key router
// selects a handler table by context").
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	mode := m.routeMode()
	ev, ok := m.router.Resolve(mode, msg)
	if !ok {
		return m.handleUnmatchedKey(mode, msg)
	}

	switch mode {
	case uistate.ModePicker:
		return m.handlePickerEvent(ev)
	case uistate.ModeInspect:
		return m.handleInspectEvent(ev)
	case uistate.ModeEditSelect:
		return m.handleEditSelectEvent(ev)
	case uistate.ModeBlockSelect:
		return m.handleBlockSelectEvent(ev)
	case uistate.ModeMCPPrompt:
		if ev == keybind.EventMCPPromptSubmit {
			return m.submitMCPPrompt()
		}
		if ev == keybind.EventEscape {
			return m.handleModalCancel(mode)
		}
		return nil
	case uistate.ModeFilePrompt, uistate.ModeInPlaceEdit:
		if ev == keybind.EventEscape {
			return m.handleModalCancel(mode)
		}
		return nil
	default:
		return m.handleTypingEvent(ev)
	}
}

// routeMode picks the mode-context table the router should use: the active
// exclusive modal if any (spec §3 "at most one modal from {picker,
// in_place_edit, file_prompt, mcp_prompt, inspect} active at a time"),
// else edit-select or block-select if one of those non-exclusive overlay
// modes is active, else the typing table (spec §4.1 "Mode contexts").
func (m *Model) routeMode() uistate.Mode {
	if mode, ok := m.app.UI.ActiveModal(); ok {
		return mode
	}
	if m.app.UI.Active(uistate.ModeBlockSelect) {
		return uistate.ModeBlockSelect
	}
	if m.app.UI.Active(uistate.ModeEditSelect) {
		return uistate.ModeEditSelect
	}
	return uistate.ModeTyping
}

func (m *Model) handleTypingEvent(ev keybind.Event) tea.Cmd {
	switch ev {
	case keybind.EventSubmit:
		return m.apply(action.SubmitMessage{Text: m.app.UI.InputText})
	case keybind.EventNewline:
		return m.apply(action.InsertIntoInput{Text: "\n"})
	case keybind.EventClearLine:
		return m.apply(action.ClearInput{})
	case keybind.EventDeleteWord:
		return m.apply(action.DeleteWordBackward{})
	case keybind.EventBackspace:
		return m.apply(action.DeleteBackward{})
	case keybind.EventPageUp:
		return m.apply(action.ScrollUp{Lines: pageSize})
	case keybind.EventPageDown:
		return m.apply(action.ScrollDown{Lines: pageSize})
	case keybind.EventOpenModelPicker:
		return m.apply(action.ProcessCommand{Line: "/model"})
	case keybind.EventOpenMCPPicker:
		return m.apply(action.OpenMCPPrompt{})
	case keybind.EventOpenInspector:
		return m.apply(action.SetStatus{Message: "open inspect from a picker selection with Ctrl+I"})
	case keybind.EventOpenCommands:
		return m.apply(action.SetStatus{Message: "commands: /model /theme /character /persona /preset /dump /clear /quit"})
	case keybind.EventRetry:
		return m.apply(action.RetryLastMessage{})
	case keybind.EventExternalEditor:
		return m.execCommand(action.RunExternalEditor{Seed: m.app.UI.InputText})
	case keybind.EventToggleCompose:
		return m.apply(action.ToggleComposeMode{})
	case keybind.EventClearRedraw:
		m.app.Renderer.InvalidateCache()
		return tea.ClearScreen
	case keybind.EventCancelOrQuit:
		if m.app.Session.StreamActive() {
			return m.apply(action.CancelStreaming{})
		}
		return m.apply(action.ProcessCommand{Line: "/quit"})
	case keybind.EventCancel:
		if m.app.Session.StreamActive() {
			return m.apply(action.CancelStreaming{})
		}
		return nil
	case keybind.EventBlockSelect:
		return m.apply(action.EnterBlockSelect{})
	case keybind.EventEditSelect:
		return m.apply(action.EnterEditSelect{})
	}
	return nil
}

// handleEditSelectEvent drives edit-select's message-navigation table
// (spec §4.1 "edit_select": navigate prior messages, Enter hands the
// chosen one to in-place edit, Esc cancels).
func (m *Model) handleEditSelectEvent(ev keybind.Event) tea.Cmd {
	switch ev {
	case keybind.EventEscape:
		return m.apply(action.EditSelectEscape{})
	case keybind.EventEditSelectUp:
		return m.apply(action.EditSelectUp{})
	case keybind.EventEditSelectDown:
		return m.apply(action.EditSelectDown{})
	case keybind.EventEditSelectChoose:
		return m.apply(action.EditSelectChoose{})
	}
	return nil
}

// handleBlockSelectEvent drives block-select's code-block-navigation table
// (spec §4.1 "block_select": navigate fenced code blocks, Enter opens the
// save-to-file prompt, Esc/Ctrl+B cancels).
func (m *Model) handleBlockSelectEvent(ev keybind.Event) tea.Cmd {
	switch ev {
	case keybind.EventEscape:
		return m.apply(action.BlockSelectEscape{})
	case keybind.EventBlockSelectUp:
		return m.apply(action.BlockSelectUp{})
	case keybind.EventBlockSelectDown:
		return m.apply(action.BlockSelectDown{})
	case keybind.EventBlockSelectSave:
		return m.apply(action.BlockSelectSave{})
	}
	return nil
}

func (m *Model) handlePickerEvent(ev keybind.Event) tea.Cmd {
	switch ev {
	case keybind.EventEscape:
		return m.apply(action.PickerEscape{})
	case keybind.EventPickerUp:
		return m.apply(action.PickerMoveUp{})
	case keybind.EventPickerDown:
		return m.apply(action.PickerMoveDown{})
	case keybind.EventPickerStart:
		return m.apply(action.PickerMoveStart{})
	case keybind.EventPickerEnd:
		return m.apply(action.PickerMoveEnd{})
	case keybind.EventPickerCycleSort:
		return m.apply(action.PickerCycleSort{})
	case keybind.EventPickerApply:
		return m.apply(action.PickerApply{Persistent: false})
	case keybind.EventPickerApplyPersist:
		return m.apply(action.PickerApply{Persistent: true})
	case keybind.EventPickerUnsetDefault:
		return m.apply(action.PickerUnsetDefault{})
	case keybind.EventPickerInspect:
		return m.apply(action.PickerInspect{})
	case keybind.EventPickerBackspace:
		return m.apply(action.PickerFilter{Query: trimLastRune(m.currentPickerQuery())})
	}
	return nil
}

func (m *Model) handleInspectEvent(ev keybind.Event) tea.Cmd {
	switch ev {
	case keybind.EventEscape:
		return m.apply(action.InspectClose{})
	case keybind.EventInspectToggleView:
		return m.apply(action.InspectToggleView{})
	case keybind.EventInspectScrollUp:
		return m.apply(action.InspectScrollUp{Lines: 1})
	case keybind.EventInspectScrollDown:
		return m.apply(action.InspectScrollDown{Lines: 1})
	}
	return nil
}

func (m *Model) handleModalCancel(mode uistate.Mode) tea.Cmd {
	switch mode {
	case uistate.ModeFilePrompt:
		return m.apply(action.CancelFilePrompt{})
	case uistate.ModeInPlaceEdit:
		return m.apply(action.CancelInPlaceEdit{})
	case uistate.ModeMCPPrompt:
		return m.apply(action.CancelMCPPrompt{})
	}
	return nil
}

// handleUnmatchedKey is the catch-all the router leaves to the loop (spec
// §4.1 "a catch-all handler exists per non-typing context"): plain
// character input in Typing mode, and live filter text in Picker mode
// (the teacher's DialogModel.Update appends/pops runes against its filter
// buffer the same way; grounded on internal/tui/chat/dialog.go).
func (m *Model) handleUnmatchedKey(mode uistate.Mode, msg tea.KeyMsg) tea.Cmd {
	switch mode {
	case uistate.ModeTyping:
		if msg.Type == tea.KeyRunes {
			return m.apply(action.InsertIntoInput{Text: string(msg.Runes)})
		}
		if msg.Type == tea.KeySpace {
			return m.apply(action.InsertIntoInput{Text: " "})
		}

	case uistate.ModePicker:
		if msg.Type == tea.KeyRunes {
			return m.apply(action.PickerFilter{Query: m.currentPickerQuery() + string(msg.Runes)})
		}
		if msg.Type == tea.KeySpace {
			return m.apply(action.PickerFilter{Query: m.currentPickerQuery() + " "})
		}

	case uistate.ModeFilePrompt:
		if msg.Type == tea.KeyEnter {
			return m.completeFilePrompt()
		}
		if msg.Type == tea.KeyRunes {
			return m.apply(action.InsertIntoInput{Text: string(msg.Runes)})
		}

	case uistate.ModeMCPPrompt:
		if msg.Type == tea.KeyRunes {
			return m.apply(action.InsertIntoInput{Text: string(msg.Runes)})
		}
		if msg.Type == tea.KeySpace {
			return m.apply(action.InsertIntoInput{Text: " "})
		}

	case uistate.ModeInPlaceEdit:
		switch msg.Type {
		case tea.KeyEnter:
			return m.completeInPlaceEdit()
		case tea.KeyBackspace:
			return m.apply(action.DeleteBackward{})
		case tea.KeyRunes:
			return m.apply(action.InsertIntoInput{Text: string(msg.Runes)})
		case tea.KeySpace:
			return m.apply(action.InsertIntoInput{Text: " "})
		}
	}
	return nil
}

func (m *Model) currentPickerQuery() string {
	if m.app.Picker == nil {
		return ""
	}
	return m.app.Picker.State.Query
}

func trimLastRune(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return string(r[:len(r)-1])
}

// completeFilePrompt turns the buffered filename into the dump/save-block
// action named by App.PendingFilePrompt, trimming a trailing "!" as the
// force-overwrite marker (grounded on vim's ":w!" convention, in lieu of a
// separate confirmation dialog).
func (m *Model) completeFilePrompt() tea.Cmd {
	filename := strings.TrimSpace(m.app.UI.InputText)
	overwrite := strings.HasSuffix(filename, "!")
	filename = strings.TrimSuffix(filename, "!")
	if filename == "" {
		return nil
	}
	switch m.app.PendingFilePrompt.Kind {
	case "save_block":
		return m.apply(action.CompleteFilePromptSaveBlock{
			Filename:  filename,
			Content:   m.app.PendingFilePrompt.Content,
			Overwrite: overwrite,
		})
	default:
		return m.apply(action.CompleteFilePromptDump{Filename: filename, Overwrite: overwrite})
	}
}

// completeInPlaceEdit turns the buffered input into the action named by
// App.PendingInPlaceEdit (set when EditSelectChoose opened this mode):
// CompleteAssistantEdit for the trailing assistant reply, CompleteInPlaceEdit
// (truncate-and-replace by index) for every other editable message.
func (m *Model) completeInPlaceEdit() tea.Cmd {
	text := m.app.UI.InputText
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if m.app.PendingInPlaceEdit.IsLastAssistant {
		return m.apply(action.CompleteAssistantEdit{Content: text})
	}
	return m.apply(action.CompleteInPlaceEdit{Index: m.app.PendingInPlaceEdit.Index, NewText: text})
}

// submitMCPPrompt hands the buffered "<server> <prompt> [key=value ...]"
// line to SubmitMCPPrompt once Enter is pressed in ModeMCPPrompt.
func (m *Model) submitMCPPrompt() tea.Cmd {
	line := strings.TrimSpace(m.app.UI.InputText)
	if line == "" {
		return nil
	}
	return m.apply(action.SubmitMCPPrompt{Line: line})
}

// handleStreamEvent translates one httpchat.Event into the Action it
// represents and, unless the stream just terminated, re-issues the
// listen-Cmd so the next event is picked up (the teacher's
// listenForStreamEvents re-issue step in internal/tui/chat/chat.go).
func (m *Model) handleStreamEvent(ev httpchat.Event) tea.Cmd {
	var applyCmd tea.Cmd
	switch ev.Type {
	case httpchat.EventTextDelta:
		applyCmd = m.apply(action.AppendResponseChunk{Content: ev.Text, StreamID: ev.StreamID})
	case httpchat.EventReasoningDelta:
		applyCmd = m.apply(action.AppendReasoningChunk{Content: ev.Text, StreamID: ev.StreamID})
	case httpchat.EventToolCalls:
		applyCmd = m.apply(action.ToolCallsReceived{StreamID: ev.StreamID, Calls: toActionToolCalls(ev.Calls)})
	case httpchat.EventErrored:
		applyCmd = m.apply(action.StreamErrored{Message: ev.Err, StreamID: ev.StreamID})
	case httpchat.EventCompleted:
		applyCmd = m.apply(action.StreamCompleted{StreamID: ev.StreamID})
		return applyCmd
	}
	if m.streamChan == nil {
		return applyCmd
	}
	return tea.Batch(applyCmd, waitForStreamEvent(m.streamChan))
}

func toActionToolCalls(calls []httpchat.ToolCall) []action.ToolCall {
	out := make([]action.ToolCall, len(calls))
	for i, c := range calls {
		out[i] = action.ToolCall{ID: c.ID, Name: c.Function.Name, Arguments: c.Function.Arguments}
	}
	return out
}
