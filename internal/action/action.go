package action

import "github.com/chabeau/chabeau/internal/picker"

// Action is chabeau's action taxonomy (spec §4.8). Each concrete type
// below is one variant.
type Action interface {
	isAction()
}

// --- Streaming actions ---

type AppendResponseChunk struct {
	Content  string
	StreamID uint64
}

func (AppendResponseChunk) isAction() {}

type AppendReasoningChunk struct {
	Content  string
	StreamID uint64
}

func (AppendReasoningChunk) isAction() {}

type StreamErrored struct {
	Message  string
	StreamID uint64
}

func (StreamErrored) isAction() {}

type StreamCompleted struct {
	StreamID uint64
}

func (StreamCompleted) isAction() {}

type ToolCallsReceived struct {
	StreamID uint64
	Calls    []ToolCall
}

func (ToolCallsReceived) isAction() {}

// ToolCall mirrors one assembled tool call from a completed stream (spec
// §4.2 "On finish_reason == tool_calls, emit a ToolCalls action").
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolResultsReceived carries every tool's output back from a RunToolCalls
// command, in call order, so the core can append them and spawn the
// follow-up completion request (spec §4.2 "tool results are appended as
// tool-role messages and a new completion request is issued").
type ToolResultsReceived struct {
	StreamID uint64
	Results  []ToolResult
}

func (ToolResultsReceived) isAction() {}

// ToolResult is one executed tool call's outcome.
type ToolResult struct {
	CallID  string
	Content string
}

type SubmitMessage struct {
	Text string
}

func (SubmitMessage) isAction() {}

type RetryLastMessage struct{}

func (RetryLastMessage) isAction() {}

type RefineLastMessage struct {
	Prompt string
}

func (RefineLastMessage) isAction() {}

type CancelStreaming struct{}

func (CancelStreaming) isAction() {}

// --- Input actions ---

type ProcessCommand struct {
	Line string
}

func (ProcessCommand) isAction() {}

type InsertIntoInput struct {
	Text string
}

func (InsertIntoInput) isAction() {}

type ClearInput struct{}

func (ClearInput) isAction() {}

type DeleteBackward struct{}

func (DeleteBackward) isAction() {}

type DeleteWordBackward struct{}

func (DeleteWordBackward) isAction() {}

type SetStatus struct {
	Message string
}

func (SetStatus) isAction() {}

type ClearStatus struct{}

func (ClearStatus) isAction() {}

type ToggleComposeMode struct{}

func (ToggleComposeMode) isAction() {}

type CancelFilePrompt struct{}

func (CancelFilePrompt) isAction() {}

type CancelInPlaceEdit struct{}

func (CancelInPlaceEdit) isAction() {}

type CompleteInPlaceEdit struct {
	Index   int
	NewText string
}

func (CompleteInPlaceEdit) isAction() {}

type CompleteAssistantEdit struct {
	Content string
}

func (CompleteAssistantEdit) isAction() {}

// --- Edit-select actions (spec §4.1 "edit_select" mode context, §4.8) ---

// EnterEditSelect opens edit-select over every user/assistant message in
// the conversation (spec §4.1 "a key to pick a prior message for
// in-place editing").
type EnterEditSelect struct{}

func (EnterEditSelect) isAction() {}

type EditSelectUp struct{}

func (EditSelectUp) isAction() {}

type EditSelectDown struct{}

func (EditSelectDown) isAction() {}

// EditSelectChoose hands the currently highlighted message off to
// ModeInPlaceEdit, pre-filling the input with its text.
type EditSelectChoose struct{}

func (EditSelectChoose) isAction() {}

type EditSelectEscape struct{}

func (EditSelectEscape) isAction() {}

// --- Block-select actions (spec §4.1 "block_select" mode context, §4.8) ---

// EnterBlockSelect opens block-select over every fenced code block in the
// conversation (spec §4.1 "Ctrl+B enters block select").
type EnterBlockSelect struct{}

func (EnterBlockSelect) isAction() {}

type BlockSelectUp struct{}

func (BlockSelectUp) isAction() {}

type BlockSelectDown struct{}

func (BlockSelectDown) isAction() {}

// BlockSelectSave opens ModeFilePrompt with the currently highlighted
// block queued as the save_block payload.
type BlockSelectSave struct{}

func (BlockSelectSave) isAction() {}

type BlockSelectEscape struct{}

func (BlockSelectEscape) isAction() {}

// --- MCP prompt actions (spec §4.1 "mcp_prompt" mode context, §4.3) ---

// OpenMCPPrompt opens ModeMCPPrompt, gated on at least one connected server
// advertising a prompt (spec §4.3 "prompts/list").
type OpenMCPPrompt struct{}

func (OpenMCPPrompt) isAction() {}

type CancelMCPPrompt struct{}

func (CancelMCPPrompt) isAction() {}

// SubmitMCPPrompt parses Line as "<server> <prompt> [key=value ...]" and
// asks the loop to resolve it via prompts/get (spec §4.3).
type SubmitMCPPrompt struct {
	Line string
}

func (SubmitMCPPrompt) isAction() {}

// MCPPromptLoaded carries a resolved prompt's rendered text back from
// RunMCPPrompt, inserted into the input buffer for the user to review
// before sending.
type MCPPromptLoaded struct {
	Content string
}

func (MCPPromptLoaded) isAction() {}

type MCPPromptFailed struct {
	Error string
}

func (MCPPromptFailed) isAction() {}

// --- Picker actions (spec §4.6) ---

type PickerOpen struct {
	Session *picker.Session
}

func (PickerOpen) isAction() {}

type PickerMoveUp struct{}

func (PickerMoveUp) isAction() {}

type PickerMoveDown struct{}

func (PickerMoveDown) isAction() {}

type PickerMoveStart struct{}

func (PickerMoveStart) isAction() {}

type PickerMoveEnd struct{}

func (PickerMoveEnd) isAction() {}

type PickerCycleSort struct{}

func (PickerCycleSort) isAction() {}

type PickerFilter struct {
	Query string
}

func (PickerFilter) isAction() {}

type PickerApply struct {
	Persistent bool
}

func (PickerApply) isAction() {}

type PickerUnsetDefault struct{}

func (PickerUnsetDefault) isAction() {}

type PickerInspect struct{}

func (PickerInspect) isAction() {}

type PickerEscape struct{}

func (PickerEscape) isAction() {}

type ModelPickerLoaded struct {
	Session *picker.Session
}

func (ModelPickerLoaded) isAction() {}

type ModelPickerLoadFailed struct {
	Error string
}

func (ModelPickerLoadFailed) isAction() {}

// --- File prompt actions (spec §4.8) ---

type CompleteFilePromptDump struct {
	Filename  string
	Overwrite bool
}

func (CompleteFilePromptDump) isAction() {}

type CompleteFilePromptSaveBlock struct {
	Filename  string
	Content   string
	Overwrite bool
}

func (CompleteFilePromptSaveBlock) isAction() {}

// --- Inspect actions (spec §4.6 "Inspect integration") ---

type InspectClose struct{}

func (InspectClose) isAction() {}

type InspectToggleView struct{}

func (InspectToggleView) isAction() {}

type InspectScrollUp struct{ Lines int }

func (InspectScrollUp) isAction() {}

type InspectScrollDown struct{ Lines int }

func (InspectScrollDown) isAction() {}

// --- Scroll actions (spec §4.5 "Scroll") ---

type ScrollUp struct{ Lines int }

func (ScrollUp) isAction() {}

type ScrollDown struct{ Lines int }

func (ScrollDown) isAction() {}

type ScrollToBottom struct{}

func (ScrollToBottom) isAction() {}

type Resize struct {
	Width, Height int
}

func (Resize) isAction() {}
