package action

import (
	"context"
	"fmt"
	"strings"

	"github.com/chabeau/chabeau/internal/chatlog"
	"github.com/chabeau/chabeau/internal/config"
	"github.com/chabeau/chabeau/internal/inspect"
	"github.com/chabeau/chabeau/internal/mcpclient"
	"github.com/chabeau/chabeau/internal/picker"
	"github.com/chabeau/chabeau/internal/profile"
	"github.com/chabeau/chabeau/internal/provider"
	chatrender "github.com/chabeau/chabeau/internal/render/chat"
	"github.com/chabeau/chabeau/internal/theme"
	"github.com/chabeau/chabeau/internal/uistate"
)

// ApplyAction applies one Action to App, returning an optional Command for
// the loop to execute (spec §4.8 "apply_action(&mut App, action, ctx) ->
// Option<AppCommand>"). This is the dispatcher's only mutation path: every
// other package that wants to change App's state does so by producing an
// Action and letting the loop route it here.
func ApplyAction(app *App, a Action, ctx Context) Command {
	switch act := a.(type) {

	case AppendResponseChunk:
		if !gate(app, act.StreamID) {
			return nil
		}
		app.Conversation.AppendChunk(act.Content)
		app.Renderer.InvalidateCache()
		return nil

	case AppendReasoningChunk:
		if !gate(app, act.StreamID) {
			return nil
		}
		app.Conversation.Append(chatlog.Message{Role: chatlog.RoleAppLog, Content: act.Content})
		app.Renderer.InvalidateCache()
		return nil

	case StreamErrored:
		if !gate(app, act.StreamID) {
			return nil
		}
		app.Conversation.Append(chatlog.Message{Role: chatlog.RoleAppError, Content: act.Message})
		app.Renderer.InvalidateCache()
		return nil

	case StreamCompleted:
		if act.StreamID == app.Session.CurrentStreamID() {
			app.Session.FinishStream(act.StreamID)
			if logger := app.Session.Logger(); logger != nil {
				if msgs := app.Conversation.Messages(); len(msgs) > 0 {
					last := msgs[len(msgs)-1]
					if last.Role == chatlog.RoleAssistant {
						logger.LogAssistant(last.Content)
					}
				}
			}
		}
		return nil

	case ToolCallsReceived:
		if !gate(app, act.StreamID) {
			return nil
		}
		calls := make([]chatlog.ToolCall, len(act.Calls))
		for i, c := range act.Calls {
			calls[i] = chatlog.ToolCall{ID: c.ID, Name: c.Name, Arguments: c.Arguments}
		}
		app.Conversation.Append(chatlog.Message{Role: chatlog.RoleAssistant, ToolCalls: calls})
		app.Renderer.InvalidateCache()
		if app.MCP == nil || len(act.Calls) == 0 {
			return nil
		}
		return RunToolCalls{StreamID: act.StreamID, Calls: act.Calls}

	case ToolResultsReceived:
		if !gate(app, act.StreamID) {
			return nil
		}
		for _, r := range act.Results {
			app.Conversation.Append(chatlog.Message{Role: chatlog.RoleTool, Content: r.Content, ToolCallID: r.CallID})
		}
		app.Conversation.Append(chatlog.Message{Role: chatlog.RoleAssistant})
		app.Renderer.InvalidateCache()
		streamCtx, id := app.Session.StartStream(context.Background())
		return SpawnStream{Ctx: streamCtx, StreamID: id, Messages: wireMessages(app)}

	case SubmitMessage:
		text := strings.TrimSpace(act.Text)
		if text == "" {
			return nil
		}
		if app.Session.StreamActive() {
			app.Session.CancelStream()
		}
		app.Conversation.Append(chatlog.Message{Role: chatlog.RoleUser, Content: text})
		app.Conversation.Append(chatlog.Message{Role: chatlog.RoleAssistant})
		app.UI.ClearInput()
		app.UI.ScrollToBottom(0) // loop recomputes the true max offset on redraw
		app.Renderer.InvalidateCache()
		if logger := app.Session.Logger(); logger != nil {
			logger.LogUser(app.UI.UserDisplayName, text)
		}
		streamCtx, id := app.Session.StartStream(context.Background())
		return SpawnStream{Ctx: streamCtx, StreamID: id, Messages: wireMessages(app)}

	case RetryLastMessage:
		truncateToLastUser(app)
		app.Conversation.Append(chatlog.Message{Role: chatlog.RoleAssistant})
		app.Renderer.InvalidateCache()
		streamCtx, id := app.Session.StartStream(context.Background())
		return SpawnStream{Ctx: streamCtx, StreamID: id, Messages: wireMessages(app)}

	case RefineLastMessage:
		truncateToLastUser(app)
		msgs := app.Conversation.Messages()
		if len(msgs) > 0 {
			refined := msgs[len(msgs)-1].Content + "\n\n" + act.Prompt
			app.Conversation.Truncate(len(msgs) - 1)
			app.Conversation.Append(chatlog.Message{Role: chatlog.RoleUser, Content: refined})
		}
		app.Conversation.Append(chatlog.Message{Role: chatlog.RoleAssistant})
		app.Renderer.InvalidateCache()
		streamCtx, id := app.Session.StartStream(context.Background())
		return SpawnStream{Ctx: streamCtx, StreamID: id, Messages: wireMessages(app)}

	case CancelStreaming:
		app.Session.CancelStream()
		return nil

	case ProcessCommand:
		return applyCommand(app, act.Line)

	case InsertIntoInput:
		app.UI.InsertAtCursor(act.Text)
		return nil

	case ClearInput:
		app.UI.ClearInput()
		return nil

	case DeleteBackward:
		app.UI.DeleteBackward()
		return nil

	case DeleteWordBackward:
		app.UI.DeleteWordBackward()
		return nil

	case SetStatus:
		app.UI.SetStatus(act.Message)
		return nil

	case ClearStatus:
		app.UI.ClearStatus()
		return nil

	case ToggleComposeMode:
		app.UI.ToggleComposeMode()
		return nil

	case CancelFilePrompt:
		app.UI.Leave(uistate.ModeFilePrompt)
		return nil

	case CancelInPlaceEdit:
		app.UI.Leave(uistate.ModeInPlaceEdit)
		return nil

	case CompleteInPlaceEdit:
		applyInPlaceEdit(app, act.Index, act.NewText)
		app.UI.Leave(uistate.ModeInPlaceEdit)
		return nil

	case CompleteAssistantEdit:
		msgs := app.Conversation.Messages()
		if len(msgs) > 0 {
			app.Conversation.Truncate(len(msgs) - 1)
			app.Conversation.Append(chatlog.Message{Role: chatlog.RoleAssistant, Content: act.Content})
		}
		app.Renderer.InvalidateCache()
		return nil

	case EnterEditSelect:
		if _, ok := app.UI.ActiveModal(); ok {
			return nil
		}
		indices := editableIndices(app)
		if len(indices) == 0 {
			app.UI.SetStatus("no messages to edit")
			return nil
		}
		app.EditSelectIndex = indices[len(indices)-1]
		app.UI.EnterModal(uistate.ModeEditSelect)
		return nil

	case EditSelectUp:
		moveEditSelect(app, -1)
		return nil

	case EditSelectDown:
		moveEditSelect(app, 1)
		return nil

	case EditSelectChoose:
		return applyEditSelectChoose(app)

	case EditSelectEscape:
		app.UI.Leave(uistate.ModeEditSelect)
		return nil

	case EnterBlockSelect:
		if _, ok := app.UI.ActiveModal(); ok {
			return nil
		}
		blocks := chatrender.CodeBlocks(app.Conversation.Messages())
		if len(blocks) == 0 {
			app.UI.SetStatus("no code blocks to select")
			return nil
		}
		app.BlockSelectIndex = len(blocks) - 1
		app.UI.EnterModal(uistate.ModeBlockSelect)
		return nil

	case BlockSelectUp:
		moveBlockSelect(app, -1)
		return nil

	case BlockSelectDown:
		moveBlockSelect(app, 1)
		return nil

	case BlockSelectSave:
		return applyBlockSelectSave(app)

	case BlockSelectEscape:
		app.UI.Leave(uistate.ModeBlockSelect)
		return nil

	case OpenMCPPrompt:
		if _, ok := app.UI.ActiveModal(); ok {
			return nil
		}
		if app.MCP == nil || !app.MCP.AnyPromptsAvailable() {
			app.UI.SetStatus("no mcp servers are advertising prompts")
			return nil
		}
		app.UI.ClearInput()
		app.UI.EnterModal(uistate.ModeMCPPrompt)
		return nil

	case CancelMCPPrompt:
		app.UI.Leave(uistate.ModeMCPPrompt)
		app.UI.ClearInput()
		return nil

	case SubmitMCPPrompt:
		server, prompt, args, err := mcpclient.ParsePromptCommand(act.Line)
		if err != nil {
			app.UI.SetStatus(err.Error())
			return nil
		}
		app.UI.Leave(uistate.ModeMCPPrompt)
		app.UI.ClearInput()
		app.UI.SetStatus(fmt.Sprintf("loading mcp prompt %s/%s…", server, prompt))
		return RunMCPPrompt{ServerID: server, Name: prompt, Args: args}

	case MCPPromptLoaded:
		app.UI.ClearStatus()
		app.UI.InsertAtCursor(act.Content)
		return nil

	case MCPPromptFailed:
		app.UI.SetStatus(act.Error)
		return nil

	case PickerOpen:
		app.Picker = act.Session
		app.UI.EnterModal(uistate.ModePicker)
		return nil

	case PickerMoveUp:
		withPicker(app, (*picker.Session).MoveUp)
		return nil

	case PickerMoveDown:
		withPicker(app, (*picker.Session).MoveDown)
		return nil

	case PickerMoveStart:
		withPicker(app, (*picker.Session).MoveStart)
		return nil

	case PickerMoveEnd:
		withPicker(app, (*picker.Session).MoveEnd)
		return nil

	case PickerCycleSort:
		withPicker(app, (*picker.Session).CycleSort)
		return nil

	case PickerFilter:
		if app.Picker != nil {
			app.Picker.SetQuery(act.Query)
		}
		return nil

	case PickerApply:
		return applyPickerSelection(app, act.Persistent)

	case PickerUnsetDefault:
		applyPickerUnsetDefault(app)
		return nil

	case PickerInspect:
		if app.Picker != nil {
			if item, ok := app.Picker.SelectedItem(); ok {
				var b strings.Builder
				fmt.Fprintf(&b, "id: %s\n", item.ID)
				for k, v := range item.Metadata {
					fmt.Fprintf(&b, "%s: %s\n", k, v)
				}
				app.Inspect = inspect.NewStatic(item.Label, b.String())
				app.UI.EnterModal(uistate.ModeInspect)
			}
		}
		return nil

	case PickerEscape:
		if app.Picker != nil {
			app.Picker.Revert()
			if app.Picker.Mode == picker.ModeTheme {
				applyThemePreview(app)
			}
		}
		app.Picker = nil
		app.UI.Leave(uistate.ModePicker)
		return nil

	case ModelPickerLoaded:
		app.Picker = act.Session
		app.UI.EnterModal(uistate.ModePicker)
		return nil

	case ModelPickerLoadFailed:
		app.UI.SetStatus("failed to load models: " + act.Error)
		app.Picker = nil
		app.UI.Leave(uistate.ModePicker)
		return nil

	case CompleteFilePromptDump:
		app.UI.Leave(uistate.ModeFilePrompt)
		return WriteFile{Path: act.Filename, Content: transcriptText(app), Overwrite: act.Overwrite}

	case CompleteFilePromptSaveBlock:
		app.UI.Leave(uistate.ModeFilePrompt)
		return WriteFile{Path: act.Filename, Content: act.Content, Overwrite: act.Overwrite}

	case InspectClose:
		app.Inspect = nil
		if app.Picker != nil {
			app.UI.EnterModal(uistate.ModePicker)
		} else {
			app.UI.Leave(uistate.ModeInspect)
		}
		return nil

	case InspectToggleView:
		if app.Inspect != nil {
			app.Inspect.ToggleView()
		}
		return nil

	case InspectScrollUp:
		if app.Inspect != nil {
			app.Inspect.ScrollUp(act.Lines)
		}
		return nil

	case InspectScrollDown:
		if app.Inspect != nil {
			app.Inspect.ScrollDown(act.Lines, 1<<30)
		}
		return nil

	case ScrollUp:
		app.UI.ScrollUp(act.Lines, 1<<30)
		return nil

	case ScrollDown:
		app.UI.ScrollDown(act.Lines, 1<<30)
		return nil

	case ScrollToBottom:
		app.UI.ScrollToBottom(1 << 30)
		return nil

	case Resize:
		app.Renderer.InvalidateCache()
		return nil
	}
	return nil
}

// gate implements spec §4.8's stream-id invariant: "any event with an id
// != current_stream_id is discarded by the handler" (spec §8 "Stream id
// gating" law).
func gate(app *App, streamID uint64) bool {
	return streamID == app.Session.CurrentStreamID()
}

func truncateToLastUser(app *App) {
	msgs := app.Conversation.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == chatlog.RoleUser {
			app.Conversation.Truncate(i + 1)
			return
		}
	}
}

func applyInPlaceEdit(app *App, index int, newText string) {
	msgs := app.Conversation.Messages()
	if index < 0 || index >= len(msgs) {
		return
	}
	app.Conversation.Truncate(index)
	app.Conversation.Append(chatlog.Message{Role: msgs[index].Role, Content: newText})
	app.Renderer.InvalidateCache()
}

// editableIndices returns conversation indices eligible for edit-select:
// user and assistant messages that carry content (an empty assistant
// message is a still-streaming placeholder, not yet editable).
func editableIndices(app *App) []int {
	var out []int
	for i, m := range app.Conversation.Messages() {
		if (m.Role == chatlog.RoleUser || m.Role == chatlog.RoleAssistant) && m.Content != "" {
			out = append(out, i)
		}
	}
	return out
}

// wrapIndex advances pos by delta within [0, n), wrapping at both ends —
// the cyclic up/down navigation edit-select and block-select share.
func wrapIndex(pos, delta, n int) int {
	if n == 0 {
		return 0
	}
	pos = (pos + delta) % n
	if pos < 0 {
		pos += n
	}
	return pos
}

func moveEditSelect(app *App, delta int) {
	indices := editableIndices(app)
	if len(indices) == 0 {
		return
	}
	pos := 0
	for i, v := range indices {
		if v == app.EditSelectIndex {
			pos = i
			break
		}
	}
	app.EditSelectIndex = indices[wrapIndex(pos, delta, len(indices))]
}

// applyEditSelectChoose hands the highlighted message off to
// ModeInPlaceEdit, pre-filling the input with its current text (spec
// §4.8 "EditSelectChoose").
func applyEditSelectChoose(app *App) Command {
	msgs := app.Conversation.Messages()
	idx := app.EditSelectIndex
	app.UI.Leave(uistate.ModeEditSelect)
	if idx < 0 || idx >= len(msgs) {
		return nil
	}
	isLastAssistant := msgs[idx].Role == chatlog.RoleAssistant && idx == len(msgs)-1
	app.PendingInPlaceEdit = PendingInPlaceEdit{Index: idx, IsLastAssistant: isLastAssistant}
	app.UI.ClearInput()
	app.UI.InsertAtCursor(msgs[idx].Content)
	app.UI.EnterModal(uistate.ModeInPlaceEdit)
	return nil
}

func moveBlockSelect(app *App, delta int) {
	blocks := chatrender.CodeBlocks(app.Conversation.Messages())
	if len(blocks) == 0 {
		return
	}
	app.BlockSelectIndex = wrapIndex(app.BlockSelectIndex, delta, len(blocks))
}

// applyBlockSelectSave queues the highlighted code block as the
// save_block file-prompt payload (spec §4.8 "BlockSelectSave").
func applyBlockSelectSave(app *App) Command {
	blocks := chatrender.CodeBlocks(app.Conversation.Messages())
	app.UI.Leave(uistate.ModeBlockSelect)
	if app.BlockSelectIndex < 0 || app.BlockSelectIndex >= len(blocks) {
		return nil
	}
	app.PendingFilePrompt = PendingFilePrompt{Kind: "save_block", Content: blocks[app.BlockSelectIndex].Content}
	app.UI.ClearInput()
	app.UI.EnterModal(uistate.ModeFilePrompt)
	return nil
}

// transcriptText renders the conversation as plain text, the format a
// dumped-to-file transcript takes (spec §4.1 "dump conversation to a file").
func transcriptText(app *App) string {
	var b strings.Builder
	for _, m := range app.Conversation.Messages() {
		fmt.Fprintf(&b, "%s: %s\n\n", m.Role, m.Content)
	}
	return b.String()
}

// wireMessages converts the conversation to the wire shape httpchat.Spawn
// expects (spec §6 "Wire"). Kept in this package (rather than httpchat) so
// httpchat stays free of any dependency on chatlog/App.
func wireMessages(app *App) []chatlog.Message {
	return append([]chatlog.Message(nil), app.Conversation.Messages()...)
}

func withPicker(app *App, fn func(*picker.Session)) {
	if app.Picker != nil {
		fn(app.Picker)
	}
}

func applyThemePreview(app *App) {
	if app.Picker == nil || app.Picker.Mode != picker.ModeTheme {
		return
	}
	item, ok := app.Picker.SelectedItem()
	if !ok {
		return
	}
	if cfg, ok := theme.Resolve(app.Config, item.ID); ok {
		app.UI.Theme = theme.Build(cfg, theme.DetectDepth())
		app.UI.CurrentThemeID = item.ID
	}
}

func applyPickerUnsetDefault(app *App) {
	if app.Picker == nil || app.Config == nil {
		return
	}
	switch app.Picker.Mode {
	case picker.ModeModel:
		config.Mutate(func(c *config.Config) error {
			delete(c.DefaultModels, app.Session.ProviderID)
			return nil
		})
	case picker.ModeCharacter:
		app.ActiveCharacter = ""
	case picker.ModePersona:
		app.ActivePersona = ""
	case picker.ModePreset:
		app.ActivePreset = ""
	}
}

// applyPickerSelection implements spec §4.6's per-mode "apply" rule.
func applyPickerSelection(app *App, persistent bool) Command {
	if app.Picker == nil {
		return nil
	}
	item, ok := app.Picker.SelectedItem()
	if !ok {
		return nil
	}

	switch app.Picker.Mode {
	case picker.ModeTheme:
		applyThemePreview(app)

	case picker.ModeModel:
		app.Session.Model = item.ID
		if persistent && app.Config != nil {
			config.Mutate(func(c *config.Config) error {
				c.SetDefaultModel(app.Session.ProviderID, item.ID)
				return nil
			})
		}

	case picker.ModeProvider:
		providerID := item.ID
		if persistent && app.Config != nil {
			config.Mutate(func(c *config.Config) error {
				c.DefaultProvider = providerID
				return nil
			})
		}
		var defaultModel string
		hasDefaultModel := false
		if app.Config != nil {
			defaultModel, hasDefaultModel = app.Config.GetDefaultModel(providerID)
		}
		if d, ok := provider.Find(app.Config, providerID); ok {
			if key, ok, err := app.Credentials.Get(providerID); err == nil && ok {
				app.Session.SwitchProvider(provider.Session{
					APIKey:              key,
					BaseURL:             d.BaseURL,
					ProviderID:          d.ID,
					ProviderDisplayName: d.Display,
					Auth:                d.Auth,
				}, defaultModel)
			}
		}
		if !hasDefaultModel {
			app.Picker = nil
			app.UI.Leave(uistate.ModePicker)
			return LoadModelPicker{ProviderID: providerID}
		}

	case picker.ModeCharacter:
		if item.ID == profile.TurnOffCharacterID {
			app.ActiveCharacter = ""
		} else {
			app.ActiveCharacter = item.ID
		}

	case picker.ModePersona:
		if item.ID == profile.TurnOffPersonaID {
			app.ActivePersona = ""
		} else {
			app.ActivePersona = item.ID
		}

	case picker.ModePreset:
		if item.ID == profile.TurnOffPresetID {
			app.ActivePreset = ""
		} else {
			app.ActivePreset = item.ID
		}
	}

	app.Picker = nil
	app.UI.Leave(uistate.ModePicker)
	return nil
}

func applyCommand(app *App, line string) Command {
	line = strings.TrimSpace(line)
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	switch fields[0] {
	case "/quit", "/exit":
		app.Quit = true
	case "/clear":
		app.Conversation = chatlog.NewConversation()
		app.Renderer.InvalidateCache()
	case "/model":
		return LoadModelPicker{ProviderID: app.Session.ProviderID}
	case "/theme":
		app.Picker = picker.NewThemePicker(app.Config, app.UI.CurrentThemeID)
		app.UI.EnterModal(uistate.ModePicker)
	case "/character":
		app.Picker = picker.NewCharacterPicker(app.Characters, app.ActiveCharacter)
		app.UI.EnterModal(uistate.ModePicker)
	case "/persona":
		app.Picker = picker.NewPersonaPicker(app.Personas, app.ActivePersona)
		app.UI.EnterModal(uistate.ModePicker)
	case "/preset":
		app.Picker = picker.NewPresetPicker(app.Presets, app.ActivePreset)
		app.UI.EnterModal(uistate.ModePicker)
	case "/provider":
		app.UI.SetStatus("no provider picker in chat; Ctrl+P opens the model picker")
	case "/dump":
		app.PendingFilePrompt = PendingFilePrompt{Kind: "dump"}
		app.UI.ClearInput()
		app.UI.EnterModal(uistate.ModeFilePrompt)
	default:
		app.Conversation.Append(chatlog.Message{Role: chatlog.RoleAppInfo, Content: "unknown command: " + fields[0]})
		app.Renderer.InvalidateCache()
	}
	return nil
}
