// Package action implements chabeau's action dispatcher (C12): the typed
// action taxonomy, the App aggregate every action mutates, and the pure
// apply_action function that turns one action into an optional side-effect
// Command (spec §4.8). Grounded on the teacher's tea.Msg-driven Update
// switch in internal/tui/chat/chat.go and internal/tui/chat/handlers.go,
// restructured around the spec's explicit action/command split instead of
// bubbletea's single Update(msg) tea.Cmd contract — internal/tui adapts
// bubbletea messages into Actions and Commands into bubbletea tea.Cmds.
package action

import (
	"context"

	"github.com/chabeau/chabeau/internal/appsession"
	"github.com/chabeau/chabeau/internal/chatlog"
	"github.com/chabeau/chabeau/internal/config"
	"github.com/chabeau/chabeau/internal/credentials"
	"github.com/chabeau/chabeau/internal/inspect"
	"github.com/chabeau/chabeau/internal/mcpclient"
	"github.com/chabeau/chabeau/internal/picker"
	"github.com/chabeau/chabeau/internal/profile"
	chatrender "github.com/chabeau/chabeau/internal/render/chat"
	"github.com/chabeau/chabeau/internal/uistate"
)

// App is the single owner of chabeau's mutable runtime state (spec §3
// "Ownership: App exclusively owns Session, UiState, Conversation,
// PickerController, InspectController, McpManager, PersonaManager,
// PresetManager, CharacterService"). Every Action is applied to an App by
// ApplyAction; no other code mutates these fields directly.
type App struct {
	Session      *appsession.Session
	UI           *uistate.State
	Conversation *chatlog.Conversation
	Picker       *picker.Session // nil when no picker is open
	Inspect      *inspect.State  // nil when inspect is closed

	MCP       *mcpclient.Manager
	Personas  *profile.PersonaManager
	Presets   *profile.PresetManager
	Characters *profile.CharacterService

	Config      *config.Config
	Credentials *credentials.Store
	Renderer    *chatrender.Renderer

	ActiveCharacter string
	ActivePersona   string
	ActivePreset    string

	// PendingFilePrompt names which file-prompt flow is waiting on a
	// filename once ModeFilePrompt is active (spec §4.1 "file prompt...
	// dump conversation / save code block to a file"): Kind is "dump" or
	// "save_block"; Content holds the text to write for save_block (dump
	// always derives its content fresh from Conversation at write time).
	PendingFilePrompt PendingFilePrompt

	// EditSelectIndex is the conversation index currently highlighted
	// while uistate.ModeEditSelect is active (spec §4.1 "edit_select").
	EditSelectIndex int

	// BlockSelectIndex indexes into chatrender.CodeBlocks(Conversation)
	// while uistate.ModeBlockSelect is active (spec §4.1 "block_select").
	BlockSelectIndex int

	// PendingInPlaceEdit names which message ModeInPlaceEdit is editing,
	// set by EditSelectChoose when it hands off to in-place edit.
	PendingInPlaceEdit PendingInPlaceEdit

	// Quit is set by ProcessCommand("/quit") and checked by the chat loop
	// after draining each batch of actions.
	Quit bool
}

// NewApp assembles a fresh App from its constructed subsystems.
func NewApp(sess *appsession.Session, cfg *config.Config, mcp *mcpclient.Manager) *App {
	return &App{
		Session:      sess,
		UI:           uistate.New(),
		Conversation: chatlog.NewConversation(),
		MCP:          mcp,
		Personas:     profile.LoadPersonaManager(cfg),
		Presets:      profile.LoadPresetManager(cfg),
		Config:       cfg,
		Credentials:  credentials.NewStore(credentials.ServiceProviders),
		Renderer:     chatrender.NewRenderer(),
	}
}

// PendingFilePrompt is App.PendingFilePrompt's value type.
type PendingFilePrompt struct {
	Kind    string
	Content string
}

// PendingInPlaceEdit is App.PendingInPlaceEdit's value type. IsLastAssistant
// marks the one case that completes via CompleteAssistantEdit (editing the
// trailing assistant reply, which needs no index since it always targets
// the last message) rather than CompleteInPlaceEdit's truncate-and-replace
// by Index, which every other editable position uses.
type PendingInPlaceEdit struct {
	Index           int
	IsLastAssistant bool
}

// Context carries per-turn values an action handler needs but that don't
// belong on App itself (spec §4.8 "AppActionEnvelope{action, context{
// term_width, term_height}}").
type Context struct {
	TermWidth  int
	TermHeight int
}

// Command is a side effect the core cannot perform synchronously (spec
// §4.8 "Commands are side-effects the core cannot perform itself"). The
// chat loop (C14) executes a Command by spawning a background task that
// eventually sends further Actions back.
type Command interface {
	isCommand()
}

// SpawnStream asks the loop to start a new HTTP chat stream (spec §4.8).
// Ctx is the per-stream context returned by Session.StartStream: it is
// canceled the moment CancelStream fires, which is how Ctrl+C/Esc and
// provider/model switches actually abort the in-flight request.
type SpawnStream struct {
	Ctx      context.Context
	StreamID uint64
	Messages []chatlog.Message
}

func (SpawnStream) isCommand() {}

// LoadModelPicker asks the loop to fetch the provider's model list before
// opening the model picker (spec §4.8).
type LoadModelPicker struct {
	ProviderID string
}

func (LoadModelPicker) isCommand() {}

// RunSamplingRequest asks the loop to answer a server-initiated MCP
// sampling/createMessage request (spec §4.3 "Server→client requests").
type RunSamplingRequest struct {
	ServerID string
	Request  any
}

func (RunSamplingRequest) isCommand() {}

// RunToolCalls asks the loop to execute every assembled tool call against
// McpManager and report ToolResultsReceived once all have finished (spec
// §4.2 "On finish_reason == tool_calls... dispatch each call to the
// McpManager").
type RunToolCalls struct {
	StreamID uint64
	Calls    []ToolCall
}

func (RunToolCalls) isCommand() {}

// RunExternalEditor asks the loop to suspend raw mode and run $EDITOR on a
// temp file (spec §4.1 "Ctrl+T opens external editor").
type RunExternalEditor struct {
	Seed string
}

func (RunExternalEditor) isCommand() {}

// WriteFile asks the loop to write Content to Path, the side effect behind
// the file-prompt dump/save-block flows (spec §4.1 "file prompt... dump
// conversation / save code block to a file").
type WriteFile struct {
	Path      string
	Content   string
	Overwrite bool
}

func (WriteFile) isCommand() {}

// RunMCPPrompt asks the loop to resolve one MCP prompt template via
// prompts/get and report the result back as MCPPromptLoaded/MCPPromptFailed
// (spec §4.1 "mcp_prompt", §4.3 "prompts/get").
type RunMCPPrompt struct {
	ServerID string
	Name     string
	Args     map[string]string
}

func (RunMCPPrompt) isCommand() {}
