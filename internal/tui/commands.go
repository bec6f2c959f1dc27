package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chabeau/chabeau/internal/action"
	"github.com/chabeau/chabeau/internal/chatlog"
	"github.com/chabeau/chabeau/internal/httpchat"
	"github.com/chabeau/chabeau/internal/logging"
)

// streamEventMsg wraps one event pulled off a SpawnStream's channel.
type streamEventMsg struct{ ev httpchat.Event }

// streamClosedMsg signals the stream channel was closed without a final
// Completed event being read, which happens when the stream's context is
// canceled mid-stream: Spawn then closes the channel without sending one.
type streamClosedMsg struct{ streamID uint64 }

type modelsLoadedMsg struct {
	providerID string
	models     []httpchat.Model
	err        error
}

type fileWrittenMsg struct {
	path string
	err  error
}

type toolResultsMsg struct {
	streamID uint64
	results  []action.ToolResult
}

type editorDoneMsg struct {
	text string
	err  error
}

type statusMsg struct{ text string }

type mcpPromptLoadedMsg struct {
	content string
	err     error
}

// execCommand turns one action.Command into the tea.Cmd that performs its
// side effect and eventually feeds a result back through Update (spec
// §4.8 "Commands are side-effects the core cannot perform itself").
func (m *Model) execCommand(cmd action.Command) tea.Cmd {
	switch c := cmd.(type) {

	case action.SpawnStream:
		return m.startStream(c)

	case action.LoadModelPicker:
		return m.loadModelPicker(c.ProviderID)

	case action.RunToolCalls:
		return m.runToolCalls(c)

	case action.RunExternalEditor:
		return m.runExternalEditor(c.Seed)

	case action.WriteFile:
		return writeFile(c)

	case action.RunMCPPrompt:
		return m.runMCPPrompt(c)

	case action.RunSamplingRequest:
		// MCP server-initiated sampling/createMessage requests are answered
		// by the server's own declared sampling handler, not by a chat
		// completion through this model's provider; chabeau's MCP manager
		// does not yet expose a sampling callback hook; record the gap in
		// status rather than silently dropping the request (spec §4.3
		// open question, resolved in DESIGN.md).
		return func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("sampling request from %s not supported", c.ServerID)}
		}
	}
	return nil
}

// startStream issues the HTTP request and returns the tea.Cmd that waits
// for its first event, grounded on the teacher's startStream/
// listenForStreamEvents pair in internal/tui/chat/chat.go: a goroutine (here,
// SpawnWithRetry's own internal goroutine) produces events on a channel,
// and a tea.Cmd blocks on a channel receive, translating each receive into
// a tea.Msg that re-issues the same listen-Cmd.
func (m *Model) startStream(c action.SpawnStream) tea.Cmd {
	params := httpchat.Params{
		Client:     m.app.Session.Client,
		BaseURL:    m.app.Session.BaseURL,
		APIKey:     m.app.Session.APIKey,
		ProviderID: m.app.Session.ProviderID,
		Auth:       m.app.Session.Auth,
		Model:      m.app.Session.Model,
		Messages:   toWireMessages(c.Messages),
		Tools:      m.tools(),
		StreamID:   c.StreamID,
	}
	ch, err := httpchat.SpawnWithRetry(logging.WithContext(c.Ctx, "httpchat"), params, m.retry, nil)
	if err != nil {
		return func() tea.Msg {
			return streamEventMsg{ev: httpchat.Event{Type: httpchat.EventErrored, StreamID: c.StreamID, Err: err.Error()}}
		}
	}
	m.streamChan = ch
	return waitForStreamEvent(ch)
}

// waitForStreamEvent is the teacher's listenForStreamEvents, generalized
// over any channel: it blocks on exactly one receive and returns, leaving
// Update responsible for re-issuing it.
func waitForStreamEvent(ch <-chan httpchat.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return streamEventMsg{ev: ev}
	}
}

func (m *Model) tools() []httpchat.Tool {
	if m.app.MCP == nil {
		return nil
	}
	specs := m.app.MCP.AllTools()
	if len(specs) == 0 {
		return nil
	}
	out := make([]httpchat.Tool, len(specs))
	for i, s := range specs {
		schema, _ := json.Marshal(s.Schema)
		out[i].Type = "function"
		out[i].Function.Name = s.Name
		out[i].Function.Description = s.Description
		out[i].Function.Parameters = schema
	}
	return out
}

func toWireMessages(msgs []chatlog.Message) []httpchat.Message {
	out := make([]httpchat.Message, len(msgs))
	for i, m := range msgs {
		wm := httpchat.Message{Role: string(m.Role), Content: m.Content, ToolCallID: m.ToolCallID}
		for _, tc := range m.ToolCalls {
			var call httpchat.ToolCall
			call.ID = tc.ID
			call.Type = "function"
			call.Function.Name = tc.Name
			call.Function.Arguments = tc.Arguments
			wm.ToolCalls = append(wm.ToolCalls, call)
		}
		out[i] = wm
	}
	return out
}

func (m *Model) loadModelPicker(providerID string) tea.Cmd {
	sess := m.app.Session
	return func() tea.Msg {
		models, err := httpchat.ListModels(context.Background(), sess.Client, sess.BaseURL, sess.APIKey, sess.Auth)
		return modelsLoadedMsg{providerID: providerID, models: models, err: err}
	}
}

// runToolCalls executes every assembled tool call against McpManager in
// call order (spec §4.2 "tool calls are executed sequentially, in the
// order the model emitted them").
func (m *Model) runToolCalls(c action.RunToolCalls) tea.Cmd {
	mgr := m.app.MCP
	return func() tea.Msg {
		results := make([]action.ToolResult, len(c.Calls))
		for i, call := range c.Calls {
			var args json.RawMessage
			if call.Arguments != "" {
				args = json.RawMessage(call.Arguments)
			}
			out, err := mgr.ExecuteToolCall(context.Background(), call.Name, args)
			if err != nil {
				out = fmt.Sprintf("error: %s", err.Error())
			}
			results[i] = action.ToolResult{CallID: call.ID, Content: out}
		}
		return toolResultsMsg{streamID: c.StreamID, results: results}
	}
}

// runExternalEditor suspends the bubbletea program, runs $EDITOR (falling
// back to $VISUAL, then vi) against a temp file seeded with seed, and
// resumes once the editor exits (spec §4.1 "Ctrl+T opens external
// editor... re-enters raw mode, submits non-empty result"). Grounded on
// the teacher's editConfig in cmd/root.go, adapted to tea.ExecProcess so
// the terminal's raw mode is released and restored by bubbletea itself
// rather than hand-rolled term.MakeRaw/Restore calls.
func (m *Model) runExternalEditor(seed string) tea.Cmd {
	f, err := os.CreateTemp("", "chabeau-*.md")
	if err != nil {
		return func() tea.Msg { return editorDoneMsg{err: err} }
	}
	path := f.Name()
	if _, werr := f.WriteString(seed); werr != nil {
		f.Close()
		os.Remove(path)
		return func() tea.Msg { return editorDoneMsg{err: werr} }
	}
	f.Close()

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		editor = "vi"
	}
	c := exec.Command(editor, path)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		defer os.Remove(path)
		if err != nil {
			return editorDoneMsg{err: err}
		}
		text, rerr := os.ReadFile(path)
		if rerr != nil {
			return editorDoneMsg{err: rerr}
		}
		return editorDoneMsg{text: string(text)}
	})
}

// runMCPPrompt resolves one mcp_prompt server/prompt/args triple via
// prompts/get (spec §4.3), reporting the result back as mcpPromptLoadedMsg.
func (m *Model) runMCPPrompt(c action.RunMCPPrompt) tea.Cmd {
	mgr := m.app.MCP
	return func() tea.Msg {
		content, err := mgr.GetPrompt(context.Background(), c.ServerID, c.Name, c.Args)
		return mcpPromptLoadedMsg{content: content, err: err}
	}
}

func writeFile(c action.WriteFile) tea.Cmd {
	return func() tea.Msg {
		if !c.Overwrite {
			if _, err := os.Stat(c.Path); err == nil {
				return fileWrittenMsg{path: c.Path, err: fmt.Errorf("%s already exists (use overwrite)", c.Path)}
			}
		}
		err := os.WriteFile(c.Path, []byte(c.Content), 0o644)
		return fileWrittenMsg{path: c.Path, err: err}
	}
}
