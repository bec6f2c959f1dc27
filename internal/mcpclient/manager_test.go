package mcpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/chabeau/chabeau/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn is an in-memory Connection for exercising the manager without a
// real MCP transport.
type fakeConn struct {
	startErr  error
	caps      Capabilities
	tools     []ToolSpec
	toolsTrunc bool
	callResult string
	callIsErr  bool
	callErr    error
}

func (f *fakeConn) Start(ctx context.Context) error        { return f.startErr }
func (f *fakeConn) Close() error                            { return nil }
func (f *fakeConn) Capabilities() Capabilities               { return f.caps }
func (f *fakeConn) ListTools(ctx context.Context) ([]ToolSpec, bool, error) {
	return f.tools, f.toolsTrunc, nil
}
func (f *fakeConn) ListResources(ctx context.Context) ([]ResourceSpec, bool, error) { return nil, false, nil }
func (f *fakeConn) ListPrompts(ctx context.Context) ([]PromptSpec, bool, error)     { return nil, false, nil }
func (f *fakeConn) CallTool(ctx context.Context, name string, args map[string]any) (string, bool, error) {
	return f.callResult, f.callIsErr, f.callErr
}
func (f *fakeConn) ReadResource(ctx context.Context, uri string) (string, error)            { return "", nil }
func (f *fakeConn) GetPrompt(ctx context.Context, name string, args map[string]string) (string, error) {
	return "", nil
}

func newTestManager(conns map[string]*fakeConn, servers []config.MCPServer) *Manager {
	m := NewManager(servers, nil)
	m.connect = func(cfg config.MCPServer) Connection {
		return conns[cfg.ID]
	}
	return m
}

func TestManager_ConnectAllEnabledOnly(t *testing.T) {
	servers := []config.MCPServer{
		{ID: "filesystem", Enabled: true},
		{ID: "disabled-one", Enabled: false},
	}
	conns := map[string]*fakeConn{
		"filesystem":   {caps: Capabilities{Tools: true}, tools: []ToolSpec{{Name: "read_file"}}},
		"disabled-one": {caps: Capabilities{Tools: true}},
	}
	m := newTestManager(conns, servers)
	m.ConnectAll(context.Background())

	fsState, ok := m.State("filesystem")
	require.True(t, ok)
	assert.Equal(t, StatusReady, fsState.Status)
	assert.Len(t, fsState.Tools, 1)

	disabledState, ok := m.State("disabled-one")
	require.True(t, ok)
	assert.Equal(t, StatusStopped, disabledState.Status)
}

func TestManager_ConnectFailureSetsStatusFailed(t *testing.T) {
	servers := []config.MCPServer{{ID: "flaky", Enabled: true}}
	conns := map[string]*fakeConn{"flaky": {startErr: fmt.Errorf("spawn failed")}}
	m := newTestManager(conns, servers)

	err := m.Connect(context.Background(), "flaky")
	require.Error(t, err)

	state, ok := m.State("flaky")
	require.True(t, ok)
	assert.Equal(t, StatusFailed, state.Status)
	assert.Error(t, state.LastError)
}

func TestManager_AllToolsPrefixedByServerID(t *testing.T) {
	servers := []config.MCPServer{{ID: "search", Enabled: true}}
	conns := map[string]*fakeConn{
		"search": {caps: Capabilities{Tools: true}, tools: []ToolSpec{{Name: "web_search", Description: "search the web"}}},
	}
	m := newTestManager(conns, servers)
	m.ConnectAll(context.Background())

	tools := m.AllTools()
	require.Len(t, tools, 1)
	assert.Equal(t, "search__web_search", tools[0].Name)
	assert.Contains(t, tools[0].Description, "[search]")
}

func TestManager_ToolsCapAtHardLimit(t *testing.T) {
	var many []ToolSpec
	for i := 0; i < 250; i++ {
		many = append(many, ToolSpec{Name: fmt.Sprintf("tool_%d", i)})
	}
	servers := []config.MCPServer{{ID: "bigserver", Enabled: true}}
	conns := map[string]*fakeConn{"bigserver": {caps: Capabilities{Tools: true}, tools: many, toolsTrunc: true}}
	m := newTestManager(conns, servers)
	m.ConnectAll(context.Background())

	state, _ := m.State("bigserver")
	assert.LessOrEqual(t, len(state.Tools), maxToolPage)
}

func TestManager_ExecuteToolCall(t *testing.T) {
	servers := []config.MCPServer{{ID: "search", Enabled: true}}
	conns := map[string]*fakeConn{
		"search": {caps: Capabilities{Tools: true}, tools: []ToolSpec{{Name: "web_search"}}, callResult: "3 results"},
	}
	m := newTestManager(conns, servers)
	m.ConnectAll(context.Background())

	out, err := m.ExecuteToolCall(context.Background(), "search__web_search", json.RawMessage(`{"q":"go"}`))
	require.NoError(t, err)
	assert.Equal(t, "3 results", out)
}

func TestManager_ExecuteToolCall_UnknownServerNotRunning(t *testing.T) {
	m := newTestManager(map[string]*fakeConn{}, nil)
	_, err := m.ExecuteToolCall(context.Background(), "ghost__tool", nil)
	require.Error(t, err)
}

func TestManager_ExecuteToolCall_InvalidNameFormat(t *testing.T) {
	m := newTestManager(map[string]*fakeConn{}, nil)
	_, err := m.ExecuteToolCall(context.Background(), "no-separator", nil)
	require.Error(t, err)
}

func TestManager_ExecuteToolCall_TruncatesToPerServerWindow(t *testing.T) {
	big := strings.Repeat("x", 100)
	servers := []config.MCPServer{{ID: "search", Enabled: true, ToolPayloadWindow: 10}}
	conns := map[string]*fakeConn{
		"search": {caps: Capabilities{Tools: true}, tools: []ToolSpec{{Name: "web_search"}}, callResult: big},
	}
	m := newTestManager(conns, servers)
	m.ConnectAll(context.Background())

	out, err := m.ExecuteToolCall(context.Background(), "search__web_search", nil)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, strings.Repeat("x", 10)))
	assert.Contains(t, out, "bytes omitted")
}

func TestManager_DisableStopsServer(t *testing.T) {
	servers := []config.MCPServer{{ID: "filesystem", Enabled: true}}
	conns := map[string]*fakeConn{"filesystem": {caps: Capabilities{Tools: true}}}
	m := newTestManager(conns, servers)
	m.ConnectAll(context.Background())

	require.NoError(t, m.Disable("filesystem"))
	state, _ := m.State("filesystem")
	assert.Equal(t, StatusStopped, state.Status)
	assert.Empty(t, m.AllTools())
}
