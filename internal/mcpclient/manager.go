package mcpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/chabeau/chabeau/internal/config"
	"github.com/chabeau/chabeau/internal/credentials"
)

// Status mirrors the teacher's ServerStatus enum in internal/mcp/manager.go.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusReady    Status = "ready"
	StatusFailed   Status = "failed"
)

// ServerState is the manager's view of one configured server (spec §3
// McpServerState).
type ServerState struct {
	ID           string
	Status       Status
	LastError    error
	Caps         Capabilities
	Tools        []ToolSpec
	Resources    []ResourceSpec
	Prompts      []PromptSpec
	ToolsTrunc   bool
	ResTrunc     bool
	PromptsTrunc bool
}

// connectFunc builds a Connection for a configured server; split out so
// tests can substitute fakes instead of real transports.
type connectFunc func(cfg config.MCPServer) Connection

// Manager owns the set of configured MCP servers and their live connections
// (spec §4.3), grounded on the teacher's Manager in internal/mcp/manager.go.
type Manager struct {
	mu      sync.RWMutex
	servers map[string]config.MCPServer
	states  map[string]*ServerState
	conns   map[string]Connection

	connect connectFunc
}

// NewManager builds a manager over the given server configs.
func NewManager(servers []config.MCPServer, store *credentials.Store) *Manager {
	m := &Manager{
		servers: make(map[string]config.MCPServer, len(servers)),
		states:  make(map[string]*ServerState, len(servers)),
		conns:   make(map[string]Connection),
	}
	for _, s := range servers {
		m.servers[s.ID] = s
		m.states[s.ID] = &ServerState{ID: s.ID, Status: StatusStopped}
	}
	m.connect = func(cfg config.MCPServer) Connection {
		if cfg.Transport == "http" {
			return &HTTPConn{URL: cfg.URL, ServerID: cfg.ID, Store: store, Refresh: RefreshOAuthToken}
		}
		return &StdioConn{Command: cfg.Command, Args: cfg.Args, Env: cfg.Env}
	}
	return m
}

// State returns a copy of one server's current state.
func (m *Manager) State(id string) (ServerState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.states[id]
	if !ok {
		return ServerState{}, false
	}
	return *s, true
}

// States returns a copy of every configured server's current state.
func (m *Manager) States() []ServerState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ServerState, 0, len(m.states))
	for _, s := range m.states {
		out = append(out, *s)
	}
	return out
}

// connectAllConcurrency bounds startup connection fan-out (spec §4.3
// "Concurrency... bounded concurrency (≤3)").
const connectAllConcurrency = 3

// refreshConcurrency bounds the per-server metadata refresh fan-out (spec
// §4.3 "parallelizes the four list calls (≤4 concurrent)" — chabeau lists
// three families, so at most three run at once and this bound is not reached).
const refreshConcurrency = 4

// ConnectAll connects every enabled, configured server with bounded
// concurrency (spec §4.3).
func (m *Manager) ConnectAll(ctx context.Context) {
	m.mu.RLock()
	var ids []string
	for id, cfg := range m.servers {
		if cfg.Enabled {
			ids = append(ids, id)
		}
	}
	m.mu.RUnlock()

	sem := make(chan struct{}, connectAllConcurrency)
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(id string) {
			defer wg.Done()
			defer func() { <-sem }()
			m.Connect(ctx, id)
		}(id)
	}
	wg.Wait()
}

// Connect starts (or restarts) one server and refreshes its metadata.
func (m *Manager) Connect(ctx context.Context, id string) error {
	log := zerolog.Ctx(ctx).With().Str("server", id).Logger()

	m.mu.Lock()
	cfg, ok := m.servers[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("mcpclient: unknown server %q", id)
	}
	m.setStatusLocked(id, StatusStarting, nil)
	conn := m.connect(cfg)
	m.conns[id] = conn
	m.mu.Unlock()

	if err := conn.Start(ctx); err != nil {
		m.mu.Lock()
		m.setStatusLocked(id, StatusFailed, err)
		m.mu.Unlock()
		log.Warn().Err(err).Msg("mcp server failed to start")
		return err
	}

	m.mu.Lock()
	m.states[id].Caps = conn.Capabilities()
	m.setStatusLocked(id, StatusReady, nil)
	m.mu.Unlock()
	log.Debug().Msg("mcp server ready")

	m.RefreshMetadata(ctx, id)
	return nil
}

// Disable stops a server and marks it stopped.
func (m *Manager) Disable(id string) error {
	m.mu.Lock()
	conn, ok := m.conns[id]
	delete(m.conns, id)
	m.setStatusLocked(id, StatusStopped, nil)
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return conn.Close()
}

// StopAll disconnects every running server (spec §9 shutdown path).
func (m *Manager) StopAll() {
	m.mu.Lock()
	conns := make([]Connection, 0, len(m.conns))
	for id, c := range m.conns {
		conns = append(conns, c)
		m.setStatusLocked(id, StatusStopped, nil)
	}
	m.conns = make(map[string]Connection)
	m.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
}

func (m *Manager) setStatusLocked(id string, status Status, err error) {
	s, ok := m.states[id]
	if !ok {
		s = &ServerState{ID: id}
		m.states[id] = s
	}
	s.Status = status
	s.LastError = err
}

// RefreshMetadata re-fetches tools/resources/prompts for one server,
// skipping any family the server doesn't support, and degrading gracefully
// on a failed family by keeping the previously cached data (spec §4.3
// "Failures degrade gracefully").
func (m *Manager) RefreshMetadata(ctx context.Context, id string) {
	m.mu.RLock()
	conn, ok := m.conns[id]
	caps := m.states[id].Caps
	m.mu.RUnlock()
	if !ok {
		return
	}

	type result struct {
		tools       []ToolSpec
		toolsTrunc  bool
		toolsErr    error
		resources   []ResourceSpec
		resTrunc    bool
		resErr      error
		prompts     []PromptSpec
		promptTrunc bool
		promptErr   error
	}
	var res result
	sem := make(chan struct{}, refreshConcurrency)
	var wg sync.WaitGroup

	if caps.Tools {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			res.tools, res.toolsTrunc, res.toolsErr = conn.ListTools(ctx)
		}()
	}
	if caps.Resources {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			res.resources, res.resTrunc, res.resErr = conn.ListResources(ctx)
		}()
	}
	if caps.Prompts {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			res.prompts, res.promptTrunc, res.promptErr = conn.ListPrompts(ctx)
		}()
	}
	wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.states[id]
	if caps.Tools {
		if res.toolsErr == nil {
			if len(res.tools) > maxToolPage {
				res.tools, res.toolsTrunc = res.tools[:maxToolPage], true
			}
			s.Tools, s.ToolsTrunc = res.tools, res.toolsTrunc
		} else {
			s.LastError = res.toolsErr
		}
	}
	if caps.Resources {
		if res.resErr == nil {
			s.Resources, s.ResTrunc = res.resources, res.resTrunc
		} else {
			s.LastError = res.resErr
		}
	}
	if caps.Prompts {
		if res.promptErr == nil {
			s.Prompts, s.PromptsTrunc = res.prompts, res.promptTrunc
		} else {
			s.LastError = res.promptErr
		}
	}
}

// AllTools returns every ready server's tools, name-prefixed
// "server__tool" to avoid collisions (spec §4.3), grounded on the
// teacher's AllTools in internal/mcp/manager.go.
func (m *Manager) AllTools() []ToolSpec {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ToolSpec
	for id, s := range m.states {
		if s.Status != StatusReady {
			continue
		}
		for _, t := range s.Tools {
			out = append(out, ToolSpec{
				Name:        id + "__" + t.Name,
				Description: fmt.Sprintf("[%s] %s", id, t.Description),
				Schema:      t.Schema,
			})
		}
	}
	return out
}

// ExecuteToolCall dispatches a prefixed "server__tool" name to its owning
// connection (spec §4.3 "execute_tool_call").
func (m *Manager) ExecuteToolCall(ctx context.Context, fullName string, args json.RawMessage) (string, error) {
	serverID, toolName, ok := splitToolName(fullName)
	if !ok {
		return "", fmt.Errorf("mcpclient: invalid tool name %q (expected server__tool)", fullName)
	}

	m.mu.RLock()
	conn, connOK := m.conns[serverID]
	status := StatusStopped
	if s, ok := m.states[serverID]; ok {
		status = s.Status
	}
	m.mu.RUnlock()
	if !connOK || status != StatusReady {
		return "", fmt.Errorf("mcpclient: server %s is not running", serverID)
	}

	var parsedArgs map[string]any
	if len(args) > 0 {
		if err := json.Unmarshal(args, &parsedArgs); err != nil {
			return "", fmt.Errorf("mcpclient: invalid tool arguments: %w", err)
		}
	}
	zerolog.Ctx(ctx).Debug().
		Str("server", serverID).
		Str("tool", toolName).
		Str("args", redactToolArgs(args)).
		Msg("executing mcp tool call")

	text, isErr, err := conn.CallTool(ctx, toolName, parsedArgs)
	if err != nil {
		return "", err
	}
	if isErr {
		return "", fmt.Errorf("mcpclient: tool %s returned an error: %s", fullName, text)
	}

	m.mu.RLock()
	window := m.servers[serverID].ToolPayloadWindow
	m.mu.RUnlock()
	return truncatePayload(text, window), nil
}

// GetPrompt resolves one server's prompt template to rendered text (spec
// §4.3 "prompts/get"), grounded on ExecuteToolCall's connection lookup.
func (m *Manager) GetPrompt(ctx context.Context, serverID, name string, args map[string]string) (string, error) {
	m.mu.RLock()
	conn, connOK := m.conns[serverID]
	status := StatusStopped
	if s, ok := m.states[serverID]; ok {
		status = s.Status
	}
	m.mu.RUnlock()
	if !connOK || status != StatusReady {
		return "", fmt.Errorf("mcpclient: server %s is not running", serverID)
	}
	return conn.GetPrompt(ctx, name, args)
}

// AnyPromptsAvailable reports whether any ready server has advertised at
// least one prompt, gating whether Ctrl+G's mcp_prompt mode is worth
// opening (spec §4.1 "mcp_prompt").
func (m *Manager) AnyPromptsAvailable() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.states {
		if s.Status == StatusReady && len(s.Prompts) > 0 {
			return true
		}
	}
	return false
}

// redactedArgKeys are conventionally-named argument fields masked out of
// diagnostic logs before a tool call is dispatched, since MCP tool
// arguments are arbitrary and occasionally carry a credential (an API
// token passed straight through to a downstream service).
var redactedArgKeys = []string{"password", "token", "api_key", "apikey", "secret", "access_token"}

// redactToolArgs returns args with redactedArgKeys masked, using gjson to
// find which keys are present and sjson to mask them in place without a
// full unmarshal/remarshal round trip that would reorder or reformat the
// rest of the payload.
func redactToolArgs(args json.RawMessage) string {
	if len(args) == 0 {
		return "{}"
	}
	out := string(args)
	for _, key := range redactedArgKeys {
		if !gjson.Get(out, key).Exists() {
			continue
		}
		if masked, err := sjson.Set(out, key, "***"); err == nil {
			out = masked
		}
	}
	return out
}

// truncatePayload bounds a tool result to window bytes (spec §9's
// tool_payload_window), keeping the tail since the most actionable part of
// a long command/search result is usually its end. window <= 0 means no
// server-specific override; truncatePayload then uses
// defaultToolPayloadWindow.
const defaultToolPayloadWindow = 8192

func truncatePayload(text string, window int) string {
	if window <= 0 {
		window = defaultToolPayloadWindow
	}
	if len(text) <= window {
		return text
	}
	omitted := len(text) - window
	return fmt.Sprintf("...[%d bytes omitted]...%s", omitted, text[len(text)-window:])
}

func splitToolName(full string) (server, tool string, ok bool) {
	idx := strings.Index(full, "__")
	if idx < 0 {
		return "", "", false
	}
	return full[:idx], full[idx+2:], true
}
