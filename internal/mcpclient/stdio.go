// Package mcpclient implements chabeau's MCP transport and manager (C5/C6):
// stdio and Streamable HTTP connections to MCP servers, a manager that
// tracks per-server capability/status state, tool-name prefixing, bounded
// pagination, and a sampling bridge back into the chat stream. Grounded on
// internal/mcp's client/manager/sampling split, adapted from a
// tool-execution-only client to the fuller transport/session-handshake/
// pagination contract (spec §4.3).
package mcpclient

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// maxToolPage caps a single tools/list pagination run (spec §4.3
// "hard cap (100 tools)").
const maxToolPage = 100

// ToolSpec describes one tool advertised by a server, before manager-level
// name prefixing.
type ToolSpec struct {
	Name        string
	Description string
	Schema      map[string]any
}

// ResourceSpec describes one resource advertised by a server.
type ResourceSpec struct {
	URI         string
	Name        string
	Description string
	MimeType    string
}

// PromptSpec describes one prompt advertised by a server.
type PromptSpec struct {
	Name        string
	Description string
}

// Capabilities records which list/call families a server advertised at
// initialize time (spec §4.3 "capability gating").
type Capabilities struct {
	Tools     bool
	Resources bool
	Prompts   bool
}

// Connection is the transport-agnostic surface the manager drives. StdioConn
// and HTTPConn both implement it.
type Connection interface {
	Start(ctx context.Context) error
	Close() error
	Capabilities() Capabilities
	ListTools(ctx context.Context) ([]ToolSpec, bool, error)
	ListResources(ctx context.Context) ([]ResourceSpec, bool, error)
	ListPrompts(ctx context.Context) ([]PromptSpec, bool, error)
	CallTool(ctx context.Context, name string, args map[string]any) (string, bool, error)
	ReadResource(ctx context.Context, uri string) (string, error)
	GetPrompt(ctx context.Context, name string, args map[string]string) (string, error)
}

// clientImpl identifies chabeau to MCP servers during the initialize
// handshake.
var clientImpl = &mcp.Implementation{Name: "chabeau", Version: "0.1.0"}

// StdioConn spawns a child process and speaks MCP over its stdin/stdout
// (spec §4.3 "Stdio"). Grounded on the teacher's Client in
// internal/mcp/client.go.
type StdioConn struct {
	Command string
	Args    []string
	Env     map[string]string

	mu      sync.RWMutex
	client  *mcp.Client
	session *mcp.ClientSession
	caps    Capabilities
}

func (c *StdioConn) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.client = mcp.NewClient(clientImpl, nil)

	cmd := exec.CommandContext(ctx, c.Command, c.Args...)
	for k, v := range c.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	session, err := c.client.Connect(ctx, &mcp.CommandTransport{Command: cmd}, nil)
	if err != nil {
		return fmt.Errorf("mcpclient: connect stdio server: %w", err)
	}
	c.session = session
	c.caps = deriveCapabilities(session)
	return nil
}

func (c *StdioConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}

func (c *StdioConn) Capabilities() Capabilities {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.caps
}

func (c *StdioConn) ListTools(ctx context.Context) ([]ToolSpec, bool, error) {
	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()
	return listTools(ctx, session)
}

func (c *StdioConn) ListResources(ctx context.Context) ([]ResourceSpec, bool, error) {
	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()
	return listResources(ctx, session)
}

func (c *StdioConn) ListPrompts(ctx context.Context) ([]PromptSpec, bool, error) {
	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()
	return listPrompts(ctx, session)
}

func (c *StdioConn) CallTool(ctx context.Context, name string, args map[string]any) (string, bool, error) {
	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()
	return callTool(ctx, session, name, args)
}

func (c *StdioConn) ReadResource(ctx context.Context, uri string) (string, error) {
	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()
	return readResource(ctx, session, uri)
}

func (c *StdioConn) GetPrompt(ctx context.Context, name string, args map[string]string) (string, error) {
	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()
	return getPrompt(ctx, session, name, args)
}
