package mcpclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// jsonRPCMethodNotFound is the JSON-RPC 2.0 reserved error code for an
// unknown method (spec §4.3 "missing-method errors (JSON-RPC code -32601)
// are treated as not supported without error").
const jsonRPCMethodNotFound = -32601

// isMethodNotFound reports whether err represents a JSON-RPC -32601
// response, demoting it to "capability absent" rather than a real failure.
func isMethodNotFound(err error) bool {
	if err == nil {
		return false
	}
	var rpcErr *mcp.RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code == jsonRPCMethodNotFound
	}
	return false
}

// deriveCapabilities inspects the session's negotiated server capabilities
// (spec §4.3 "Capability gating").
func deriveCapabilities(session *mcp.ClientSession) Capabilities {
	caps := session.InitializeResult().Capabilities
	return Capabilities{
		Tools:     caps.Tools != nil,
		Resources: caps.Resources != nil,
		Prompts:   caps.Prompts != nil,
	}
}

func listTools(ctx context.Context, session *mcp.ClientSession) ([]ToolSpec, bool, error) {
	if session == nil {
		return nil, false, fmt.Errorf("mcpclient: not connected")
	}
	var out []ToolSpec
	cursor := ""
	for {
		if len(out) >= maxToolPage {
			return out, true, nil
		}
		res, err := session.ListTools(ctx, &mcp.ListToolsParams{Cursor: cursor})
		if err != nil {
			if isMethodNotFound(err) {
				return nil, false, nil
			}
			return out, cursor != "", err
		}
		for _, t := range res.Tools {
			schema := map[string]any{}
			if m, ok := t.InputSchema.(map[string]any); ok {
				schema = m
			}
			out = append(out, ToolSpec{Name: t.Name, Description: t.Description, Schema: schema})
			if len(out) >= maxToolPage {
				return out, true, nil
			}
		}
		if res.NextCursor == "" {
			return out, false, nil
		}
		cursor = res.NextCursor
	}
}

func listResources(ctx context.Context, session *mcp.ClientSession) ([]ResourceSpec, bool, error) {
	if session == nil {
		return nil, false, fmt.Errorf("mcpclient: not connected")
	}
	var out []ResourceSpec
	cursor := ""
	for {
		if len(out) >= maxToolPage {
			return out, true, nil
		}
		res, err := session.ListResources(ctx, &mcp.ListResourcesParams{Cursor: cursor})
		if err != nil {
			if isMethodNotFound(err) {
				return nil, false, nil
			}
			return out, cursor != "", err
		}
		for _, r := range res.Resources {
			out = append(out, ResourceSpec{URI: r.URI, Name: r.Name, Description: r.Description, MimeType: r.MIMEType})
			if len(out) >= maxToolPage {
				return out, true, nil
			}
		}
		if res.NextCursor == "" {
			return out, false, nil
		}
		cursor = res.NextCursor
	}
}

func listPrompts(ctx context.Context, session *mcp.ClientSession) ([]PromptSpec, bool, error) {
	if session == nil {
		return nil, false, fmt.Errorf("mcpclient: not connected")
	}
	var out []PromptSpec
	cursor := ""
	for {
		if len(out) >= maxToolPage {
			return out, true, nil
		}
		res, err := session.ListPrompts(ctx, &mcp.ListPromptsParams{Cursor: cursor})
		if err != nil {
			if isMethodNotFound(err) {
				return nil, false, nil
			}
			return out, cursor != "", err
		}
		for _, p := range res.Prompts {
			out = append(out, PromptSpec{Name: p.Name, Description: p.Description})
			if len(out) >= maxToolPage {
				return out, true, nil
			}
		}
		if res.NextCursor == "" {
			return out, false, nil
		}
		cursor = res.NextCursor
	}
}

func callTool(ctx context.Context, session *mcp.ClientSession, name string, args map[string]any) (string, bool, error) {
	if session == nil {
		return "", false, fmt.Errorf("mcpclient: not connected")
	}
	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return "", false, fmt.Errorf("mcpclient: call tool %s: %w", name, err)
	}
	return formatContent(res.Content), res.IsError, nil
}

func readResource(ctx context.Context, session *mcp.ClientSession, uri string) (string, error) {
	if session == nil {
		return "", fmt.Errorf("mcpclient: not connected")
	}
	res, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: uri})
	if err != nil {
		return "", fmt.Errorf("mcpclient: read resource %s: %w", uri, err)
	}
	var out string
	for _, c := range res.Contents {
		if c.Text != "" {
			out += c.Text
		}
	}
	return out, nil
}

func getPrompt(ctx context.Context, session *mcp.ClientSession, name string, args map[string]string) (string, error) {
	if session == nil {
		return "", fmt.Errorf("mcpclient: not connected")
	}
	res, err := session.GetPrompt(ctx, &mcp.GetPromptParams{Name: name, Arguments: args})
	if err != nil {
		return "", fmt.Errorf("mcpclient: get prompt %s: %w", name, err)
	}
	var out string
	for _, m := range res.Messages {
		if tc, ok := m.Content.(*mcp.TextContent); ok {
			out += tc.Text
		}
	}
	return out, nil
}

// formatContent flattens MCP content blocks to plain text, grounded on the
// teacher's formatContent in internal/mcp/client.go.
func formatContent(content []mcp.Content) string {
	var out string
	for _, c := range content {
		if tc, ok := c.(*mcp.TextContent); ok {
			out += tc.Text
		}
	}
	return out
}
