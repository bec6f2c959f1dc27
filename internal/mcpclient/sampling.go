package mcpclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/chabeau/chabeau/internal/httpchat"
	"github.com/chabeau/chabeau/internal/provider"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SamplingSession is what the bridge needs to run a server-initiated
// sampling/createMessage request against the active chat provider (spec
// §4.3 "Server→client requests"), grounded on the teacher's SamplingHandler
// in internal/mcp/sampling.go, rebuilt against httpchat instead of the
// teacher's multi-vendor llm.Provider interface.
type SamplingSession struct {
	Client     *http.Client
	BaseURL    string
	APIKey     string
	ProviderID string
	Auth       provider.AuthStyle
	Model      string
}

// mapStopReason translates chabeau's finish_reason vocabulary to MCP's
// stopReason vocabulary (spec §4.3).
func mapStopReason(finishReason string) string {
	switch finishReason {
	case "length":
		return "maxTokens"
	case "tool_calls":
		return "toolUse"
	case "content_filter":
		return "stopSequence"
	default:
		return "endTurn"
	}
}

// HandleCreateMessage answers a server's sampling/createMessage request
// with a single non-streaming completion. Image/audio content in the
// request is rejected with a protocol error per spec §4.3.
func HandleCreateMessage(ctx context.Context, sess SamplingSession, req *mcp.CreateMessageParams) (*mcp.CreateMessageResult, error) {
	messages, err := convertSamplingMessages(req)
	if err != nil {
		return nil, err
	}

	events, err := httpchat.Spawn(ctx, httpchat.Params{
		Client:     sess.Client,
		BaseURL:    sess.BaseURL,
		APIKey:     sess.APIKey,
		ProviderID: sess.ProviderID,
		Auth:       sess.Auth,
		Model:      sess.Model,
		Messages:   messages,
	})
	if err != nil {
		return nil, fmt.Errorf("mcpclient: sampling chat request failed: %w", err)
	}

	var text string
	var finishReason string
	for ev := range events {
		switch ev.Type {
		case httpchat.EventTextDelta:
			text += ev.Text
		case httpchat.EventToolCalls:
			finishReason = "tool_calls"
		case httpchat.EventErrored:
			return nil, fmt.Errorf("mcpclient: sampling chat stream error: %s", ev.Err)
		}
	}

	return &mcp.CreateMessageResult{
		Content:    &mcp.TextContent{Text: text},
		Model:      sess.ProviderID + "/" + sess.Model,
		Role:       "assistant",
		StopReason: mapStopReason(finishReason),
	}, nil
}

// convertSamplingMessages converts MCP sampling messages to the chat
// stream's wire message shape: system prompt first if present, text-only
// content required (spec §4.3 "reject image/audio with a protocol error").
func convertSamplingMessages(req *mcp.CreateMessageParams) ([]httpchat.Message, error) {
	var out []httpchat.Message
	if req.SystemPrompt != "" {
		out = append(out, httpchat.Message{Role: "system", Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		tc, ok := m.Content.(*mcp.TextContent)
		if !ok {
			return nil, fmt.Errorf("mcpclient: sampling request contains non-text content, which chabeau does not support")
		}
		role := "user"
		if m.Role == "assistant" {
			role = "assistant"
		}
		out = append(out, httpchat.Message{Role: role, Content: tc.Text})
	}
	return out, nil
}
