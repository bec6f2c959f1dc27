package mcpclient

import (
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapStopReason(t *testing.T) {
	assert.Equal(t, "endTurn", mapStopReason("stop"))
	assert.Equal(t, "endTurn", mapStopReason(""))
	assert.Equal(t, "maxTokens", mapStopReason("length"))
	assert.Equal(t, "toolUse", mapStopReason("tool_calls"))
	assert.Equal(t, "stopSequence", mapStopReason("content_filter"))
}

func TestConvertSamplingMessages_SystemPromptFirst(t *testing.T) {
	req := &mcp.CreateMessageParams{
		SystemPrompt: "You are a helpful assistant.",
		Messages: []*mcp.SamplingMessage{
			{Role: "user", Content: &mcp.TextContent{Text: "hello"}},
		},
	}
	msgs, err := convertSamplingMessages(req)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "You are a helpful assistant.", msgs[0].Content)
	assert.Equal(t, "user", msgs[1].Role)
}

func TestConvertSamplingMessages_RejectsNonTextContent(t *testing.T) {
	req := &mcp.CreateMessageParams{
		Messages: []*mcp.SamplingMessage{
			{Role: "user", Content: &mcp.ImageContent{Data: []byte{1, 2, 3}, MIMEType: "image/png"}},
		},
	}
	_, err := convertSamplingMessages(req)
	require.Error(t, err)
}
