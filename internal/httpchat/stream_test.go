package httpchat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chabeau/chabeau/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructAPIURL_NoDoubleSlash(t *testing.T) {
	cases := []struct {
		base, endpoint, want string
	}{
		{"https://api.openai.com/v1", "chat/completions", "https://api.openai.com/v1/chat/completions"},
		{"https://api.openai.com/v1/", "chat/completions", "https://api.openai.com/v1/chat/completions"},
		{"https://api.openai.com/v1", "/chat/completions", "https://api.openai.com/v1/chat/completions"},
		{"https://api.openai.com/v1/chat/completions", "chat/completions", "https://api.openai.com/v1/chat/completions"},
		{"https://api.openai.com/v1/chat/completions/", "models", "https://api.openai.com/v1/models"},
	}
	for _, c := range cases {
		got := ConstructAPIURL(c.base, c.endpoint)
		assert.Equal(t, c.want, got)
		assert.Equal(t, 1, countSchemeDoubleSlash(got), "no // other than scheme separator: %s", got)
	}
}

func countSchemeDoubleSlash(u string) int {
	count := 0
	for i := 0; i+1 < len(u); i++ {
		if u[i] == '/' && u[i+1] == '/' {
			count++
		}
	}
	return count
}

func TestSpawn_HappyPathTwoChunks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		w.Write([]byte(`data: {"choices":[{"delta":{"content":"Hi"}}]}` + "\n\n"))
		flusher.Flush()
		w.Write([]byte(`data: {"choices":[{"delta":{"content":" there"}}]}` + "\n\n"))
		flusher.Flush()
		w.Write([]byte("data: [DONE]\n\n"))
		flusher.Flush()
	}))
	defer srv.Close()

	events, err := Spawn(context.Background(), Params{
		BaseURL:  srv.URL + "/v1",
		APIKey:   "sk-test",
		Auth:     provider.AuthBearer,
		Model:    "gpt-4o",
		Messages: []Message{{Role: "user", Content: "Hello"}},
		StreamID: 1,
	})
	require.NoError(t, err)

	var text string
	var sawCompleted bool
	for ev := range events {
		assert.Equal(t, uint64(1), ev.StreamID)
		switch ev.Type {
		case EventTextDelta:
			text += ev.Text
		case EventCompleted:
			sawCompleted = true
		case EventErrored:
			t.Fatalf("unexpected error event: %s", ev.Err)
		}
	}
	assert.Equal(t, "Hi there", text)
	assert.True(t, sawCompleted)
}

func TestSpawn_AnthropicAuthHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	events, err := Spawn(context.Background(), Params{
		BaseURL: srv.URL, APIKey: "sk-ant-test", Auth: provider.AuthAnthropic,
		Model: "claude-opus", Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	for range events {
	}
}

func TestSpawn_NonTwoxxEmitsErroredThenCompleted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	events, err := Spawn(context.Background(), Params{BaseURL: srv.URL, Auth: provider.AuthBearer, Model: "m"})
	require.NoError(t, err)

	var seq []EventType
	for ev := range events {
		seq = append(seq, ev.Type)
	}
	assert.Equal(t, []EventType{EventErrored, EventCompleted}, seq)
}

func TestSpawn_ToolCallDeltasAccumulateByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		frames := []string{
			`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"get_weather","arguments":""}}]}}]}`,
			`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"city\""}}]}}]}`,
			`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":":\"NYC\"}"}}]}}]}`,
			`data: {"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
			`data: [DONE]`,
		}
		for _, f := range frames {
			w.Write([]byte(f + "\n\n"))
			flusher.Flush()
		}
	}))
	defer srv.Close()

	events, err := Spawn(context.Background(), Params{BaseURL: srv.URL, Auth: provider.AuthBearer, Model: "m"})
	require.NoError(t, err)

	var calls []ToolCall
	for ev := range events {
		if ev.Type == EventToolCalls {
			calls = ev.Calls
		}
	}
	require.Len(t, calls, 1)
	assert.Equal(t, "call_1", calls[0].ID)
	assert.Equal(t, "get_weather", calls[0].Function.Name)
	assert.Equal(t, `{"city":"NYC"}`, calls[0].Function.Arguments)
}

func TestSpawn_CancellationStopsWithoutFurtherEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		w.Write([]byte(`data: {"choices":[{"delta":{"content":"partial"}}]}` + "\n\n"))
		flusher.Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	events, err := Spawn(ctx, Params{BaseURL: srv.URL, Auth: provider.AuthBearer, Model: "m"})
	require.NoError(t, err)

	<-events // the one buffered text delta
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return // channel closed promptly after cancellation
			}
		case <-deadline:
			t.Fatal("event channel did not close after cancellation")
		}
	}
}
