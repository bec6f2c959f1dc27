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

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable("429 Too Many Requests"))
	assert.True(t, isRetryable("503 Service Unavailable"))
	assert.True(t, isRetryable("connection reset by peer"))
	assert.False(t, isRetryable("invalid api key"))
	assert.False(t, isRetryable(""))
}

func TestSpawnWithRetry_SucceedsAfterTransientError(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("429 rate limit exceeded"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`data: {"choices":[{"delta":{"content":"ok"}}]}` + "\n\n"))
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	cfg := RetryConfig{MaxAttempts: 3, BaseBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
	var retries int
	events, err := SpawnWithRetry(context.Background(), Params{BaseURL: srv.URL, Auth: provider.AuthBearer, Model: "m"}, cfg, func(RetryEvent) { retries++ })
	require.NoError(t, err)

	var text string
	for ev := range events {
		if ev.Type == EventTextDelta {
			text += ev.Text
		}
		require.NotEqual(t, EventErrored, ev.Type)
	}
	assert.Equal(t, "ok", text)
	assert.Equal(t, 1, retries)
	assert.Equal(t, 2, attempts)
}

func TestSpawnWithRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("503 overloaded"))
	}))
	defer srv.Close()

	cfg := RetryConfig{MaxAttempts: 2, BaseBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
	events, err := SpawnWithRetry(context.Background(), Params{BaseURL: srv.URL, Auth: provider.AuthBearer, Model: "m"}, cfg, nil)
	require.NoError(t, err)

	var seq []EventType
	for ev := range events {
		seq = append(seq, ev.Type)
	}
	assert.Equal(t, []EventType{EventErrored, EventCompleted}, seq)
}
