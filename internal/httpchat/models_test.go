package httpchat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chabeau/chabeau/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.Write([]byte(`{"data":[{"id":"gpt-4o","created":100,"owned_by":"openai"},{"id":"gpt-4o-mini","created_at":200}]}`))
	}))
	defer srv.Close()

	models, err := ListModels(context.Background(), nil, srv.URL+"/v1", "sk-test", provider.AuthBearer)
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "gpt-4o", models[0].ID)
	assert.Equal(t, int64(100), models[0].Created)
	assert.Equal(t, "openai", models[0].OwnedBy)
	assert.Equal(t, int64(200), models[1].Created)
}

func TestListModels_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("invalid key"))
	}))
	defer srv.Close()

	_, err := ListModels(context.Background(), nil, srv.URL, "bad", provider.AuthBearer)
	require.Error(t, err)
}
