package httpchat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/chabeau/chabeau/internal/provider"
)

// Model is one entry from a provider's /models listing (spec §6).
type Model struct {
	ID          string
	DisplayName string
	Created     int64
	OwnedBy     string
}

type modelsResponse struct {
	Data []modelEntry `json:"data"`
}

type modelEntry struct {
	ID          string `json:"id"`
	Created     int64  `json:"created,omitempty"`
	CreatedAt   int64  `json:"created_at,omitempty"`
	OwnedBy     string `json:"owned_by,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// ListModels issues GET {base_url}/models (spec §6 "Models listing"),
// grounded on the teacher's OpenAICompatProvider.ListModels.
func ListModels(ctx context.Context, client *http.Client, baseURL, apiKey string, auth provider.AuthStyle) ([]Model, error) {
	if client == nil {
		client = DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ConstructAPIURL(baseURL, "models"), nil)
	if err != nil {
		return nil, fmt.Errorf("httpchat: build models request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	applyAuth(req, auth, apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpchat: models request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpchat: read models response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("httpchat: models API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed modelsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("httpchat: parse models response: %w", err)
	}

	out := make([]Model, len(parsed.Data))
	for i, m := range parsed.Data {
		created := m.Created
		if created == 0 {
			created = m.CreatedAt
		}
		out[i] = Model{ID: m.ID, DisplayName: m.DisplayName, Created: created, OwnedBy: m.OwnedBy}
	}
	return out, nil
}
