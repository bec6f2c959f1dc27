// Package provider implements chabeau's provider registry (C3): built-in
// and user-defined provider descriptors, plus the resolution algorithm that
// turns a provider override / config / environment into a usable session
// (spec §4.4). Grounded on the teacher's provider-type inference in
// internal/config/config.go (InferProviderType, builtInProviderTypes),
// adapted from "pick an SDK implementation" to "pick a base URL + auth
// style" since chabeau speaks one wire protocol (spec §4.2) to every
// provider.
package provider

import (
	"sort"

	"github.com/chabeau/chabeau/internal/config"
)

// AuthStyle controls which auth header shape a provider expects (spec §4.2).
type AuthStyle string

const (
	AuthBearer    AuthStyle = "bearer"    // Authorization: Bearer <key>
	AuthAnthropic AuthStyle = "anthropic" // x-api-key + anthropic-version
)

// Descriptor describes one provider: built-in or user-defined.
type Descriptor struct {
	ID         string
	Display    string
	BaseURL    string
	Auth       AuthStyle
	EnvKeyName string // provider's conventional API-key variable; Resolve's env fallback reads only OPENAI_API_KEY
}

// builtins lists chabeau's built-in providers in the registry's
// deterministic order (spec §4.4 step 3: "first available" iterates this
// order). OpenRouter and Poe are OpenAI-style compatible endpoints with
// bearer auth, same as the spec names them in §1.
var builtins = []Descriptor{
	{ID: "openai", Display: "OpenAI", BaseURL: "https://api.openai.com/v1", Auth: AuthBearer, EnvKeyName: "OPENAI_API_KEY"},
	{ID: "anthropic", Display: "Anthropic", BaseURL: "https://api.anthropic.com/v1", Auth: AuthAnthropic, EnvKeyName: "ANTHROPIC_API_KEY"},
	{ID: "openrouter", Display: "OpenRouter", BaseURL: "https://openrouter.ai/api/v1", Auth: AuthBearer, EnvKeyName: "OPENROUTER_API_KEY"},
	{ID: "poe", Display: "Poe", BaseURL: "https://api.poe.com/v1", Auth: AuthBearer, EnvKeyName: "POE_API_KEY"},
}

// Builtins returns the built-in provider descriptors in registry order.
func Builtins() []Descriptor {
	out := make([]Descriptor, len(builtins))
	copy(out, builtins)
	return out
}

// Find returns the descriptor for id, checking built-ins first, then the
// config's custom_providers list.
func Find(cfg *config.Config, id string) (Descriptor, bool) {
	id = config.CanonicalProviderID(id)
	for _, d := range builtins {
		if d.ID == id {
			return d, true
		}
	}
	if cfg != nil {
		if custom, ok := cfg.FindCustomProvider(id); ok {
			auth := AuthBearer
			if custom.AnthropicAuth {
				auth = AuthAnthropic
			}
			display := custom.Display
			if display == "" {
				display = custom.ID
			}
			return Descriptor{
				ID:      custom.ID,
				Display: display,
				BaseURL: custom.BaseURL,
				Auth:    auth,
			}, true
		}
	}
	return Descriptor{}, false
}

// All returns built-ins in registry order followed by configured custom
// providers sorted by id — the deterministic order §4.4 step 3 relies on.
func All(cfg *config.Config) []Descriptor {
	out := Builtins()
	if cfg != nil {
		for _, custom := range cfg.CustomProviders {
			d, ok := Find(cfg, custom.ID)
			if ok {
				out = append(out, d)
			}
		}
	}
	sort.SliceStable(out[len(builtins):], func(i, j int) bool {
		return out[len(builtins)+i].ID < out[len(builtins)+j].ID
	})
	return out
}
