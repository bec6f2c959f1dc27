package provider

import (
	"testing"

	"github.com/chabeau/chabeau/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltins_FixedDeterministicOrder(t *testing.T) {
	ids := make([]string, len(Builtins()))
	for i, d := range Builtins() {
		ids[i] = d.ID
	}
	assert.Equal(t, []string{"openai", "anthropic", "openrouter", "poe"}, ids)
}

func TestFind_BuiltinIsCaseInsensitive(t *testing.T) {
	d, ok := Find(nil, "OpenAI")
	require.True(t, ok)
	assert.Equal(t, "openai", d.ID)
	assert.Equal(t, AuthBearer, d.Auth)

	d, ok = Find(nil, "anthropic")
	require.True(t, ok)
	assert.Equal(t, AuthAnthropic, d.Auth)
}

func TestFind_CustomProviderFallsBackToConfig(t *testing.T) {
	cfg := &config.Config{CustomProviders: []config.Provider{
		{ID: "localllama", Display: "Local Llama", BaseURL: "http://localhost:11434/v1"},
	}}
	d, ok := Find(cfg, "localllama")
	require.True(t, ok)
	assert.Equal(t, "Local Llama", d.Display)
	assert.Equal(t, AuthBearer, d.Auth)
}

func TestFind_UnknownReturnsFalse(t *testing.T) {
	_, ok := Find(nil, "does-not-exist")
	assert.False(t, ok)
}

func TestAll_BuiltinsThenSortedCustom(t *testing.T) {
	cfg := &config.Config{CustomProviders: []config.Provider{
		{ID: "zeta", BaseURL: "https://zeta.example"},
		{ID: "alpha", BaseURL: "https://alpha.example"},
	}}
	ids := make([]string, 0)
	for _, d := range All(cfg) {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"openai", "anthropic", "openrouter", "poe", "alpha", "zeta"}, ids)
}
