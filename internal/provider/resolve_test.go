package provider

import (
	"testing"

	"github.com/chabeau/chabeau/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAuth is an in-memory AuthSource for testing the resolution order
// without touching a real OS keyring.
type fakeAuth struct {
	keys       map[string]string
	keyringBacked bool
}

func (f fakeAuth) Lookup(providerID string) (string, bool) {
	key, ok := f.keys[providerID]
	return key, ok
}

func (f fakeAuth) UsesKeyring() bool { return f.keyringBacked }

func TestResolve_ExplicitOverrideWins(t *testing.T) {
	cfg := &config.Config{DefaultProvider: "anthropic"}
	auth := fakeAuth{keys: map[string]string{"openai": "sk-openai", "anthropic": "sk-anthropic"}, keyringBacked: true}

	sess, err := Resolve(cfg, auth, "openai")
	require.NoError(t, err)
	assert.Equal(t, "openai", sess.ProviderID)
	assert.Equal(t, "sk-openai", sess.APIKey)
}

func TestResolve_ExplicitOverrideMissingCredential(t *testing.T) {
	cfg := &config.Config{}
	auth := fakeAuth{keys: map[string]string{}, keyringBacked: true}

	_, err := Resolve(cfg, auth, "openai")
	require.Error(t, err)
}

func TestResolve_DefaultProviderFromConfig(t *testing.T) {
	cfg := &config.Config{DefaultProvider: "openrouter"}
	auth := fakeAuth{keys: map[string]string{"openrouter": "sk-or"}, keyringBacked: true}

	sess, err := Resolve(cfg, auth, "")
	require.NoError(t, err)
	assert.Equal(t, "openrouter", sess.ProviderID)
}

func TestResolve_FirstAvailableInRegistryOrder(t *testing.T) {
	cfg := &config.Config{}
	auth := fakeAuth{keys: map[string]string{"poe": "sk-poe", "openrouter": "sk-or"}, keyringBacked: true}

	sess, err := Resolve(cfg, auth, "")
	require.NoError(t, err)
	// openrouter precedes poe in registry order, so it wins even though
	// poe's key happens to be declared first in the map literal above.
	assert.Equal(t, "openrouter", sess.ProviderID)
}

func TestResolve_EnvironmentFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("OPENAI_BASE_URL", "")
	cfg := &config.Config{}
	auth := fakeAuth{keys: map[string]string{}, keyringBacked: true}

	sess, err := Resolve(cfg, auth, "")
	require.NoError(t, err)
	assert.Equal(t, "openai", sess.ProviderID)
	assert.Equal(t, "sk-env", sess.APIKey)
}

func TestResolve_MissingAuthentication(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg := &config.Config{}
	auth := fakeAuth{keys: map[string]string{}, keyringBacked: true}

	_, err := Resolve(cfg, auth, "")
	assert.ErrorIs(t, err, ErrMissingAuthentication)
}

func TestResolve_Deterministic(t *testing.T) {
	cfg := &config.Config{DefaultProvider: "anthropic"}
	auth := fakeAuth{keys: map[string]string{"anthropic": "sk-a"}, keyringBacked: true}

	first, err := Resolve(cfg, auth, "")
	require.NoError(t, err)
	second, err := Resolve(cfg, auth, "")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
