package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestMain(m *testing.M) {
	keyring.MockInit()
	m.Run()
}

func TestStore_SetGetRemove(t *testing.T) {
	s := NewStore(ServiceProviders)

	_, ok, err := s.Get("openai")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("openai", "sk-test"))
	secret, ok, err := s.Get("openai")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sk-test", secret)

	require.NoError(t, s.Remove("openai"))
	_, ok, err = s.Get("openai")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_RemoveNonexistentIsNotAnError(t *testing.T) {
	s := NewStore(ServiceProviders)
	assert.NoError(t, s.Remove("never-stored"))
}

func TestStore_List(t *testing.T) {
	s := NewStore(ServiceMCP)
	require.NoError(t, s.Set("filesystem:bearer", "tok-1"))
	require.NoError(t, s.Set("search:bearer", "tok-2"))

	present := s.List([]string{"filesystem:bearer", "search:bearer", "absent:bearer"})
	assert.ElementsMatch(t, []string{"filesystem:bearer", "search:bearer"}, present)
}
