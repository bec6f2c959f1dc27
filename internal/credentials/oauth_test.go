package credentials

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOAuthGrant_Expired(t *testing.T) {
	now := time.Unix(1_000_000, 0)

	unknown := OAuthGrant{}
	assert.False(t, unknown.Expired(now))

	freshForAnotherHour := OAuthGrant{ExpiresAt: now.Add(time.Hour).Unix()}
	assert.False(t, freshForAnotherHour.Expired(now))

	withinMargin := OAuthGrant{ExpiresAt: now.Add(30 * time.Second).Unix()}
	assert.True(t, withinMargin.Expired(now))

	alreadyPast := OAuthGrant{ExpiresAt: now.Add(-time.Hour).Unix()}
	assert.True(t, alreadyPast.Expired(now))
}

func TestOAuthGrant_StoreRoundTrip(t *testing.T) {
	s := NewStore(ServiceMCP)
	grant := OAuthGrant{
		AccessToken:  "at-123",
		RefreshToken: "rt-456",
		TokenType:    "Bearer",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
	}

	require.NoError(t, SetOAuthGrant(s, "filesystem", grant))

	got, ok, err := GetOAuthGrant(s, "filesystem")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, grant, got)

	_, ok, err = GetOAuthGrant(s, "not-configured")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAccountNaming(t *testing.T) {
	assert.Equal(t, "filesystem:oauth", MCPOAuthAccount("filesystem"))
	assert.Equal(t, "filesystem:bearer", MCPBearerAccount("filesystem"))
}
