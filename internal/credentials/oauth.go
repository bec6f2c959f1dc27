package credentials

import (
	"encoding/json"
	"time"
)

// OAuthGrant is the stored shape for an MCP server's OAuth grant (spec
// §4.3). It is marshaled to JSON and stored as a single keyring secret
// under ServiceMCP, account "<server-id>:oauth".
type OAuthGrant struct {
	AccessToken           string `json:"access_token"`
	RefreshToken          string `json:"refresh_token,omitempty"`
	TokenType             string `json:"token_type,omitempty"`
	Scope                 string `json:"scope,omitempty"`
	ExpiresAt             int64  `json:"expires_at,omitempty"` // unix seconds, 0 = unknown
	ClientID              string `json:"client_id,omitempty"`
	RedirectURI           string `json:"redirect_uri,omitempty"`
	AuthorizationEndpoint string `json:"authorization_endpoint,omitempty"`
	TokenEndpoint         string `json:"token_endpoint,omitempty"`
	RevocationEndpoint    string `json:"revocation_endpoint,omitempty"`
	Issuer                string `json:"issuer,omitempty"`
}

// expiryMargin is how far ahead of true expiry a grant is treated as
// expired, so a refresh has time to complete before the real deadline
// (spec §4.3: "expires_at - now ≤ 60 s").
const expiryMargin = 60 * time.Second

// Expired reports whether the grant should be refreshed before use.
func (g OAuthGrant) Expired(now time.Time) bool {
	if g.ExpiresAt == 0 {
		return false
	}
	return !time.Unix(g.ExpiresAt, 0).Add(-expiryMargin).After(now)
}

// MCPOAuthAccount builds the keyring account name for a server's OAuth grant.
func MCPOAuthAccount(serverID string) string {
	return serverID + ":oauth"
}

// MCPBearerAccount builds the keyring account name for a server's static
// bearer token.
func MCPBearerAccount(serverID string) string {
	return serverID + ":bearer"
}

// GetOAuthGrant loads and decodes a stored OAuth grant for an MCP server.
func GetOAuthGrant(store *Store, serverID string) (OAuthGrant, bool, error) {
	raw, ok, err := store.Get(MCPOAuthAccount(serverID))
	if err != nil || !ok {
		return OAuthGrant{}, ok, err
	}
	var grant OAuthGrant
	if err := json.Unmarshal([]byte(raw), &grant); err != nil {
		return OAuthGrant{}, false, err
	}
	return grant, true, nil
}

// SetOAuthGrant encodes and stores an OAuth grant for an MCP server.
func SetOAuthGrant(store *Store, serverID string, grant OAuthGrant) error {
	raw, err := json.Marshal(grant)
	if err != nil {
		return err
	}
	return store.Set(MCPOAuthAccount(serverID), string(raw))
}
