package mcpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/chabeau/chabeau/internal/credentials"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/oauth2"
)

// TokenRefresher performs an OAuth `grant_type=refresh_token` exchange and
// returns the updated grant (spec §4.3 "OAuth"). RefreshOAuthToken below is
// the implementation the Manager wires into every HTTPConn.
type TokenRefresher func(ctx context.Context, grant credentials.OAuthGrant) (credentials.OAuthGrant, error)

// HTTPConn connects to an MCP server over Streamable HTTP (spec §4.3
// "Streamable HTTP"): JSON or text/event-stream responses to POSTs against
// a single base URL, with a negotiated mcp-session-id and optional bearer
// auth that's refreshed on a 401 when a refresh token is on file.
type HTTPConn struct {
	URL         string
	Headers     map[string]string
	ServerID    string
	Store       *credentials.Store
	Refresh     TokenRefresher

	mu      sync.RWMutex
	client  *mcp.Client
	session *mcp.ClientSession
	caps    Capabilities
}

// authRoundTripper injects a static header set plus a bearer token it keeps
// fresh via the OAuth grant on file, refreshing once on a 401.
type authRoundTripper struct {
	base     http.RoundTripper
	headers  map[string]string
	serverID string
	store    *credentials.Store
	refresh  TokenRefresher
}

func (rt *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	for k, v := range rt.headers {
		req.Header.Set(k, v)
	}
	rt.applyBearer(req)

	resp, err := rt.base.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized || rt.refresh == nil || rt.store == nil {
		return resp, err
	}

	grant, ok, gerr := credentials.GetOAuthGrant(rt.store, rt.serverID)
	if gerr != nil || !ok || grant.RefreshToken == "" {
		return resp, err
	}
	resp.Body.Close()

	refreshed, rerr := rt.refresh(req.Context(), grant)
	if rerr != nil {
		return resp, rerr
	}
	if serr := credentials.SetOAuthGrant(rt.store, rt.serverID, refreshed); serr != nil {
		return resp, serr
	}

	retry := req.Clone(req.Context())
	retry.Header.Set("Authorization", "Bearer "+refreshed.AccessToken)
	return rt.base.RoundTrip(retry)
}

func (rt *authRoundTripper) applyBearer(req *http.Request) {
	if rt.store == nil {
		return
	}
	if grant, ok, _ := credentials.GetOAuthGrant(rt.store, rt.serverID); ok && grant.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+grant.AccessToken)
		return
	}
	if token, ok, _ := rt.store.Get(credentials.MCPBearerAccount(rt.serverID)); ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *HTTPConn) httpClient() *http.Client {
	return &http.Client{
		Timeout: 2 * time.Minute,
		Transport: &authRoundTripper{
			base:     http.DefaultTransport,
			headers:  c.Headers,
			serverID: c.ServerID,
			store:    c.Store,
			refresh:  c.Refresh,
		},
	}
}

func (c *HTTPConn) Start(ctx context.Context) error {
	if _, err := url.Parse(c.URL); err != nil {
		return fmt.Errorf("mcpclient: invalid server url: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.client = mcp.NewClient(clientImpl, nil)
	transport := &mcp.StreamableClientTransport{Endpoint: c.URL, HTTPClient: c.httpClient()}
	session, err := c.client.Connect(ctx, transport, nil)
	if err != nil {
		return fmt.Errorf("mcpclient: connect http server: %w", err)
	}
	c.session = session
	c.caps = deriveCapabilities(session)
	return nil
}

func (c *HTTPConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}

func (c *HTTPConn) Capabilities() Capabilities {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.caps
}

func (c *HTTPConn) ListTools(ctx context.Context) ([]ToolSpec, bool, error) {
	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()
	return listTools(ctx, session)
}

func (c *HTTPConn) ListResources(ctx context.Context) ([]ResourceSpec, bool, error) {
	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()
	return listResources(ctx, session)
}

func (c *HTTPConn) ListPrompts(ctx context.Context) ([]PromptSpec, bool, error) {
	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()
	return listPrompts(ctx, session)
}

func (c *HTTPConn) CallTool(ctx context.Context, name string, args map[string]any) (string, bool, error) {
	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()
	return callTool(ctx, session, name, args)
}

func (c *HTTPConn) ReadResource(ctx context.Context, uri string) (string, error) {
	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()
	return readResource(ctx, session, uri)
}

func (c *HTTPConn) GetPrompt(ctx context.Context, name string, args map[string]string) (string, error) {
	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()
	return getPrompt(ctx, session, name, args)
}

// RefreshOAuthToken is the default TokenRefresher: a standard OAuth
// `grant_type=refresh_token` exchange against the grant's token_endpoint
// (spec §4.3 "OAuth"), via golang.org/x/oauth2 rather than a hand-rolled
// form POST.
func RefreshOAuthToken(ctx context.Context, grant credentials.OAuthGrant) (credentials.OAuthGrant, error) {
	if grant.TokenEndpoint == "" {
		return grant, fmt.Errorf("mcpclient: grant has no token_endpoint")
	}
	conf := &oauth2.Config{
		ClientID: grant.ClientID,
		Endpoint: oauth2.Endpoint{TokenURL: grant.TokenEndpoint, AuthURL: grant.AuthorizationEndpoint},
	}
	// Expiry forced into the past so TokenSource treats the cached token as
	// stale and performs the refresh_token exchange immediately.
	stale := &oauth2.Token{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		TokenType:    grant.TokenType,
		Expiry:       time.Now().Add(-time.Minute),
	}
	tok, err := conf.TokenSource(ctx, stale).Token()
	if err != nil {
		return grant, fmt.Errorf("mcpclient: refreshing OAuth token: %w", err)
	}

	updated := grant
	updated.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		updated.RefreshToken = tok.RefreshToken
	}
	if tok.TokenType != "" {
		updated.TokenType = tok.TokenType
	}
	if !tok.Expiry.IsZero() {
		updated.ExpiresAt = tok.Expiry.Unix()
	}
	return updated, nil
}
