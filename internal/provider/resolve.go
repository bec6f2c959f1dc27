package provider

import (
	"errors"
	"fmt"
	"os"

	"github.com/chabeau/chabeau/internal/config"
	"github.com/chabeau/chabeau/internal/credentials"
)

// Session is the resolved, ready-to-use provider binding (spec §4.4
// ProviderSession).
type Session struct {
	APIKey             string
	BaseURL            string
	ProviderID         string
	ProviderDisplayName string
	Auth               AuthStyle
}

// Resolution errors (spec §7 ProviderResolutionError variants).
var (
	ErrMissingAuthentication = errors.New("no credentials available for any configured provider")
	ErrProviderNotConfigured = errors.New("provider has no stored credentials")
	ErrDefaultProviderMissing = errors.New("default provider has no stored credentials")
)

// QuickFix is a single suggested remediation, rendered by the CLI (not by
// this package) when resolution fails with ErrMissingAuthentication.
type QuickFix struct {
	Summary string
	Command string
}

// QuickFixes is the predefined list surfaced alongside MissingAuthentication
// (spec §4.4).
var QuickFixes = []QuickFix{
	{Summary: "Authenticate with OpenAI", Command: "chabeau auth --provider openai"},
	{Summary: "Authenticate with Anthropic", Command: "chabeau auth --provider anthropic"},
	{Summary: "Set an API key via environment", Command: "export OPENAI_API_KEY=..."},
}

// AuthSource looks up a stored credential for a provider id. It is an
// interface so resolution can be tested without a real keyring and so
// non-keyring auth sources (e.g. "--api-key" flags layered in by the CLI)
// can be substituted.
type AuthSource interface {
	// Lookup returns the api key for providerID, and whether one is stored.
	Lookup(providerID string) (string, bool)
	// UsesKeyring reports whether this source is backed by the OS keyring
	// (spec §4.4 step 3 only applies to keyring-backed sources).
	UsesKeyring() bool
}

// KeyringAuthSource is the production AuthSource, backed by the OS keyring
// credential store (C2).
type KeyringAuthSource struct {
	Store *credentials.Store
}

func (k KeyringAuthSource) Lookup(providerID string) (string, bool) {
	secret, ok, err := k.Store.Get(providerID)
	if err != nil || !ok {
		return "", false
	}
	return secret, true
}

func (k KeyringAuthSource) UsesKeyring() bool { return true }

// Resolve implements spec §4.4's resolution order exactly.
func Resolve(cfg *config.Config, auth AuthSource, providerOverride string) (Session, error) {
	// 1. Explicit override.
	if providerOverride != "" {
		return resolveNamed(cfg, auth, providerOverride, ErrProviderNotConfigured)
	}

	// 2. Config default_provider.
	if cfg != nil && cfg.DefaultProvider != "" {
		return resolveNamed(cfg, auth, cfg.DefaultProvider, ErrDefaultProviderMissing)
	}

	// 3. First available credential in registry order, keyring-backed only.
	if auth.UsesKeyring() {
		for _, d := range All(cfg) {
			if key, ok := auth.Lookup(d.ID); ok {
				return Session{APIKey: key, BaseURL: d.BaseURL, ProviderID: d.ID, ProviderDisplayName: d.Display, Auth: d.Auth}, nil
			}
		}
	}

	// 4. Environment fallback.
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		baseURL := os.Getenv("OPENAI_BASE_URL")
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		providerID := "openai-compatible"
		display := "OpenAI-compatible"
		if baseURL == "https://api.openai.com/v1" {
			providerID = "openai"
			display = "OpenAI"
		}
		return Session{APIKey: key, BaseURL: baseURL, ProviderID: providerID, ProviderDisplayName: display, Auth: AuthBearer}, nil
	}

	return Session{}, ErrMissingAuthentication
}

func resolveNamed(cfg *config.Config, auth AuthSource, id string, missingErr error) (Session, error) {
	id = config.CanonicalProviderID(id)
	d, ok := Find(cfg, id)
	if !ok {
		return Session{}, fmt.Errorf("%w: unknown provider %q", ErrProviderNotConfigured, id)
	}
	key, ok := auth.Lookup(id)
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", missingErr, d.Display)
	}
	return Session{APIKey: key, BaseURL: d.BaseURL, ProviderID: d.ID, ProviderDisplayName: d.Display, Auth: d.Auth}, nil
}
