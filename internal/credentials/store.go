// Package credentials implements chabeau's credential store (C2): named
// secrets in the OS keyring, keyed by (service, account). Adapted from
// internal/credentials' on-disk OAuth credential readers onto
// github.com/zalando/go-keyring, the OS-keyring binding attested across
// the retrieval pack.
package credentials

import (
	"errors"

	"github.com/zalando/go-keyring"
)

// Service names used as the keyring "service" component (spec §6).
const (
	ServiceProviders = "chabeau"
	ServiceMCP       = "chabeau-mcp"
)

// ErrNotFound is the keyring backend's "no such entry" error. Get and
// Remove never return it: Get reports an absent credential as
// ("", false, nil) and Remove treats it as success, so callers handle
// "absent" as a normal outcome (spec §8).
var ErrNotFound = keyring.ErrNotFound

// Store wraps an OS keyring. It is instance-based, not a shared handle
// (spec §9 "Global state... Keyring access is instance-based").
type Store struct {
	service string
}

// NewStore returns a credential store scoped to the given keyring service.
func NewStore(service string) *Store {
	return &Store{service: service}
}

// Get returns the stored secret for account, or ("", false, nil) if absent.
func (s *Store) Get(account string) (string, bool, error) {
	secret, err := keyring.Get(s.service, account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return secret, true, nil
}

// Set stores (overwriting) the secret for account.
func (s *Store) Set(account, secret string) error {
	return keyring.Set(s.service, account, secret)
}

// Remove deletes the secret for account. Removing an absent entry is not an
// error (spec §8 "remove_token on a nonexistent entry does not error").
func (s *Store) Remove(account string) error {
	err := keyring.Delete(s.service, account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

// List returns the subset of candidates that have a stored credential.
// Keyring backends don't expose enumeration, so it probes Get for each
// candidate account (callers pass known provider/server ids from config);
// accounts whose lookup fails are left out.
func (s *Store) List(candidates []string) []string {
	var present []string
	for _, account := range candidates {
		if _, ok, err := s.Get(account); err == nil && ok {
			present = append(present, account)
		}
	}
	return present
}
