package luxid

import (
	"sync"
	"time"

	"recruitexport/internal/models"
)

// TokenStore holds at most one credential per principal.
// Entries are swapped whole; a stored *models.Credential is never mutated.
type TokenStore struct {
	creds sync.Map // principal -> *models.Credential
}

// NewTokenStore creates an empty store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Get returns the current credential for principal, if any.
func (s *TokenStore) Get(principal string) (*models.Credential, bool) {
	v, ok := s.creds.Load(principal)
	if !ok {
		return nil, false
	}
	return v.(*models.Credential), true
}

// Put replaces the credential for principal. The last write wins.
func (s *TokenStore) Put(principal string, cred *models.Credential) {
	s.creds.Store(principal, cred)
}

// IsExpired reports whether cred is unusable at now (now >= expiresAt).
func IsExpired(cred *models.Credential, now time.Time) bool {
	return cred == nil || cred.Expired(now)
}
