package luxid

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"recruitexport/internal/models"
)

// CredentialProvider is the single gate in front of every authenticated call.
// It reuses the cached credential while it is valid and authenticates lazily
// otherwise, at most once per call.
type CredentialProvider struct {
	principal string
	secret    string
	store     *TokenStore
	auth      *Authenticator
	now       func() time.Time
	logger    *slog.Logger
}

// NewCredentialProvider creates a provider for one principal.
func NewCredentialProvider(logger *slog.Logger, principal, secret string, store *TokenStore, auth *Authenticator) *CredentialProvider {
	return &CredentialProvider{
		principal: principal,
		secret:    secret,
		store:     store,
		auth:      auth,
		now:       time.Now,
		logger:    logger,
	}
}

// Principal returns the identity this provider authenticates as.
func (p *CredentialProvider) Principal() string {
	return p.principal
}

// Credential returns a non-expired credential, authenticating if needed.
// Concurrent callers may both authenticate; whichever stores last wins.
func (p *CredentialProvider) Credential(ctx context.Context) (*models.Credential, error) {
	if cred, ok := p.store.Get(p.principal); ok && !IsExpired(cred, p.now()) {
		p.logger.Debug("Using cached token.", "principal", p.principal, "expiresIn", cred.ExpiresAt.Sub(p.now()).Round(time.Second))
		return cred, nil
	}

	p.logger.Info("No valid token found. Authenticating.", "principal", p.principal)
	return p.auth.Authenticate(ctx, p.principal, p.secret)
}

// Headers returns the Authorization header for an authenticated call.
func (p *CredentialProvider) Headers(ctx context.Context) (http.Header, error) {
	cred, err := p.Credential(ctx)
	if err != nil {
		return nil, err
	}
	tok := cred.OAuth2()
	h := http.Header{}
	h.Set("Authorization", tok.Type()+" "+tok.AccessToken)
	return h, nil
}
