package models

import (
	"time"

	"golang.org/x/oauth2"
)

// Credential is a Bearer token issued to a principal.
// Values are immutable: a refresh replaces the whole Credential.
type Credential struct {
	Principal string
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the credential is no longer usable at now.
func (c *Credential) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// OAuth2 converts the credential into an oauth2 Bearer token.
func (c *Credential) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken: c.Token,
		TokenType:   "Bearer",
		Expiry:      c.ExpiresAt,
	}
}
