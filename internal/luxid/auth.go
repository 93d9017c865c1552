package luxid

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"

	"recruitexport/internal/models"
)

const (
	loginEndpoint = "/login"

	// DefaultTokenTTL is how long the remote API honours a token.
	DefaultTokenTTL = 15 * time.Minute
)

// Authenticator exchanges a username and password for a Bearer token.
type Authenticator struct {
	httpClient *http.Client
	baseURL    string
	store      *TokenStore
	ttl        time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// NewAuthenticator creates an Authenticator that stores issued credentials in store.
func NewAuthenticator(logger *slog.Logger, httpClient *http.Client, baseURL string, store *TokenStore, ttl time.Duration) *Authenticator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Authenticator{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		store:      store,
		ttl:        ttl,
		now:        time.Now,
		logger:     logger,
	}
}

// Authenticate performs the login exchange and replaces any cached credential
// for principal. On failure the store is left untouched.
func (a *Authenticator) Authenticate(ctx context.Context, principal, secret string) (*models.Credential, error) {
	ctx, span := tracer.Start(ctx, "luxid.Authenticate")
	defer span.End()
	span.SetAttributes(attribute.String("luxid.principal", principal))

	a.logger.Info("Requesting new token.", "principal", principal)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+loginEndpoint, nil)
	if err != nil {
		return nil, traceErr(span, &AuthError{Principal: principal, Err: fmt.Errorf("failed to create login request: %w", err)})
	}
	req.SetBasicAuth(principal, secret)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, traceErr(span, &AuthError{Principal: principal, Err: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, traceErr(span, &AuthError{Principal: principal, StatusCode: resp.StatusCode})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, traceErr(span, &AuthError{Principal: principal, Err: fmt.Errorf("failed to read login response: %w", err)})
	}
	if !gjson.ValidBytes(body) {
		return nil, traceErr(span, &AuthError{Principal: principal, Err: ErrMalformedResponse})
	}
	token := gjson.GetBytes(body, "token")
	if token.Type != gjson.String || token.String() == "" {
		return nil, traceErr(span, &AuthError{Principal: principal, Err: ErrMissingToken})
	}

	issued := a.now()
	cred := &models.Credential{
		Principal: principal,
		Token:     token.String(),
		IssuedAt:  issued,
		ExpiresAt: issued.Add(a.ttl),
	}
	a.store.Put(principal, cred)

	a.logger.Info("Token stored.", "principal", principal, "expiresAt", cred.ExpiresAt)
	return cred, nil
}
