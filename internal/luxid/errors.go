package luxid

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingToken is returned when a login succeeds but carries no token.
	ErrMissingToken = errors.New("login response carried no token")

	// ErrMalformedResponse is returned when a response body cannot be decoded
	// into the shape the endpoint promises.
	ErrMalformedResponse = errors.New("malformed response body")
)

// AuthError reports a failed credential exchange. It is never retried here.
type AuthError struct {
	Principal  string
	StatusCode int // 0 when the failure happened before or after the HTTP status
	Err        error
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("authentication failed for %q: status %d", e.Principal, e.StatusCode)
	}
	return fmt.Sprintf("authentication failed for %q: %v", e.Principal, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Resource names used in FetchError.
const (
	ResourceEvents       = "events"
	ResourceParticipants = "participants"
)

// FetchError reports a failed events or participants call.
type FetchError struct {
	Resource   string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	target := e.Resource
	if e.Resource == ResourceParticipants && e.URL != "" {
		target = fmt.Sprintf("%s from %s", e.Resource, e.URL)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch %s: status %d", target, e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch %s: %v", target, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
