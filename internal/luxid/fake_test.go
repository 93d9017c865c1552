package luxid

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// fakeAPI is an in-process stand-in for the recruitment API.
type fakeAPI struct {
	mu sync.Mutex

	loginStatus int
	loginBody   string
	logins      int
	tokens      []string // issued in order; the last one repeats

	eventsStatus int
	eventsBody   string
	eventsCalls  int

	participantsStatus int
	participants       map[string]string // path -> body

	authHeaders []string
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{
		loginStatus:        http.StatusOK,
		tokens:             []string{"mocked_token"},
		eventsStatus:       http.StatusOK,
		eventsBody:         `[]`,
		participantsStatus: http.StatusOK,
		participants:       map[string]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.logins++
		f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
		if f.loginStatus != http.StatusOK {
			w.WriteHeader(f.loginStatus)
			return
		}
		if f.loginBody != "" {
			_, _ = io.WriteString(w, f.loginBody)
			return
		}
		tok := f.tokens[min(f.logins-1, len(f.tokens)-1)]
		_, _ = io.WriteString(w, `{"token":"`+tok+`"}`)
	})
	mux.HandleFunc("GET /events", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.eventsCalls++
		f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
		w.WriteHeader(f.eventsStatus)
		_, _ = io.WriteString(w, f.eventsBody)
	})
	mux.HandleFunc("GET /participants/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
		if f.participantsStatus != http.StatusOK {
			w.WriteHeader(f.participantsStatus)
			return
		}
		body, ok := f.participants[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, body)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeAPI) loginCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logins
}

func (f *fakeAPI) lastAuthHeader() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.authHeaders) == 0 {
		return ""
	}
	return f.authHeaders[len(f.authHeaders)-1]
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testKit struct {
	store    *TokenStore
	auth     *Authenticator
	provider *CredentialProvider
	client   *Client
	clock    *fakeClock
}

func newTestKit(baseURL string) *testKit {
	logger := discardLogger()
	clock := &fakeClock{now: time.Date(2025, 1, 15, 8, 30, 0, 0, time.UTC)}
	store := NewTokenStore()
	auth := NewAuthenticator(logger, nil, baseURL, store, DefaultTokenTTL)
	auth.now = clock.Now
	provider := NewCredentialProvider(logger, "test_user", "test_pass", store, auth)
	provider.now = clock.Now
	return &testKit{
		store:    store,
		auth:     auth,
		provider: provider,
		client:   NewClient(logger, nil, baseURL, provider),
		clock:    clock,
	}
}
