// Package luxid is a client for the recruitment API: Basic-to-Bearer login,
// token caching, and the events and participants listings.
package luxid

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"recruitexport/internal/models"
)

const (
	// DefaultBaseURL is the production recruitment API.
	DefaultBaseURL = "https://recruiment-api-1069519412575.europe-west3.run.app"

	eventsEndpoint = "/events"
	userAgent      = "recruitexport/1.0"
)

var tracer = otel.Tracer("recruitexport/luxid")

// HeaderSource supplies the Authorization header for a call.
type HeaderSource interface {
	Headers(ctx context.Context) (http.Header, error)
}

// Client lists events and participants through a HeaderSource.
type Client struct {
	httpClient *http.Client
	baseURL    string
	creds      HeaderSource
	logger     *slog.Logger
}

// NewClient creates a new recruitment API client.
func NewClient(logger *slog.Logger, httpClient *http.Client, baseURL string, creds HeaderSource) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		creds:      creds,
		logger:     logger,
	}
}

// ListEvents fetches every event. It returns the full list or an error, never
// a partial result.
func (c *Client) ListEvents(ctx context.Context) ([]models.EventSummary, error) {
	ctx, span := tracer.Start(ctx, "luxid.ListEvents")
	defer span.End()

	url := c.baseURL + eventsEndpoint
	c.logger.Debug("Fetching events", "url", url)

	body, err := c.get(ctx, ResourceEvents, url)
	if err != nil {
		return nil, traceErr(span, err)
	}
	events, err := decodeEvents(body)
	if err != nil {
		return nil, traceErr(span, &FetchError{Resource: ResourceEvents, URL: url, Err: err})
	}

	span.SetAttributes(attribute.Int("luxid.events", len(events)))
	c.logger.Info("Successfully fetched events", "count", len(events))
	return events, nil
}

// ListParticipants fetches the participants behind a server-supplied URL.
// The URL is used as given.
func (c *Client) ListParticipants(ctx context.Context, participantsURL string) ([]models.Participant, error) {
	ctx, span := tracer.Start(ctx, "luxid.ListParticipants", trace.WithAttributes(attribute.String("luxid.url", participantsURL)))
	defer span.End()

	c.logger.Debug("Fetching participants", "url", participantsURL)

	body, err := c.get(ctx, ResourceParticipants, participantsURL)
	if err != nil {
		return nil, traceErr(span, err)
	}
	participants, err := decodeParticipants(body)
	if err != nil {
		return nil, traceErr(span, &FetchError{Resource: ResourceParticipants, URL: participantsURL, Err: err})
	}

	span.SetAttributes(attribute.Int("luxid.participants", len(participants)))
	c.logger.Debug("Fetched participants", "url", participantsURL, "count", len(participants))
	return participants, nil
}

// get performs an authenticated GET. Authentication failures are returned as
// *AuthError, everything else as *FetchError.
func (c *Client) get(ctx context.Context, resource, url string) ([]byte, error) {
	headers, err := c.creds.Headers(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Resource: resource, URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	for k, v := range headers {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Resource: resource, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Resource: resource, URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Resource: resource, URL: url, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	return body, nil
}

func traceErr(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
