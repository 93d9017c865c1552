// Package dav mirrors export files to a WebDAV collection
// (Nextcloud, ownCloud, iCloud Drive bridges and the like).
package dav

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/emersion/go-webdav"
)

// customTransport handles adding Basic Auth and custom headers to requests.
type customTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

// RoundTrip adds required headers and authentication to each request.
func (t *customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.Username != "" {
		req.SetBasicAuth(t.Username, t.Password)
	}
	req.Header.Set("User-Agent", "recruitexport/1.0")
	return t.Transport.RoundTrip(req)
}

// Publisher uploads export files into one WebDAV directory.
type Publisher struct {
	client   *webdav.Client
	logger   *slog.Logger
	endpoint string
	dir      string
}

// NewPublisher creates a Publisher for the collection dir under endpoint.
func NewPublisher(logger *slog.Logger, endpoint, username, password, dir string) (*Publisher, error) {
	transport := &customTransport{
		Username:  username,
		Password:  password,
		Transport: http.DefaultTransport,
	}
	httpClient := &http.Client{Transport: transport}

	client, err := webdav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create webdav client: %w", err)
	}

	return &Publisher{
		client:   client,
		logger:   logger,
		endpoint: endpoint,
		dir:      "/" + strings.Trim(dir, "/"),
	}, nil
}

// Name identifies the publisher in logs.
func (p *Publisher) Name() string {
	return "webdav"
}

// Publish writes data to <dir>/<name>, replacing any existing file.
// WebDAV PUT carries no content type here; servers infer it from the name.
func (p *Publisher) Publish(ctx context.Context, name, _ string, data []byte) error {
	if err := p.ensureDir(ctx); err != nil {
		return err
	}

	filePath := path.Join(p.dir, name)
	p.logger.Debug("Uploading file to WebDAV", "endpoint", p.endpoint, "path", filePath, "bytes", len(data))

	writer, err := p.client.Create(ctx, filePath)
	if err != nil {
		return fmt.Errorf("failed to create %s on WebDAV server: %w", filePath, err)
	}
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return fmt.Errorf("failed to upload %s: %w", filePath, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to upload %s: %w", filePath, err)
	}
	return nil
}

// ensureDir creates the target collection when it does not exist yet.
func (p *Publisher) ensureDir(ctx context.Context) error {
	if p.dir == "/" {
		return nil
	}
	if _, err := p.client.Stat(ctx, p.dir); err == nil {
		return nil
	}
	if err := p.client.Mkdir(ctx, p.dir); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", p.dir, err)
	}
	p.logger.Info("Created WebDAV directory.", "path", p.dir)
	return nil
}
