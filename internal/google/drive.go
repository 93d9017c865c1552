package google

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DrivePublisher mirrors export files into a Google Drive folder.
type DrivePublisher struct {
	service  *drive.Service
	logger   *slog.Logger
	folderID string
}

// NewDrivePublisher creates a Drive publisher for a previously authenticated account.
// The accountName selects the token file written by the auth command.
func NewDrivePublisher(ctx context.Context, logger *slog.Logger, clientID, clientSecret, accountName, folderID string) (*DrivePublisher, error) {
	config, err := driveOAuthConfig(clientID, clientSecret, credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth config: %w", err)
	}

	tokenFile := TokenFile(accountName)
	token, err := loadToken(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("could not load token for account %s: %w. Please run the 'auth' command first", accountName, err)
	}

	client := config.Client(ctx, token)
	service, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &DrivePublisher{service: service, logger: logger, folderID: folderID}, nil
}

// Name identifies the publisher in logs.
func (d *DrivePublisher) Name() string {
	return "google-drive"
}

// Publish uploads data as name, updating the existing file of that name in
// the folder when there is one.
func (d *DrivePublisher) Publish(ctx context.Context, name, contentType string, data []byte) error {
	existing, err := d.service.Files.List().
		Q(fileQuery(name, d.folderID)).
		Fields("files(id, name)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to look up %s on drive: %w", name, err)
	}

	media := bytes.NewReader(data)
	if len(existing.Files) > 0 {
		id := existing.Files[0].Id
		_, err := d.service.Files.Update(id, &drive.File{}).
			Media(media, googleapi.ContentType(contentType)).
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to update %s on drive: %w", name, err)
		}
		d.logger.Debug("Updated drive file", "name", name, "id", id)
		return nil
	}

	file := &drive.File{Name: name, MimeType: mimeType(contentType)}
	if d.folderID != "" {
		file.Parents = []string{d.folderID}
	}
	created, err := d.service.Files.Create(file).
		Media(media, googleapi.ContentType(contentType)).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to create %s on drive: %w", name, err)
	}
	d.logger.Info("Created drive file.", "name", name, "id", created.Id)
	return nil
}

// fileQuery builds the Drive search expression for a file in a folder.
func fileQuery(name, folderID string) string {
	q := fmt.Sprintf("name = '%s' and trashed = false", escapeQuery(name))
	if folderID != "" {
		q += fmt.Sprintf(" and '%s' in parents", escapeQuery(folderID))
	}
	return q
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

// mimeType strips parameters such as charset from a content type.
func mimeType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(mt)
}
