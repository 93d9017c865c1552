package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
)

const (
	credentialsFile = "credentials.json"

	// Desktop (out-of-band) flow: the user pastes the code into the terminal.
	oobRedirectURL = "urn:ietf:wg:oauth:2.0:oob"
)

// driveScopes limits the mirror to files it created itself.
var driveScopes = []string{drive.DriveFileScope}

// TokenFile returns the token file name used for a Drive account.
func TokenFile(accountName string) string {
	return fmt.Sprintf("token-%s.json", accountName)
}

// GetOAuthConfigForAuthFlow returns the Drive OAuth config used by the auth command.
func GetOAuthConfigForAuthFlow(clientID, clientSecret string) (*oauth2.Config, error) {
	return driveOAuthConfig(clientID, clientSecret, credentialsFile)
}

// driveOAuthConfig builds the Drive OAuth config from explicit client
// credentials, or from the downloaded client secret file when they are unset.
func driveOAuthConfig(clientID, clientSecret, secretPath string) (*oauth2.Config, error) {
	if clientID != "" && clientSecret != "" {
		return &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  oobRedirectURL,
			Scopes:       driveScopes,
			Endpoint:     google.Endpoint,
		}, nil
	}

	b, err := os.ReadFile(secretPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("no Drive client credentials: set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET or provide %s", secretPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", secretPath, err)
	}

	config, err := google.ConfigFromJSON(b, driveScopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", secretPath, err)
	}
	config.RedirectURL = oobRedirectURL
	return config, nil
}

// TokenFromWeb exchanges the authorization code pasted by the user.
func TokenFromWeb(ctx context.Context, config *oauth2.Config, authCode string) (*oauth2.Token, error) {
	return config.Exchange(ctx, authCode)
}

// SaveToken writes a Drive token readable only by the owner.
func SaveToken(path string, token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file %s: %w", path, err)
	}
	return nil
}

// loadToken reads a token written by SaveToken.
func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tok := &oauth2.Token{}
	if err := json.Unmarshal(data, tok); err != nil {
		return nil, fmt.Errorf("failed to decode token file %s: %w", path, err)
	}
	return tok, nil
}
