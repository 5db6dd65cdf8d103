package mail

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
)

var (
	ErrNoToken = errors.New("no gmail oauth token")
)

// oobRedirect makes Google show the authorization code to the user.
const oobRedirect = "urn:ietf:wg:oauth:2.0:oob"

// Auth holds the OAuth client configuration and where the user token lives.
type Auth struct {
	conf      *oauth2.Config
	tokenFile string
}

// NewAuth reads an OAuth client secret file downloaded from the Google
// Cloud console. The token is stored in tokenFile.
func NewAuth(credentialsFile, tokenFile string) (*Auth, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	conf, err := google.ConfigFromJSON(data, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	if conf.RedirectURL == "" {
		conf.RedirectURL = oobRedirect
	}
	return &Auth{conf: conf, tokenFile: tokenFile}, nil
}

// NewAuthWithConfig is NewAuth for an already built config.
func NewAuthWithConfig(conf *oauth2.Config, tokenFile string) *Auth {
	return &Auth{conf: conf, tokenFile: tokenFile}
}

// URL returns the consent page address the user opens.
func (a *Auth) URL(state string) string {
	return a.conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades the authorization code for a token and stores it.
func (a *Auth) Exchange(ctx context.Context, code string) error {
	t, err := a.conf.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return fmt.Errorf("exchange auth code: %w", err)
	}
	return SaveToken(a.tokenFile, t)
}

// HasToken reports whether a token file exists.
func (a *Auth) HasToken() bool {
	_, err := os.Stat(a.tokenFile)
	return err == nil
}

// HTTPClient returns a client that authorizes requests with the stored
// token, refreshing it as needed.
func (a *Auth) HTTPClient(ctx context.Context) (*http.Client, error) {
	t, err := LoadToken(a.tokenFile)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, a.conf.TokenSource(ctx, t)), nil
}

// SaveToken writes "access refresh" to path with owner-only permissions.
func SaveToken(path string, t *oauth2.Token) error {
	if t.AccessToken == "" {
		return errors.New("empty access token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	data := t.AccessToken + " " + t.RefreshToken
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// LoadToken reads a token written by SaveToken. The access token is marked
// expired so the first request refreshes it.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: run `jobsyncd auth` first", ErrNoToken)
	}
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}

	f := strings.Fields(string(data))
	switch len(f) {
	case 1:
		return &oauth2.Token{AccessToken: f[0], TokenType: "Bearer"}, nil
	case 2:
		return &oauth2.Token{
			AccessToken:  f[0],
			TokenType:    "Bearer",
			RefreshToken: f[1],
			Expiry:       time.Unix(1, 0),
		}, nil
	default:
		return nil, fmt.Errorf("invalid token file %s", path)
	}
}
