package mail

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestToken_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobsyncd", "gmail.token")

	require.NoError(t, SaveToken(path, &oauth2.Token{AccessToken: "acc", RefreshToken: "ref"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	tok, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "acc", tok.AccessToken)
	assert.Equal(t, "ref", tok.RefreshToken)
	assert.False(t, tok.Valid(), "loaded token is refreshed on first use")
}

func TestToken_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadToken(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, ErrNoToken)

	bad := filepath.Join(dir, "bad")
	require.NoError(t, os.WriteFile(bad, []byte("a b c"), 0o600))
	_, err = LoadToken(bad)
	assert.Error(t, err)

	assert.Error(t, SaveToken(filepath.Join(dir, "x"), &oauth2.Token{}))
}

func TestAuth_URLAndExchange(t *testing.T) {
	var gotCode string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotCode = r.Form.Get("code")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"new-access","refresh_token":"new-refresh","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	tokenFile := filepath.Join(t.TempDir(), "gmail.token")
	a := NewAuthWithConfig(&oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  oobRedirect,
		Endpoint: oauth2.Endpoint{
			AuthURL:  srv.URL + "/auth",
			TokenURL: srv.URL + "/token",
		},
		Scopes: []string{"scope-a"},
	}, tokenFile)

	u, err := url.Parse(a.URL("state-1"))
	require.NoError(t, err)
	assert.Equal(t, "client", u.Query().Get("client_id"))
	assert.Equal(t, "state-1", u.Query().Get("state"))
	assert.Equal(t, "offline", u.Query().Get("access_type"))

	assert.False(t, a.HasToken())
	require.NoError(t, a.Exchange(context.Background(), " code-123\n"))
	assert.Equal(t, "code-123", gotCode)
	assert.True(t, a.HasToken())

	tok, err := LoadToken(tokenFile)
	require.NoError(t, err)
	assert.Equal(t, "new-access", tok.AccessToken)
	assert.Equal(t, "new-refresh", tok.RefreshToken)

	client, err := a.HTTPClient(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNewAuth(t *testing.T) {
	dir := t.TempDir()
	creds := filepath.Join(dir, "credentials.json")
	require.NoError(t, os.WriteFile(creds, []byte(`{"installed":{
		"client_id":"id.apps.googleusercontent.com",
		"client_secret":"s",
		"auth_uri":"https://accounts.google.com/o/oauth2/auth",
		"token_uri":"https://oauth2.googleapis.com/token",
		"redirect_uris":["http://localhost"]
	}}`), 0o600))

	a, err := NewAuth(creds, filepath.Join(dir, "token"))
	require.NoError(t, err)
	assert.Contains(t, a.URL("s"), "id.apps.googleusercontent.com")

	_, err = NewAuth(filepath.Join(dir, "nope.json"), "")
	assert.Error(t, err)

	_, err = a.HTTPClient(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}
