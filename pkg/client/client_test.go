package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/ArionMiles/spendnote/pkg/logging"
)

const secretJSON = `{"installed":{
	"client_id":"id.apps.googleusercontent.com",
	"client_secret":"secret",
	"redirect_uris":["http://localhost"],
	"auth_uri":"https://accounts.google.com/o/oauth2/auth",
	"token_uri":"https://oauth2.googleapis.com/token"
}}`

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	assert.False(t, HasToken(path))

	tok := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"}
	require.NoError(t, SaveToken(path, tok))
	assert.True(t, HasToken(path))

	got, err := TokenFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "access", got.AccessToken)
	assert.Equal(t, "refresh", got.RefreshToken)
}

func TestNewFromJSON_NonInteractiveWithoutToken(t *testing.T) {
	cfg := Config{TokenFile: filepath.Join(t.TempDir(), "token.json")}

	_, err := NewFromJSON(context.Background(), []byte(secretJSON), cfg, logging.Discard(), "scope")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestNewFromJSON_UsesStoredToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, SaveToken(path, &oauth2.Token{
		AccessToken: "stored",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	}))

	gotAuth := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth <- r.Header.Get("Authorization")
	}))
	defer srv.Close()

	c, err := NewFromJSON(context.Background(), []byte(secretJSON), Config{TokenFile: path}, logging.Discard(), "scope")
	require.NoError(t, err)

	resp, err := c.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "Bearer stored", <-gotAuth)
}

func TestNewFromJSON_BadSecret(t *testing.T) {
	_, err := NewFromJSON(context.Background(), []byte(`{}`), Config{}, logging.Discard())
	assert.ErrorContains(t, err, "parsing client secret")
}

func TestNew_MissingSecretFile(t *testing.T) {
	_, err := New(context.Background(), Config{SecretFile: filepath.Join(t.TempDir(), "nope.json")}, logging.Discard())
	assert.ErrorContains(t, err, "reading client secret file")
}

type staticSource struct{ tok *oauth2.Token }

func (s staticSource) Token() (*oauth2.Token, error) { return s.tok, nil }

func TestSavingTokenSource_PersistsNewTokens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	src := &savingTokenSource{
		base:   staticSource{&oauth2.Token{AccessToken: "fresh"}},
		path:   path,
		last:   "old",
		logger: logging.Discard(),
	}

	_, err := src.Token()
	require.NoError(t, err)

	saved, err := TokenFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fresh", saved.AccessToken)
}

func TestCallbackHandler(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode string
		wantErr  bool
		status   int
	}{
		{name: "success", query: "?state=s&code=abc", wantCode: "abc", status: http.StatusOK},
		{name: "bad state", query: "?state=x&code=abc", wantErr: true, status: http.StatusBadRequest},
		{name: "provider error", query: "?state=s&error=access_denied", wantErr: true, status: http.StatusBadRequest},
		{name: "missing code", query: "?state=s", wantErr: true, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codeChan := make(chan string, 1)
			errChan := make(chan error, 1)
			rec := httptest.NewRecorder()

			callbackHandler("s", codeChan, errChan).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback"+tt.query, nil))

			assert.Equal(t, tt.status, rec.Code)
			if tt.wantErr {
				assert.Len(t, errChan, 1)
				assert.Empty(t, codeChan)
				return
			}
			assert.Equal(t, tt.wantCode, <-codeChan)
		})
	}
}

func TestCallbackHandler_RepeatedCallbacksDoNotBlock(t *testing.T) {
	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)
	h := callbackHandler("s", codeChan, errChan)

	done := make(chan struct{})
	go func() {
		for range 3 {
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?state=s&code=c", nil))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler blocked")
	}
}
