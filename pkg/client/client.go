// Package client provides OAuth2 client setup for Google APIs.
package client

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/ArionMiles/spendnote/pkg/logging"
)

const (
	// DefaultCallbackPort is the port for the local OAuth callback server.
	DefaultCallbackPort = 8085
	// callbackPath is the path for the OAuth callback.
	callbackPath = "/callback"
	// serverTimeout is how long to wait for the OAuth callback.
	serverTimeout = 5 * time.Minute
)

// DefaultTokenFile is the default path to the OAuth token file.
const DefaultTokenFile = "data/token.json"

// ErrNoToken is returned when no token is stored and the browser flow is not allowed.
var ErrNoToken = errors.New("no oauth token found, run `spendnote setup` first")

// Config controls where credentials live and whether the browser flow may run.
type Config struct {
	// SecretFile is the Google OAuth client secret JSON.
	SecretFile string
	// TokenFile stores the user's token. Defaults to DefaultTokenFile.
	TokenFile string
	// Interactive allows the browser consent flow when no token is stored.
	Interactive bool
	// CallbackPort defaults to DefaultCallbackPort.
	CallbackPort int
}

func (c Config) withDefaults() Config {
	if c.TokenFile == "" {
		c.TokenFile = DefaultTokenFile
	}
	if c.CallbackPort == 0 {
		c.CallbackPort = DefaultCallbackPort
	}
	return c
}

// New creates a new HTTP client with OAuth2 credentials from cfg.SecretFile.
func New(ctx context.Context, cfg Config, logger *slog.Logger, scope ...string) (*http.Client, error) {
	b, err := os.ReadFile(cfg.SecretFile)
	if err != nil {
		return nil, fmt.Errorf("reading client secret file: %w", err)
	}
	return NewFromJSON(ctx, b, cfg, logger, scope...)
}

// NewFromJSON creates a new HTTP client with OAuth2 credentials from JSON content.
// Refreshed tokens are written back to the token file.
func NewFromJSON(ctx context.Context, secretJSON []byte, cfg Config, logger *slog.Logger, scope ...string) (*http.Client, error) {
	cfg = cfg.withDefaults()
	logger = logging.OrDefault(logger)

	oauthCfg, err := google.ConfigFromJSON(secretJSON, scope...)
	if err != nil {
		return nil, fmt.Errorf("parsing client secret: %w", err)
	}

	tok, err := TokenFromFile(cfg.TokenFile)
	if err != nil {
		if !cfg.Interactive {
			return nil, ErrNoToken
		}
		logger.Info("no existing token found, initiating OAuth flow")
		tok, err = getTokenFromWeb(ctx, oauthCfg, cfg.CallbackPort, logger)
		if err != nil {
			return nil, err
		}
		if err := SaveToken(cfg.TokenFile, tok); err != nil {
			logger.Error("failed to save token", "error", err)
		}
	}

	src := &savingTokenSource{
		base:   oauthCfg.TokenSource(ctx, tok),
		path:   cfg.TokenFile,
		last:   tok.AccessToken,
		logger: logger,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

// savingTokenSource persists every token that differs from the last one seen.
type savingTokenSource struct {
	base   oauth2.TokenSource
	path   string
	logger *slog.Logger

	mu   sync.Mutex
	last string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := SaveToken(s.path, tok); err != nil {
			s.logger.Warn("failed to persist refreshed token", "error", err)
		}
	}
	return tok, nil
}

func getTokenFromWeb(ctx context.Context, config *oauth2.Config, port int, logger *slog.Logger) (*oauth2.Token, error) {
	config.RedirectURL = fmt.Sprintf("http://localhost:%d%s", port, callbackPath)

	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("generating state token: %w", err)
	}

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	server, err := startCallbackServer(ctx, port, state, codeChan, errChan, logger)
	if err != nil {
		return nil, fmt.Errorf("starting callback server: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Warn("error shutting down callback server", "error", err)
		}
	}()

	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOffline)

	fmt.Printf("\nOpening browser for Google authentication...\n")
	fmt.Printf("If the browser doesn't open automatically, visit this URL:\n%s\n\n", authURL)

	if err := openBrowser(ctx, authURL); err != nil {
		logger.Warn("failed to open browser automatically", "error", err)
	}

	select {
	case code := <-codeChan:
		tok, err := config.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("exchanging authorization code for token: %w", err)
		}
		fmt.Println("Authentication successful!")
		return tok, nil
	case err := <-errChan:
		return nil, fmt.Errorf("oauth callback error: %w", err)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(serverTimeout):
		return nil, fmt.Errorf("oauth flow timed out after %v", serverTimeout)
	}
}

// callbackHandler validates the OAuth redirect and forwards the code or the failure.
func callbackHandler(expectedState string, codeChan chan<- string, errChan chan<- error) http.Handler {
	report := func(err error) {
		select {
		case errChan <- err:
		default:
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if state := q.Get("state"); state != expectedState {
			report(fmt.Errorf("invalid state parameter"))
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}

		if errMsg := q.Get("error"); errMsg != "" {
			report(fmt.Errorf("%s: %s", errMsg, q.Get("error_description")))
			http.Error(w, fmt.Sprintf("Authentication failed: %s", errMsg), http.StatusBadRequest)
			return
		}

		code := q.Get("code")
		if code == "" {
			report(fmt.Errorf("no authorization code received"))
			http.Error(w, "No authorization code received", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>spendnote connected</title></head>
<body style="font-family: sans-serif; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0;">
<div style="text-align: center;">
<h1 style="color: #4CAF50;">✓ Google Sheets connected</h1>
<p>You can close this window and return to the terminal.</p>
</div>
</body>
</html>`)

		select {
		case codeChan <- code:
		default:
		}
	})
}

func startCallbackServer(ctx context.Context, port int, expectedState string, codeChan chan<- string, errChan chan<- error, logger *slog.Logger) (*http.Server, error) {
	mux := http.NewServeMux()
	mux.Handle(callbackPath, callbackHandler(expectedState, codeChan, errChan))

	server := &http.Server{
		Addr:              fmt.Sprintf("localhost:%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", server.Addr)
	if err != nil {
		return nil, fmt.Errorf("port %d unavailable: %w", port, err)
	}

	go func() {
		logger.Debug("starting OAuth callback server", "port", port)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("callback server error", "error", err)
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	return server, nil
}

func openBrowser(ctx context.Context, url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", url)
	case "linux":
		cmd = exec.CommandContext(ctx, "xdg-open", url)
	case "windows":
		cmd = exec.CommandContext(ctx, "cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// HasToken reports whether a token file exists at path.
func HasToken(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// TokenFromFile reads a stored token.
func TokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// SaveToken writes token to path with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating token file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	return nil
}
