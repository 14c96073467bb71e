package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/dalimagaadi/kord-app/internal/config"
	kerrors "github.com/dalimagaadi/kord-app/internal/errors"
)

// TokenStore reads and writes the OAuth token used by the Web API client.
// Obtaining the token is left to external tooling.
type TokenStore struct {
	path string
}

// NewTokenStore creates a store at path, or at the default location when
// path is empty.
func NewTokenStore(path string) *TokenStore {
	if path == "" {
		path = config.DefaultTokenFile()
	}
	return &TokenStore{path: path}
}

// Load reads the token. A missing file yields ErrNotAuthenticated.
func (s *TokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no token at %s", kerrors.ErrNotAuthenticated, s.path)
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token file %s is empty", kerrors.ErrNotAuthenticated, s.path)
	}
	return &token, nil
}

// Save writes the token readable by the owner only.
func (s *TokenStore) Save(token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Path returns the token file location.
func (s *TokenStore) Path() string {
	return s.path
}

// NewAuthenticator builds the OAuth configuration for playback control.
func NewAuthenticator(cfg config.SpotifyConfig) *spotifyauth.Authenticator {
	return spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithRedirectURL(cfg.RedirectURI),
		spotifyauth.WithScopes(
			spotifyauth.ScopeUserModifyPlaybackState,
			spotifyauth.ScopeUserReadPlaybackState,
			spotifyauth.ScopeUserReadCurrentlyPlaying,
		),
	)
}

// NewClient returns a Web API client authorized with the stored token. The
// token is refreshed in memory as it expires.
func NewClient(ctx context.Context, cfg config.SpotifyConfig) (*spotify.Client, error) {
	token, err := NewTokenStore(cfg.TokenFile).Load()
	if err != nil {
		return nil, err
	}
	auth := NewAuthenticator(cfg)
	return spotify.New(auth.Client(ctx, token), spotify.WithRetry(true)), nil
}

// PersistToken writes the client's current token back to the store so a
// refresh made during this run survives it.
func PersistToken(client *spotify.Client, store *TokenStore) error {
	token, err := client.Token()
	if err != nil {
		return fmt.Errorf("failed to read current token: %w", err)
	}
	return store.Save(token)
}
