package oauth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"golang.org/x/oauth2"
)

// DefaultTokenFile is where the token response is persisted.
const DefaultTokenFile = "notion-token.json"

// ErrMissingAccessToken is returned when the token file has no access_token.
var ErrMissingAccessToken = errors.New("token file does not contain an access_token")

// TokenStore persists the raw token response. The auth command writes it once,
// the read command only loads it.
type TokenStore struct {
	fs   afero.Fs
	path string
}

// NewTokenStore creates a TokenStore backed by fs. An empty path uses
// DefaultTokenFile.
func NewTokenStore(fs afero.Fs, path string) *TokenStore {
	if path == "" {
		path = DefaultTokenFile
	}
	return &TokenStore{fs: fs, path: path}
}

// Path returns the token file location.
func (s *TokenStore) Path() string {
	return s.path
}

// Save writes the token response as indented JSON, replacing any previous
// file.
func (s *TokenStore) Save(raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("error formatting token response: %w", err)
	}

	if err := afero.WriteFile(s.fs, s.path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("error writing token file %s: %w", s.path, err)
	}
	return nil
}

// Load reads the token file and returns the bearer token it contains.
func (s *TokenStore) Load() (*oauth2.Token, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("token file %s not found, run the auth command first: %w", s.path, err)
		}
		return nil, fmt.Errorf("error reading token file %s: %w", s.path, err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("error parsing token file %s: %w", s.path, err)
	}
	if tok.AccessToken == "" {
		return nil, ErrMissingAccessToken
	}
	if tok.TokenType == "" {
		tok.TokenType = "bearer"
	}

	return &tok, nil
}

// TokenSource returns an oauth2.TokenSource serving the stored token.
func (s *TokenStore) TokenSource() (oauth2.TokenSource, error) {
	tok, err := s.Load()
	if err != nil {
		return nil, err
	}
	return oauth2.StaticTokenSource(tok), nil
}
