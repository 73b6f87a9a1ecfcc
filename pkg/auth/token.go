package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "riskctl"
	keyringUser    = "scorer_token"
	tokenFileName  = "scorer_token"
	tokenFileMode  = 0600
)

// ErrNoToken is returned when no token is stored anywhere.
var ErrNoToken = errors.New("no scorer token stored")

// Keyring is the subset of the OS keychain used to store tokens.
type Keyring interface {
	Set(service, user, secret string) error
	Get(service, user string) (string, error)
	Delete(service, user string) error
}

type osKeyring struct{}

func (osKeyring) Set(service, user, secret string) error { return keyring.Set(service, user, secret) }
func (osKeyring) Get(service, user string) (string, error) { return keyring.Get(service, user) }
func (osKeyring) Delete(service, user string) error { return keyring.Delete(service, user) }

// TokenStore keeps the remote scorer token in the OS keychain, falling back
// to a 0600 file in dir when the keychain is unavailable.
type TokenStore struct {
	dir  string
	ring Keyring
}

// NewTokenStore returns a store backed by the OS keychain.
func NewTokenStore(dir string) *TokenStore {
	return &TokenStore{dir: dir, ring: osKeyring{}}
}

// NewTokenStoreWithKeyring returns a store backed by ring.
func NewTokenStoreWithKeyring(dir string, ring Keyring) *TokenStore {
	return &TokenStore{dir: dir, ring: ring}
}

func (s *TokenStore) filePath() string {
	return filepath.Join(s.dir, tokenFileName)
}

// Save stores token.
func (s *TokenStore) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is empty")
	}

	if err := s.ring.Set(keyringService, keyringUser, token); err != nil {
		slog.Warn("keychain unavailable, falling back to file", "error", err)
		return os.WriteFile(s.filePath(), []byte(token), tokenFileMode)
	}

	// Clean up legacy file if it exists
	os.Remove(s.filePath())
	return nil
}

// Get returns the stored token, migrating a file token into the keychain
// when possible.
func (s *TokenStore) Get() (string, error) {
	token, err := s.ring.Get(keyringService, keyringUser)
	if err == nil && token != "" {
		return token, nil
	}

	b, err := os.ReadFile(s.filePath())
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("reading token file %s: %w", s.filePath(), err)
	}
	token = strings.TrimSpace(string(b))
	if token == "" {
		return "", ErrNoToken
	}

	if migrateErr := s.ring.Set(keyringService, keyringUser, token); migrateErr == nil {
		slog.Info("migrated token from file to OS keychain")
		os.Remove(s.filePath())
	}

	return token, nil
}

// Delete removes the token from both the keychain and the file.
func (s *TokenStore) Delete() error {
	kerr := s.ring.Delete(keyringService, keyringUser)
	ferr := os.Remove(s.filePath())
	if ferr != nil && errors.Is(ferr, os.ErrNotExist) {
		ferr = nil
	}
	if kerr != nil && errors.Is(kerr, keyring.ErrNotFound) {
		kerr = nil
	}
	return errors.Join(kerr, ferr)
}
