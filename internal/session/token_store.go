package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const tokenFilename = "credential"

// TokenStore persists the bearer credential as a single file under a base
// directory. A missing, empty or unreadable file is treated as "no
// credential", never as an error.
type TokenStore struct {
	basePath string
}

// NewTokenStore creates the base directory if missing.
func NewTokenStore(basePath string) (*TokenStore, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("token store base path is required")
	}
	if err := os.MkdirAll(basePath, 0o700); err != nil {
		return nil, fmt.Errorf("create token store dir: %w", err)
	}
	return &TokenStore{basePath: basePath}, nil
}

// Load reads the persisted credential. The second return reports presence.
func (s *TokenStore) Load() (string, bool) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		return "", false
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", false
	}
	return token, true
}

// Save writes the credential, replacing any previous one.
func (s *TokenStore) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("refusing to save empty credential")
	}
	if err := os.WriteFile(s.path(), []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write credential: %w", err)
	}
	return nil
}

// Clear deletes the persisted credential. Clearing an absent credential
// is not an error.
func (s *TokenStore) Clear() error {
	err := os.Remove(s.path())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

func (s *TokenStore) path() string {
	return filepath.Join(s.basePath, tokenFilename)
}
