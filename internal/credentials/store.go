package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Credentials is the persisted login state: the bearer token plus the
// minimal user profile the service returns at login.
type Credentials struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// Provider supplies the current bearer token to components that attach
// auth headers. An empty token means no user is logged in.
type Provider interface {
	Token() string
}

// Store persists credentials in a single JSON file. It implements
// Provider so it can be handed directly to the API gateway.
type Store struct {
	path string

	mu     sync.RWMutex
	cached *Credentials
}

// NewStore creates a Store backed by the file at path. The file is read
// lazily; a missing file means logged out.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the stored credentials, or nil when none are stored.
func (s *Store) Load() (*Credentials, error) {
	s.mu.RLock()
	if s.cached != nil {
		creds := *s.cached
		s.mu.RUnlock()
		return &creds, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil {
		creds := *s.cached
		return &creds, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to decode credential file: %w", err)
	}
	s.cached = &creds
	out := creds
	return &out, nil
}

// Save persists the credentials, replacing any previous login.
func (s *Store) Save(creds *Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}
	// Token material: owner read/write only.
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	cached := *creds
	s.cached = &cached
	return nil
}

// Clear logs out by removing the credential file. Clearing when already
// logged out is not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached = nil
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove credential file: %w", err)
	}
	return nil
}

// Token implements Provider. Read failures surface as logged out rather
// than blocking unauthenticated flows.
func (s *Store) Token() string {
	creds, err := s.Load()
	if err != nil || creds == nil {
		return ""
	}
	return creds.Token
}

// UserName returns the stored display name, or "" when logged out.
func (s *Store) UserName() string {
	creds, err := s.Load()
	if err != nil || creds == nil {
		return ""
	}
	return creds.Name
}

// StaticProvider is a Provider returning a fixed token, for tests and
// one-shot invocations.
type StaticProvider string

// Token implements Provider.
func (p StaticProvider) Token() string { return string(p) }
