package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// SessionFile stores the session token in a JSON file readable only by
// the owner. It implements client.Session.
type SessionFile struct {
	path string

	mu     sync.Mutex
	token  string
	loaded bool
}

type sessionData struct {
	Token string `json:"token"`
}

// NewSessionFile returns a session backed by path. The file is read
// lazily on first use.
func NewSessionFile(path string) *SessionFile {
	return &SessionFile{path: path}
}

// DefaultSessionPath returns ~/.worklog/session.json.
func DefaultSessionPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

// Token returns the stored token, or "" if there is none or the file is
// unreadable.
func (s *SessionFile) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		s.token, _ = s.read()
		s.loaded = true
	}
	return s.token
}

func (s *SessionFile) read() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading session file: %w", err)
	}
	var sd sessionData
	if err := json.Unmarshal(data, &sd); err != nil {
		return "", fmt.Errorf("corrupt session file (delete %s to sign in again): %w", s.path, err)
	}
	return sd.Token, nil
}

// SetToken persists token with 0600 permissions.
func (s *SessionFile) SetToken(token string) error {
	data, err := json.MarshalIndent(sessionData{Token: token}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeFileAtomic(s.path, data, 0o600); err != nil {
		return err
	}
	s.token = token
	s.loaded = true
	return nil
}

// Clear removes the session file.
func (s *SessionFile) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}
	s.token = ""
	s.loaded = true
	return nil
}
