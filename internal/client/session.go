package client

import "sync"

// Session holds the bearer token of the signed-in user.
type Session interface {
	Token() string
	SetToken(token string) error
	Clear() error
}

// MemorySession keeps the token in memory only.
type MemorySession struct {
	mu    sync.RWMutex
	token string
}

// Token implements Session.
func (s *MemorySession) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken implements Session.
func (s *MemorySession) SetToken(token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// Clear implements Session.
func (s *MemorySession) Clear() error {
	return s.SetToken("")
}
