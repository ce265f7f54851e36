package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"storefront/internal/models"
	"storefront/internal/signal"
)

// Session is the signed-in identity shared by every view. It is passed
// explicitly to whoever needs it and announces changes on the bus.
type Session struct {
	mu    sync.RWMutex
	token string
	user  *models.User

	path string
	bus  *signal.Bus
}

type sessionFile struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// NewSession creates an empty session. A non-empty path makes it persistent.
func NewSession(path string, bus *signal.Bus) *Session {
	return &Session{path: path, bus: bus}
}

// LoadSession restores a session saved at path. A missing file yields an
// empty session.
func LoadSession(path string, bus *signal.Bus) (*Session, error) {
	s := NewSession(path, bus)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var f sessionFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", path, err)
	}
	s.token = f.Token
	s.user = f.User
	return s, nil
}

// Token returns the bearer token, or "" when signed out
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the signed-in user, or nil
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) LoggedIn() bool {
	return s.Token() != ""
}

func (s *Session) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.user.IsAdmin
}

// Set records a successful sign-in
func (s *Session) Set(token string, user *models.User) error {
	s.mu.Lock()
	s.token = token
	if user != nil {
		u := *user
		s.user = &u
	} else {
		s.user = nil
	}
	err := s.save()
	s.mu.Unlock()

	s.publish()
	return err
}

// Clear signs out
func (s *Session) Clear() error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	err := s.save()
	s.mu.Unlock()

	s.publish()
	return err
}

func (s *Session) publish() {
	if s.bus != nil {
		s.bus.Publish(signal.Session)
	}
}

// save writes the session file; callers hold mu
func (s *Session) save() error {
	if s.path == "" {
		return nil
	}
	if s.token == "" {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove session: %w", err)
		}
		return nil
	}

	data, err := json.MarshalIndent(sessionFile{Token: s.token, User: s.user}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}
