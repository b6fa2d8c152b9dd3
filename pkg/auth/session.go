package auth

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Session mirrors a provider's auth state for the UI: the current user,
// whether the first notification has arrived yet, and the last error.
type Session struct {
	provider Provider
	log      *zap.Logger

	mu      sync.RWMutex
	user    *User
	loading bool
	err     error

	unsubscribe func()
}

// State is a point-in-time view of a Session.
type State struct {
	User            *User  `json:"user"`
	Loading         bool   `json:"loading"`
	Error           string `json:"error"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}

// NewSession subscribes to p. Loading stays true until p reports a state.
func NewSession(p Provider, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Session{provider: p, log: log, loading: true}
	s.unsubscribe = p.OnAuthStateChanged(s.onChange)
	return s
}

func (s *Session) onChange(u *User) {
	s.mu.Lock()
	s.user = u.Clone()
	s.loading = false
	s.mu.Unlock()
}

// User returns the signed-in user, or nil.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

// Loading reports whether the provider has not reported a state yet.
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the last logout error.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// IsAuthenticated reports whether a user is signed in.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// State returns a snapshot of every field.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := State{
		User:            s.user.Clone(),
		Loading:         s.loading,
		IsAuthenticated: s.user != nil,
	}
	if s.err != nil {
		st.Error = s.err.Error()
	}
	return st
}

// Logout signs out and reports whether it succeeded. On failure the error
// is kept for Err and the user stays signed in.
func (s *Session) Logout(ctx context.Context) bool {
	if err := s.provider.SignOut(ctx); err != nil {
		s.log.Warn("logout failed", zap.Error(err))
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		return false
	}

	s.mu.Lock()
	s.user = nil
	s.err = nil
	s.mu.Unlock()
	return true
}

// Close stops following the provider.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}
