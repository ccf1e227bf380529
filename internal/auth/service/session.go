package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ============================================================
// Session Manager
// ============================================================

type session struct {
	userID  string
	expires time.Time
}

type SessionManager struct {
	mu     sync.Mutex
	tokens map[string]session // token -> session
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionManager returns a manager whose tokens expire after ttl.
// A zero ttl never expires tokens.
func NewSessionManager(ttl time.Duration) *SessionManager {
	return &SessionManager{
		tokens: make(map[string]session),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (m *SessionManager) Issue(userID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	token := uuid.NewString()
	s := session{userID: userID}
	if m.ttl > 0 {
		s.expires = m.now().Add(m.ttl)
	}
	m.tokens[token] = s
	return token
}

func (m *SessionManager) Resolve(token string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.tokens[token]
	if !ok {
		return "", false
	}
	if !s.expires.IsZero() && m.now().After(s.expires) {
		delete(m.tokens, token)
		return "", false
	}
	return s.userID, true
}

// Revoke forgets token. It reports whether the token was known.
func (m *SessionManager) Revoke(token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.tokens[token]
	delete(m.tokens, token)
	return ok
}
