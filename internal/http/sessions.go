package http

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"expenseportal/internal/auth"
)

// sessionManager holds logged-in sessions keyed by bearer token. Sessions
// expire on idle; expiry is checked on access, and a periodic sweep evicts
// the ones nobody asks about.
type sessionManager struct {
	mu       sync.Mutex
	sessions map[string]*auth.Session
	now      func() time.Time
}

func newSessionManager() *sessionManager {
	return &sessionManager{
		sessions: make(map[string]*auth.Session),
		now:      time.Now,
	}
}

func (m *sessionManager) create(s *auth.Session) string {
	token := uuid.NewString()
	m.mu.Lock()
	m.sessions[token] = s
	m.mu.Unlock()
	return token
}

// get returns the live session for token, touching its idle clock. Expired
// sessions are removed and reported as expired.
func (m *sessionManager) get(token string) (*auth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return nil, auth.ErrNotAuthenticated
	}
	now := m.now()
	if s.Expired(now) {
		delete(m.sessions, token)
		return nil, auth.ErrSessionExpired
	}
	s.Touch(now)
	return s, nil
}

func (m *sessionManager) delete(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// sweep drops idle-expired sessions and returns how many were removed.
func (m *sessionManager) sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for token, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, token)
			removed++
		}
	}
	return removed
}
