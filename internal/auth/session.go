package auth

import (
	"errors"
	"time"

	"expenseportal/internal/core"
)

// IdleTimeout invalidates a session after this much inactivity. Checked by
// the caller on every privileged action, not by the validator.
const IdleTimeout = 30 * time.Minute

var (
	ErrNotAuthenticated = errors.New("authentication required")
	ErrSessionExpired   = errors.New("session expired")
	ErrForbidden        = errors.New("admin access required")
)

// Session is the explicit per-login context passed to each entry point,
// replacing any framework-managed session bag.
type Session struct {
	User      core.User
	StartedAt time.Time
	LastSeen  time.Time
}

func (s *Session) Expired(now time.Time) bool {
	return now.Sub(s.LastSeen) > IdleTimeout
}

func (s *Session) Touch(now time.Time) {
	s.LastSeen = now
}

// RequireAdmin is the guard for approval entry points.
func RequireAdmin(s *Session) error {
	if s == nil {
		return ErrNotAuthenticated
	}
	if s.User.Role != core.RoleAdmin {
		return ErrForbidden
	}
	return nil
}

// RequireOwner gates owner-scoped operations; admins pass for any owner.
func RequireOwner(s *Session, ownerID string) error {
	if s == nil {
		return ErrNotAuthenticated
	}
	if s.User.ID != ownerID && s.User.Role != core.RoleAdmin {
		return ErrForbidden
	}
	return nil
}
