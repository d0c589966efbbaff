// Package auth maps (id, PIN) credentials to user records and owns the
// in-memory failed-attempt limiter and session lifetime rules.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"expenseportal/internal/core"
	ports "expenseportal/internal/sheets"
)

const (
	maxFailedAttempts = 3
	lockoutWindow     = 5 * time.Minute
)

type Validator struct {
	store        ports.RowStore
	usersSheetID string
	limiter      *attemptLimiter
	now          func() time.Time
}

func NewValidator(store ports.RowStore, usersSheetID string) *Validator {
	return &Validator{
		store:        store,
		usersSheetID: usersSheetID,
		limiter:      newAttemptLimiter(maxFailedAttempts, lockoutWindow),
		now:          time.Now,
	}
}

// Authenticate validates credentials and returns a fresh session.
//
// Format violations fail before any store access, as does a rate-limited ID.
// Unknown user, wrong PIN, and inactive account are indistinguishable to the
// caller: all return core.ErrInvalidCredentials.
func (v *Validator) Authenticate(ctx context.Context, id, pin string) (*Session, error) {
	id = strings.TrimSpace(id)
	pin = strings.TrimSpace(pin)
	if id == "" {
		return nil, fmt.Errorf("%w: id must not be empty", core.ErrInvalidFormat)
	}
	if !validPIN(pin) {
		return nil, fmt.Errorf("%w: pin must be exactly 4 digits", core.ErrInvalidFormat)
	}

	now := v.now()
	if retryAfter, limited := v.limiter.limited(id, now); limited {
		slog.WarnContext(ctx, "Login rate limited", "user_id", id, "retry_after", retryAfter)
		return nil, &core.RateLimitedError{RetryAfter: retryAfter}
	}

	user, found, err := v.lookupUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found || user.PIN != pin || !user.Active {
		v.limiter.recordFailure(id, now)
		slog.InfoContext(ctx, "Login rejected", "user_id", id)
		return nil, core.ErrInvalidCredentials
	}

	v.limiter.reset(id)
	slog.InfoContext(ctx, "Login succeeded", "user_id", id, "role", user.Role)
	return &Session{User: user, StartedAt: now, LastSeen: now}, nil
}

func (v *Validator) lookupUser(ctx context.Context, id string) (core.User, bool, error) {
	rows, err := v.store.GetRange(ctx, v.usersSheetID, ports.UsersRange)
	if err != nil {
		return core.User{}, false, fmt.Errorf("load users: %w", err)
	}
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		user, err := parseUserRow(row)
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed user row", "row", i+1, "error", err)
			continue
		}
		if user.ID == id {
			return user, true, nil
		}
	}
	return core.User{}, false, nil
}

// parseUserRow maps a users-sheet row (teacher_id, name, pin, role, active).
// Rows shorter than the header are padded with empty cells.
func parseUserRow(row []string) (core.User, error) {
	cells := padRow(row, len(ports.UsersHeader))
	user := core.User{
		ID:          strings.TrimSpace(cells[0]),
		DisplayName: strings.TrimSpace(cells[1]),
		PIN:         strings.TrimSpace(cells[2]),
		Role:        core.Role(strings.TrimSpace(cells[3])),
		Active:      strings.EqualFold(strings.TrimSpace(cells[4]), "TRUE"),
	}
	if user.ID == "" {
		return core.User{}, fmt.Errorf("empty user id")
	}
	if !user.Role.IsValid() {
		return core.User{}, fmt.Errorf("unknown role %q", cells[3])
	}
	return user, nil
}

func validPIN(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for _, r := range pin {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	out := make([]string, width)
	copy(out, row)
	return out
}
