package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"expenseportal/internal/core"
	ports "expenseportal/internal/sheets"
	"expenseportal/internal/sheets/memory"
)

const usersSheet = "Users"

func newTestValidator(t *testing.T) (*Validator, *memory.Store) {
	t.Helper()
	store := memory.New()
	store.EnsureSheet(usersSheet, ports.UsersHeader)
	_, err := store.AppendRows(context.Background(), usersSheet, ports.UsersRange, [][]string{
		{"T001", "Dana Rossi", "1234", "member", "TRUE"},
		{"T002", "Avery Chen", "9876", "admin", "TRUE"},
		{"T003", "Sam Blake", "4444", "member", "FALSE"},
	})
	if err != nil {
		t.Fatalf("seed users: %v", err)
	}
	return NewValidator(store, usersSheet), store
}

func TestAuthenticateSuccess(t *testing.T) {
	v, _ := newTestValidator(t)

	session, err := v.Authenticate(context.Background(), "T001", "1234")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if session.User.ID != "T001" || session.User.Role != core.RoleMember {
		t.Errorf("unexpected session user: %+v", session.User)
	}
	if session.User.DisplayName != "Dana Rossi" {
		t.Errorf("display name = %q", session.User.DisplayName)
	}
}

func TestAuthenticateTrimsInput(t *testing.T) {
	v, _ := newTestValidator(t)
	if _, err := v.Authenticate(context.Background(), "  T001  ", " 1234 "); err != nil {
		t.Errorf("trimmed credentials should authenticate: %v", err)
	}
}

func TestAuthenticateFormatErrors(t *testing.T) {
	v, _ := newTestValidator(t)

	tests := []struct {
		name, id, pin string
	}{
		{"empty id", "", "1234"},
		{"short pin", "T001", "123"},
		{"long pin", "T001", "12345"},
		{"alpha pin", "T001", "12a4"},
		{"empty pin", "T001", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Authenticate(context.Background(), tt.id, tt.pin); !errors.Is(err, core.ErrInvalidFormat) {
				t.Errorf("Authenticate(%q, %q) = %v, want ErrInvalidFormat", tt.id, tt.pin, err)
			}
		})
	}
}

func TestAuthenticateIndistinguishableFailures(t *testing.T) {
	v, _ := newTestValidator(t)
	ctx := context.Background()

	// Unknown user, wrong PIN, and inactive account must look identical.
	cases := []struct {
		name, id, pin string
	}{
		{"unknown user", "T999", "1234"},
		{"wrong pin", "T001", "0000"},
		{"inactive account", "T003", "4444"},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Authenticate(ctx, tt.id, tt.pin)
			if !errors.Is(err, core.ErrInvalidCredentials) {
				t.Errorf("Authenticate(%q) = %v, want ErrInvalidCredentials", tt.id, err)
			}
		})
	}
}

func TestAuthenticateRateLimit(t *testing.T) {
	v, _ := newTestValidator(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	now := base
	v.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if _, err := v.Authenticate(ctx, "T001", "0000"); !errors.Is(err, core.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}

	// Fourth attempt is blocked even with the correct PIN.
	_, err := v.Authenticate(ctx, "T001", "1234")
	var rateErr *core.RateLimitedError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected RateLimitedError, got %v", err)
	}
	if rateErr.RetryAfter <= 0 || rateErr.RetryAfter > 5*time.Minute {
		t.Errorf("RetryAfter = %v, want within (0, 5m]", rateErr.RetryAfter)
	}

	// Other IDs are unaffected.
	if _, err := v.Authenticate(ctx, "T002", "9876"); err != nil {
		t.Errorf("unrelated user should log in: %v", err)
	}

	// After the window the lockout clears.
	now = base.Add(5 * time.Minute)
	if _, err := v.Authenticate(ctx, "T001", "1234"); err != nil {
		t.Errorf("login after window should succeed: %v", err)
	}
}

func TestAuthenticateSuccessResetsFailures(t *testing.T) {
	v, _ := newTestValidator(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _ = v.Authenticate(ctx, "T001", "0000")
	}
	if _, err := v.Authenticate(ctx, "T001", "1234"); err != nil {
		t.Fatalf("login: %v", err)
	}

	// The counter restarted: two more failures do not lock out.
	for i := 0; i < 2; i++ {
		_, _ = v.Authenticate(ctx, "T001", "0000")
	}
	if _, err := v.Authenticate(ctx, "T001", "1234"); err != nil {
		t.Errorf("expected fresh window after success, got %v", err)
	}
}

func TestAuthenticateStoreUnavailable(t *testing.T) {
	v, store := newTestValidator(t)
	store.FailGets(core.ErrStoreUnavailable)

	_, err := v.Authenticate(context.Background(), "T001", "1234")
	if !errors.Is(err, core.ErrStoreUnavailable) {
		t.Errorf("Authenticate = %v, want ErrStoreUnavailable", err)
	}
}

func TestAuthenticateSkipsMalformedRows(t *testing.T) {
	v, store := newTestValidator(t)
	// A row with an unknown role must not break lookups for later rows.
	_, err := store.AppendRows(context.Background(), usersSheet, ports.UsersRange, [][]string{
		{"T010", "Broken Row", "1111", "superuser", "TRUE"},
		{"T011", "Good Row", "2222", "member", "TRUE"},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := v.Authenticate(context.Background(), "T011", "2222"); err != nil {
		t.Errorf("user after malformed row should authenticate: %v", err)
	}
}

func TestSessionExpiry(t *testing.T) {
	base := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	s := &Session{LastSeen: base}

	if s.Expired(base.Add(29 * time.Minute)) {
		t.Error("session should be alive before the idle timeout")
	}
	if !s.Expired(base.Add(31 * time.Minute)) {
		t.Error("session should expire after the idle timeout")
	}

	s.Touch(base.Add(29 * time.Minute))
	if s.Expired(base.Add(58 * time.Minute)) {
		t.Error("touch should extend the session")
	}
}

func TestRequireAdmin(t *testing.T) {
	admin := &Session{User: core.User{ID: "A1", Role: core.RoleAdmin}}
	member := &Session{User: core.User{ID: "M1", Role: core.RoleMember}}

	if err := RequireAdmin(admin); err != nil {
		t.Errorf("admin rejected: %v", err)
	}
	if err := RequireAdmin(member); !errors.Is(err, ErrForbidden) {
		t.Errorf("member = %v, want ErrForbidden", err)
	}
	if err := RequireAdmin(nil); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("nil session = %v, want ErrNotAuthenticated", err)
	}
}

func TestRequireOwner(t *testing.T) {
	admin := &Session{User: core.User{ID: "A1", Role: core.RoleAdmin}}
	member := &Session{User: core.User{ID: "M1", Role: core.RoleMember}}

	if err := RequireOwner(member, "M1"); err != nil {
		t.Errorf("owner rejected: %v", err)
	}
	if err := RequireOwner(member, "M2"); !errors.Is(err, ErrForbidden) {
		t.Errorf("foreign owner = %v, want ErrForbidden", err)
	}
	if err := RequireOwner(admin, "M2"); err != nil {
		t.Errorf("admin should pass for any owner: %v", err)
	}
}
