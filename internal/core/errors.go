package core

import (
	"errors"
	"fmt"
	"time"
)

// Component boundaries convert every store or logic failure into this taxonomy.
// Callers branch with errors.Is / errors.As; nothing below this layer panics.
var (
	// ErrInvalidFormat: malformed input, caller fixes and retries.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrInvalidCredentials covers unknown user, wrong PIN, and inactive
	// accounts alike, so the login surface cannot be used for enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrStoreUnavailable: transient store/network failure, retry with backoff.
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrEmptyDraft     = errors.New("draft has no items")
	ErrDraftSubmitted = errors.New("draft already submitted")
	ErrNotFound       = errors.New("ledger entry not found")
	ErrAlreadyDecided = errors.New("ledger entry already decided")

	// ErrPartialSubmission: ledger rows were appended but the submission did
	// not complete cleanly; requires reconciliation, never silent.
	ErrPartialSubmission = errors.New("partial submission")

	// ErrCorruptDraft marks an undecodable draft blob. Load replaces the
	// draft rather than propagating this, but logs it loudly.
	ErrCorruptDraft = errors.New("corrupt draft")
)

// RateLimitedError is returned by the credential validator once an ID has
// accumulated too many consecutive failures inside the lockout window.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %ds", int(e.RetryAfter.Seconds()))
}

// IsRetryable reports whether the error is worth retrying with backoff.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
