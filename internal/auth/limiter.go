package auth

import (
	"sync"
	"time"
)

// attemptLimiter tracks consecutive login failures per user ID in a sliding
// window. State is process-local and lost on restart; the portal runs as a
// single instance.
type attemptLimiter struct {
	mu          sync.Mutex
	maxAttempts int
	window      time.Duration
	failures    map[string][]time.Time
}

func newAttemptLimiter(maxAttempts int, window time.Duration) *attemptLimiter {
	return &attemptLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		failures:    make(map[string][]time.Time),
	}
}

// limited reports whether the ID is locked out and for how much longer.
// An expired window clears the recorded failures.
func (l *attemptLimiter) limited(id string, now time.Time) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	attempts := l.failures[id]
	if len(attempts) < l.maxAttempts {
		return 0, false
	}
	elapsed := now.Sub(attempts[0])
	if elapsed >= l.window {
		delete(l.failures, id)
		return 0, false
	}
	return l.window - elapsed, true
}

func (l *attemptLimiter) recordFailure(id string, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[id] = append(l.failures[id], now)
}

func (l *attemptLimiter) reset(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, id)
}
