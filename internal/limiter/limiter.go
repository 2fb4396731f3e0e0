// Package limiter throttles repeated failed logins per (login, client) pair.
package limiter

import (
	"context"
	"crypto/sha256"
	"strings"
	"time"
)

// Limiter tracks failed logins and temporary lockouts.
type Limiter interface {
	// Allow reports whether a login attempt may proceed and, if not, how long
	// the caller should wait.
	Allow(ctx context.Context, login string, client []byte) (bool, time.Duration, error)
	// Success forgets earlier failures.
	Success(ctx context.Context, login string, client []byte) error
	// Failure records a failed attempt and reports whether it triggered a lockout.
	Failure(ctx context.Context, login string, client []byte) (bool, time.Duration, error)
}

// Policy is the lockout configuration shared by implementations.
type Policy struct {
	Window   time.Duration
	MaxFails int
	LockFor  time.Duration
}

// DefaultPolicy locks a pair for 15 minutes after 5 failures within 15 minutes.
var DefaultPolicy = Policy{Window: 15 * time.Minute, MaxFails: 5, LockFor: 15 * time.Minute}

// HashClient returns a stable digest of a client address so raw IPs are never stored.
func HashClient(addr string) []byte {
	h := sha256.Sum256([]byte(addr))
	return h[:]
}

// NormalizeLogin folds a username or email so "Admin" and "admin " share a counter.
func NormalizeLogin(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}
