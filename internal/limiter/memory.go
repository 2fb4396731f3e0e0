package limiter

import (
	"context"
	"sync"
	"time"
)

type counter struct {
	failures    int
	lockedUntil time.Time
	updatedAt   time.Time
}

// Memory is an in-process Limiter for the fake backend and tests.
type Memory struct {
	mu     sync.Mutex
	policy Policy
	now    func() time.Time
	byKey  map[string]*counter
}

var _ Limiter = (*Memory)(nil)

// NewMemory returns an empty in-memory limiter.
func NewMemory(p Policy) *Memory {
	return &Memory{policy: p, now: time.Now, byKey: map[string]*counter{}}
}

func key(login string, client []byte) string {
	return NormalizeLogin(login) + "\x00" + string(client)
}

// Allow implements Limiter.
func (m *Memory) Allow(_ context.Context, login string, client []byte) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byKey[key(login, client)]
	if !ok {
		return true, 0, nil
	}
	if now := m.now(); c.lockedUntil.After(now) {
		return false, c.lockedUntil.Sub(now), nil
	}
	return true, 0, nil
}

// Success implements Limiter.
func (m *Memory) Success(_ context.Context, login string, client []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byKey, key(login, client))
	return nil
}

// Failure implements Limiter.
func (m *Memory) Failure(_ context.Context, login string, client []byte) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	k := key(login, client)
	c, ok := m.byKey[k]
	if !ok || now.Sub(c.updatedAt) > m.policy.Window {
		c = &counter{}
		m.byKey[k] = c
	}
	c.failures++
	c.updatedAt = now
	if c.failures >= m.policy.MaxFails {
		c.lockedUntil = now.Add(m.policy.LockFor)
		return true, m.policy.LockFor, nil
	}
	return false, 0, nil
}
