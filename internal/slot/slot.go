// Package slot guards one logical request slot (a list page, a detail view)
// so that only the most recently started request may publish its result.
package slot

import (
	"context"
	"sync"
)

// Ticket identifies one started request.
type Ticket uint64

// Slot is a latest-wins guard. The zero value is ready to use.
type Slot struct {
	mu     sync.Mutex
	seq    Ticket
	cancel context.CancelFunc
}

// Start cancels the request currently in flight, if any, and returns a
// context for the new one together with its ticket.
func (s *Slot) Start(parent context.Context) (context.Context, Ticket) {
	ctx, cancel := context.WithCancel(parent)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	s.cancel = cancel
	return ctx, s.seq
}

// Latest reports whether t is the most recent ticket.
func (s *Slot) Latest(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t == s.seq
}

// Commit runs apply only while t is still the latest ticket and reports
// whether it ran. apply runs under the slot lock, so a concurrent Start
// waits for it.
func (s *Slot) Commit(t Ticket, apply func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t != s.seq {
		return false
	}
	apply()
	return true
}

// Stop cancels the in-flight request and invalidates every ticket issued so far.
func (s *Slot) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.seq++
}
