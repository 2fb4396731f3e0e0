// Package memory is an in-process session store. Nothing survives the process.
package memory

import (
	"context"
	"sync"

	"github.com/and161185/folio-admin/internal/model"
	"github.com/and161185/folio-admin/internal/repository"
)

// Store keeps the session in memory.
type Store struct {
	mu  sync.Mutex
	cur *model.StoredSession
}

var _ repository.SessionStore = (*Store)(nil)

// New returns an empty store.
func New() *Store { return &Store{} }

// Load returns a copy of the stored session.
func (s *Store) Load(_ context.Context) (*model.StoredSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return nil, nil
	}
	c := *s.cur
	return &c, nil
}

// Save stores a copy of ss.
func (s *Store) Save(_ context.Context, ss model.StoredSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = &ss
	return nil
}

// Clear drops the stored session.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = nil
	return nil
}
