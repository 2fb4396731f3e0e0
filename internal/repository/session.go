// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/folio-admin/internal/model"
)

// SessionStore persists one profile's session between runs.
// Implementations are bound to a profile at construction.
type SessionStore interface {
	// Load returns the stored session, or nil and no error when none exists.
	Load(ctx context.Context) (*model.StoredSession, error)
	// Save replaces the stored session.
	Save(ctx context.Context, s model.StoredSession) error
	// Clear removes the stored session. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}
