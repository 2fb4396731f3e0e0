// Package filestore persists the session as a file under the user's config
// directory, optionally sealed with a local secret.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/and161185/folio-admin/internal/crypto"
	"github.com/and161185/folio-admin/internal/model"
	"github.com/and161185/folio-admin/internal/repository"
)

// Store keeps one profile's session in <dir>/sessions/<profile>.
type Store struct {
	path   string
	sealer *crypto.Sealer
}

var _ repository.SessionStore = (*Store)(nil)

// New returns a store for profile under dir. With a nil sealer the file is
// plain JSON readable only by the owner.
func New(dir, profile string, sealer *crypto.Sealer) *Store {
	name := profile + ".json"
	if sealer != nil {
		name = profile + ".sealed"
	}
	return &Store{path: filepath.Join(dir, "sessions", name), sealer: sealer}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Load reads the session file. A missing file is an empty store.
func (s *Store) Load(_ context.Context) (*model.StoredSession, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if s.sealer != nil {
		if b, err = s.sealer.Open(b); err != nil {
			return nil, err
		}
	}
	var ss model.StoredSession
	if err := json.Unmarshal(b, &ss); err != nil {
		return nil, err
	}
	return &ss, nil
}

// Save writes the session atomically with 0600 permissions.
func (s *Store) Save(_ context.Context, ss model.StoredSession) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(ss, "", "  ")
	if err != nil {
		return err
	}
	if s.sealer != nil {
		if b, err = s.sealer.Seal(b); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Clear deletes the session file.
func (s *Store) Clear(_ context.Context) error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
