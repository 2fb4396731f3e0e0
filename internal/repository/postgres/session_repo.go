package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/folio-admin/internal/model"
	"github.com/and161185/folio-admin/internal/repository"
)

// SessionRepo stores one session row per profile in admin_sessions.
type SessionRepo struct {
	db      *DB
	profile string
}

var _ repository.SessionStore = (*SessionRepo)(nil)

// NewSessionRepo returns a store bound to profile.
func NewSessionRepo(db *DB, profile string) *SessionRepo {
	return &SessionRepo{db: db, profile: profile}
}

// Load returns nil, nil when the profile has no row or the row has expired.
func (r *SessionRepo) Load(ctx context.Context) (*model.StoredSession, error) {
	const q = `
SELECT token, user_id, username, email, expires_at
FROM admin_sessions WHERE profile=$1`
	var ss model.StoredSession
	var expires *time.Time
	err := r.db.Pool.QueryRow(ctx, q, r.profile).
		Scan(&ss.Token, &ss.User.ID, &ss.User.Username, &ss.User.Email, &expires)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if expires != nil {
		if !expires.After(time.Now()) {
			return nil, nil
		}
		ss.ExpiresAt = expires.UTC()
	}
	return &ss, nil
}

// Save upserts the profile's row.
func (r *SessionRepo) Save(ctx context.Context, ss model.StoredSession) error {
	const q = `
INSERT INTO admin_sessions (profile, token, user_id, username, email, expires_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, now())
ON CONFLICT (profile) DO UPDATE
SET token=EXCLUDED.token, user_id=EXCLUDED.user_id, username=EXCLUDED.username,
    email=EXCLUDED.email, expires_at=EXCLUDED.expires_at, updated_at=now()`
	var expires *time.Time
	if !ss.ExpiresAt.IsZero() {
		e := ss.ExpiresAt.UTC()
		expires = &e
	}
	_, err := r.db.Pool.Exec(ctx, q, r.profile, ss.Token, ss.User.ID, ss.User.Username, ss.User.Email, expires)
	return err
}

// Clear deletes the profile's row.
func (r *SessionRepo) Clear(ctx context.Context) error {
	const q = `DELETE FROM admin_sessions WHERE profile=$1`
	_, err := r.db.Pool.Exec(ctx, q, r.profile)
	return err
}

// PurgeExpired removes every expired row across profiles and reports how many went.
func (r *SessionRepo) PurgeExpired(ctx context.Context) (int64, error) {
	const q = `DELETE FROM admin_sessions WHERE expires_at IS NOT NULL AND expires_at <= now()`
	tag, err := r.db.Pool.Exec(ctx, q)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
