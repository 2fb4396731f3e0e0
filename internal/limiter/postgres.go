package limiter

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the slice of a pgx pool the Postgres limiter uses.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PG keeps counters in the login_attempts table so several fake backend
// replicas share lockouts.
type PG struct {
	q      Querier
	policy Policy
	now    func() time.Time
}

var _ Limiter = (*PG)(nil)

// NewPG constructs a Postgres-backed limiter.
func NewPG(q Querier, p Policy) *PG {
	return &PG{q: q, policy: p, now: time.Now}
}

// Allow implements Limiter.
func (l *PG) Allow(ctx context.Context, login string, client []byte) (bool, time.Duration, error) {
	const q = `SELECT locked_until FROM login_attempts WHERE login=$1 AND client_hash=$2`
	var lockedUntil time.Time
	err := l.q.QueryRow(ctx, q, NormalizeLogin(login), client).Scan(&lockedUntil)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return true, 0, nil
	case err != nil:
		return false, 0, err
	}
	if now := l.now(); lockedUntil.After(now) {
		return false, lockedUntil.Sub(now), nil
	}
	return true, 0, nil
}

// Success implements Limiter.
func (l *PG) Success(ctx context.Context, login string, client []byte) error {
	const q = `DELETE FROM login_attempts WHERE login=$1 AND client_hash=$2`
	_, err := l.q.Exec(ctx, q, NormalizeLogin(login), client)
	return err
}

// Failure implements Limiter. The counter restarts when the previous failure
// is older than the policy window.
func (l *PG) Failure(ctx context.Context, login string, client []byte) (bool, time.Duration, error) {
	const q = `
INSERT INTO login_attempts (login, client_hash, failures, locked_until, updated_at)
VALUES ($1, $2, 1, 'epoch', now())
ON CONFLICT (login, client_hash) DO UPDATE
SET
  failures = CASE WHEN now() - login_attempts.updated_at > $3::interval THEN 1 ELSE login_attempts.failures + 1 END,
  updated_at = now()
RETURNING failures`
	login = NormalizeLogin(login)
	var failures int
	if err := l.q.QueryRow(ctx, q, login, client, l.policy.Window).Scan(&failures); err != nil {
		return false, 0, err
	}
	if failures < l.policy.MaxFails {
		return false, 0, nil
	}
	const lock = `UPDATE login_attempts SET locked_until=$3 WHERE login=$1 AND client_hash=$2`
	if _, err := l.q.Exec(ctx, lock, login, client, l.now().Add(l.policy.LockFor)); err != nil {
		return false, 0, err
	}
	return true, l.policy.LockFor, nil
}
