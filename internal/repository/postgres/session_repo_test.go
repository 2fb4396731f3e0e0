package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/and161185/folio-admin/internal/model"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

var sessionCols = []string{"token", "user_id", "username", "email", "expires_at"}

const selectSession = `SELECT token, user_id, username, email, expires_at FROM admin_sessions WHERE profile=\$1`

func TestSessionRepo_Load(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSessionRepo(db, "default")
	ctx := context.Background()
	exp := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

	mock.ExpectQuery(selectSession).
		WithArgs("default").
		WillReturnRows(pgxmock.NewRows(sessionCols).AddRow("tok", int64(1), "admin", "a@b.c", &exp))
	ss, err := r.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "tok", ss.Token)
	require.Equal(t, model.User{ID: 1, Username: "admin", Email: "a@b.c"}, ss.User)
	require.True(t, exp.Equal(ss.ExpiresAt))

	mock.ExpectQuery(selectSession).
		WithArgs("default").
		WillReturnRows(pgxmock.NewRows(sessionCols).AddRow("tok", int64(1), "admin", "", (*time.Time)(nil)))
	ss, err = r.Load(ctx)
	require.NoError(t, err)
	require.True(t, ss.ExpiresAt.IsZero())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_Load_MissingOrExpired(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSessionRepo(db, "default")
	ctx := context.Background()

	mock.ExpectQuery(selectSession).WithArgs("default").WillReturnError(pgx.ErrNoRows)
	ss, err := r.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, ss)

	past := time.Now().Add(-time.Minute)
	mock.ExpectQuery(selectSession).
		WithArgs("default").
		WillReturnRows(pgxmock.NewRows(sessionCols).AddRow("tok", int64(1), "admin", "", &past))
	ss, err = r.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, ss)

	mock.ExpectQuery(selectSession).WithArgs("default").WillReturnError(errors.New("db down"))
	_, err = r.Load(ctx)
	require.Error(t, err)
}

func TestSessionRepo_SaveAndClear(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSessionRepo(db, "prod")
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO admin_sessions \(profile, token, user_id, username, email, expires_at, updated_at\)`).
		WithArgs("prod", "tok", int64(3), "admin", "a@b.c", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Save(ctx, model.StoredSession{
		Token: "tok", User: model.User{ID: 3, Username: "admin", Email: "a@b.c"}, ExpiresAt: time.Now().Add(time.Hour),
	}))

	mock.ExpectExec(`DELETE FROM admin_sessions WHERE profile=\$1`).
		WithArgs("prod").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, r.Clear(ctx))

	mock.ExpectExec(`DELETE FROM admin_sessions WHERE profile=\$1`).
		WithArgs("prod").
		WillReturnError(errors.New("boom"))
	require.Error(t, r.Clear(ctx))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_PurgeExpired(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSessionRepo(db, "default")

	mock.ExpectExec(`DELETE FROM admin_sessions WHERE expires_at IS NOT NULL AND expires_at <= now\(\)`).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))
	n, err := r.PurgeExpired(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(4), n)
}
