package filestore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/and161185/folio-admin/internal/crypto"
	"github.com/and161185/folio-admin/internal/model"
)

func sample() model.StoredSession {
	return model.StoredSession{
		Token:     "tok",
		User:      model.User{ID: 7, Username: "admin", Email: "a@b.c"},
		ExpiresAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestStore_PlainRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(t.TempDir(), "default", nil)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, s.Save(ctx, sample()))
	fi, err := os.Stat(s.Path())
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	got, err = s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, sample(), *got)

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestStore_Sealed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	s := New(dir, "default", crypto.NewSealer("secret", "default"))

	require.NoError(t, s.Save(ctx, sample()))
	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	require.NotContains(t, string(raw), "tok")

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "tok", got.Token)

	_, err = New(dir, "default", crypto.NewSealer("other", "default")).Load(ctx)
	require.Error(t, err)
}

func TestStore_ProfilesAreIsolated(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, New(dir, "prod", nil).Save(ctx, sample()))

	got, err := New(dir, "staging", nil).Load(ctx)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestStore_CorruptFile(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir(), "default", nil)
	require.NoError(t, s.Save(context.Background(), sample()))
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o600))

	_, err := s.Load(context.Background())
	require.Error(t, err)
}
