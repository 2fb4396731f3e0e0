package toast

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/folio-admin/internal/errs"
)

func TestFromError_NothingForNilOrAborted(t *testing.T) {
	t.Parallel()
	_, ok := FromError(MessagesLoad, nil, LangIT)
	require.False(t, ok)
	_, ok = FromError(MessagesLoad, errs.Wrap(errs.KindAborted, "messages.list", context.Canceled), LangIT)
	require.False(t, ok)
}

func TestFromError_Unauthorized(t *testing.T) {
	t.Parallel()
	err := errs.WithStatus(errs.KindUnauthorized, "messages.list", 401)

	got, ok := FromError(MessagesLoad, err, LangIT)
	require.True(t, ok)
	require.True(t, got.RedirectToLogin)
	require.Equal(t, "Sessione scaduta. Effettua di nuovo l'accesso.", got.Message)

	got, _ = FromError(MessageDelete, err, LangIT)
	require.Equal(t, "Sessione scaduta.", got.Message)
	require.True(t, got.RedirectToLogin)
}

func TestFromError_PerAction(t *testing.T) {
	t.Parallel()
	cases := []struct {
		a    Action
		kind errs.Kind
		want string
	}{
		{MessageDelete, errs.KindForbidden, "Permessi insufficienti."},
		{MessageDelete, errs.KindNotFound, "Messaggio non trovato o già eliminato."},
		{MessageDelete, errs.KindDeleteFailed, "Eliminazione non riuscita."},
		{AuditLoad, errs.KindRateLimit, "Troppe richieste. Riprova tra poco."},
		{AuditLoad, errs.KindInvalidJSON, "Impossibile caricare i log di audit."},
		{PostArchive, errs.KindNotFound, "Articolo non trovato."},
		{PostsLoad, errs.KindNotFound, "Impossibile caricare gli articoli."},
		{PostCreate, errs.KindConflict, "Conflitto (409). Se l'articolo è stato creato comunque, cercalo nell'elenco e aprilo in modifica per aggiungere le traduzioni."},
		{Action("unknown"), errs.KindFetchFailed, "Operazione non riuscita."},
	}
	for _, tc := range cases {
		got, ok := FromError(tc.a, errs.New(tc.kind, "op"), LangIT)
		require.True(t, ok)
		require.Equal(t, tc.want, got.Message, "%s/%s", tc.a, tc.kind)
		require.Equal(t, LevelError, got.Level)
		require.False(t, got.RedirectToLogin)
	}
}

func TestFromError_UnclassifiedNeverLeaksText(t *testing.T) {
	t.Parallel()
	got, ok := FromError(PostDelete, errors.New("pq: secret table detail"), LangEN)
	require.True(t, ok)
	require.Equal(t, "Could not delete the post.", got.Message)
}

func TestLanguages(t *testing.T) {
	t.Parallel()
	got, _ := FromError(MessageDelete, errs.New(errs.KindNotFound, "op"), "en-US")
	require.Equal(t, "Message not found or already deleted.", got.Message)
	got, _ = FromError(MessageDelete, errs.New(errs.KindNotFound, "op"), "fr")
	require.Equal(t, "Messaggio non trovato o già eliminato.", got.Message)
}

func TestSuccessAndCreated(t *testing.T) {
	t.Parallel()
	require.Equal(t, Toast{Level: LevelSuccess, Message: "Messaggio eliminato."}, Success(MessageDelete, LangIT))
	require.Equal(t, "Done.", Success(AuditLoad, LangEN).Message)
	require.Equal(t, LevelInfo, Created(true, LangIT).Level)
	require.Equal(t, "Post created.", Created(false, LangEN).Message)
}
