package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/folio-admin/internal/errs"
	"github.com/and161185/folio-admin/internal/model"
)

func payload() model.PostPayload {
	return model.PostPayload{
		Slug:   " hello-world ",
		Status: model.StatusDraft,
		Translations: []model.PayloadTranslation{
			{Locale: "en", Title: "Hello", Content: `<p onclick="x()">Hi<script>alert(1)</script></p>`},
		},
	}
}

func TestPostService_List(t *testing.T) {
	t.Parallel()
	api := newFakeAPI(
		jsonReply(200, `[{"id":"p1","slug":"a","createdAt":"2026-01-01","translations":{"EN ":{"title":"T","content":"C"}}}]`),
		jsonReply(200, `{"content":[]}`),
		jsonReply(http.StatusTooManyRequests, `{}`),
	)
	s := NewPostService(api)

	posts, err := s.List(context.Background(), "  ")
	require.NoError(t, err)
	require.Nil(t, api.last().Query)
	require.Equal(t, "T", posts[0].Translations["en"].Title)

	_, err = s.List(context.Background(), " go ")
	require.NoError(t, err)
	require.Equal(t, "go", api.last().Query.Get("title"))

	_, err = s.List(context.Background(), "")
	require.ErrorIs(t, err, errs.ErrFetchFailed)
}

func TestPostService_Get(t *testing.T) {
	t.Parallel()
	api := newFakeAPI(
		jsonReply(200, `{"id":"p1","slug":"a","createdAt":"2026-01-01","translations":[{"locale":"IT","title":"Ciao","content":"x"}]}`),
		jsonReply(http.StatusNotFound, `{}`),
	)
	s := NewPostService(api)

	d, err := s.Get(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, "it", d.Translations[0].Locale)

	_, err = s.Get(context.Background(), "missing")
	require.ErrorIs(t, err, errs.ErrNotFound)

	_, err = s.Get(context.Background(), "")
	require.ErrorIs(t, err, errs.ErrInvalidID)
	require.Equal(t, 2, api.calls())
}

func TestPostService_CreateSanitizesAndSoftConflict(t *testing.T) {
	t.Parallel()
	api := newFakeAPI(
		jsonReply(http.StatusCreated, `{"id":"new"}`),
		jsonReply(http.StatusConflict, `{"post":{"id":"dup"}}`),
		jsonReply(http.StatusConflict, `{"message":"slug taken"}`),
	)
	s := NewPostService(api)

	res, err := s.Create(context.Background(), payload())
	require.NoError(t, err)
	require.Equal(t, model.CreateResult{ID: "new"}, res)

	body := api.bodyJSON()
	require.NotContains(t, body, "id")
	require.NotContains(t, body, "createdAt")
	require.Equal(t, "hello-world", body["slug"])
	content := body["translations"].([]any)[0].(map[string]any)["content"].(string)
	require.NotContains(t, content, "script")
	require.NotContains(t, content, "onclick")
	require.Contains(t, content, "Hi")

	res, err = s.Create(context.Background(), payload())
	require.NoError(t, err)
	require.Equal(t, model.CreateResult{ID: "dup", Conflict: true}, res)

	_, err = s.Create(context.Background(), payload())
	require.ErrorIs(t, err, errs.ErrConflict)
}

func TestPostService_UpdateAndDelete(t *testing.T) {
	t.Parallel()
	api := newFakeAPI(
		canned{status: http.StatusOK},
		canned{status: http.StatusConflict},
		canned{status: http.StatusNoContent},
		canned{status: http.StatusInternalServerError},
	)
	s := NewPostService(api)

	require.NoError(t, s.Update(context.Background(), "p1", payload()))
	require.Equal(t, http.MethodPut, api.last().Method)
	require.Equal(t, "/posts/p1", api.last().Path)
	require.ErrorIs(t, s.Update(context.Background(), "p1", payload()), errs.ErrConflict)

	require.NoError(t, s.Delete(context.Background(), "p1"))
	require.ErrorIs(t, s.Delete(context.Background(), "p1"), errs.ErrFetchFailed)

	require.ErrorIs(t, s.Update(context.Background(), " ", payload()), errs.ErrInvalidID)
	require.ErrorIs(t, s.Delete(context.Background(), ""), errs.ErrInvalidID)
	require.Equal(t, 4, api.calls())
}

func TestSchedulerService_NextRun(t *testing.T) {
	t.Parallel()
	api := newFakeAPI(
		jsonReply(200, `{"nextRun":"2026-03-01T02:00:00Z"}`),
		jsonReply(200, `{"nextRun":null}`),
		jsonReply(http.StatusForbidden, `{}`),
	)
	s := NewSchedulerService(api)

	got, err := s.NextRun(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2026, got.Year())

	got, err = s.NextRun(context.Background())
	require.NoError(t, err)
	require.Nil(t, got)

	_, err = s.NextRun(context.Background())
	require.ErrorIs(t, err, errs.ErrForbidden)
}

func TestPostService_SetStatus(t *testing.T) {
	t.Parallel()
	api := newFakeAPI(
		jsonReply(200, `{"id":"p1"}`),
		jsonReply(http.StatusNotFound, `{}`),
	)
	s := NewPostService(api)

	require.NoError(t, s.SetStatus(context.Background(), "p1", " Archived "))
	req := api.last()
	require.Equal(t, http.MethodPatch, req.Method)
	require.Equal(t, "/posts/p1", req.Path)
	require.Equal(t, map[string]any{"status": "archived"}, api.bodyJSON())

	require.ErrorIs(t, s.SetStatus(context.Background(), "gone", model.StatusDraft), errs.ErrNotFound)

	require.ErrorIs(t, s.SetStatus(context.Background(), "p1", "deleted"), errs.ErrValidation)
	require.ErrorIs(t, s.SetStatus(context.Background(), " ", model.StatusDraft), errs.ErrInvalidID)
	require.Equal(t, 2, api.calls())
}
