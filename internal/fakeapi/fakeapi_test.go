package fakeapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/folio-admin/internal/errs"
	"github.com/and161185/folio-admin/internal/fakeapi"
	"github.com/and161185/folio-admin/internal/gateway"
	"github.com/and161185/folio-admin/internal/limiter"
	"github.com/and161185/folio-admin/internal/model"
	"github.com/and161185/folio-admin/internal/service"
	"github.com/and161185/folio-admin/internal/session"
)

func start(t *testing.T, opts ...fakeapi.Option) (*fakeapi.Server, *httptest.Server) {
	t.Helper()
	opts = append([]fakeapi.Option{fakeapi.WithLogger(zaptest.NewLogger(t))}, opts...)
	api, err := fakeapi.New(opts...)
	require.NoError(t, err)
	ts := httptest.NewServer(api.Handler())
	t.Cleanup(ts.Close)
	return api, ts
}

func loggedIn(t *testing.T, ts *httptest.Server) *session.Manager {
	t.Helper()
	m := session.New(ts.URL+"/api/admin", session.WithLogger(zaptest.NewLogger(t)))
	res := m.Login(context.Background(), fakeapi.DefaultAdminUser, fakeapi.DefaultAdminPassword)
	require.True(t, res.Success, res.Message)
	return m
}

func TestLogin_WrongPasswordKeepsAnonymous(t *testing.T) {
	t.Parallel()
	_, ts := start(t)
	m := session.New(ts.URL + "/api/admin")

	res := m.Login(context.Background(), fakeapi.DefaultAdminUser, "nope")
	require.False(t, res.Success)
	require.Equal(t, "Username/email o password non validi.", res.Message)
	require.False(t, m.State().IsAuthenticated)
}

func TestLogin_ByEmailAndLogoutRevokes(t *testing.T) {
	t.Parallel()
	api, ts := start(t)
	ctx := context.Background()
	m := session.New(ts.URL + "/api/admin")

	res := m.Login(ctx, strings.ToUpper(fakeapi.DefaultAdminEmail), fakeapi.DefaultAdminPassword)
	require.True(t, res.Success, res.Message)
	st := m.State()
	require.True(t, st.IsAuthenticated)
	require.Equal(t, fakeapi.DefaultAdminUser, st.User.Username)
	require.False(t, st.ExpiresAt.IsZero())
	tok := m.Token()

	m.Logout(ctx)
	require.False(t, m.State().IsAuthenticated)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/admin/messages", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var actions []string
	for _, e := range api.Audit() {
		actions = append(actions, e.Action)
	}
	require.Contains(t, actions, "LOGIN_SUCCESS")
	require.Contains(t, actions, "LOGOUT")
}

func TestLogin_LockoutAfterFailures(t *testing.T) {
	t.Parallel()
	pol := limiter.Policy{Window: time.Minute, MaxFails: 2, LockFor: time.Minute}
	_, ts := start(t, fakeapi.WithLimiter(limiter.NewMemory(pol)))
	m := session.New(ts.URL + "/api/admin")
	ctx := context.Background()

	require.Equal(t, "Username/email o password non validi.", m.Login(ctx, "admin", "x").Message)
	blocked := m.Login(ctx, "admin", "x")
	require.False(t, blocked.Success)
	require.Contains(t, blocked.Message, "Troppi tentativi")

	// locked even with the right password
	again := m.Login(ctx, "admin", fakeapi.DefaultAdminPassword)
	require.False(t, again.Success)
}

func TestAdminRoutes_RequireToken(t *testing.T) {
	t.Parallel()
	_, ts := start(t)

	resp, err := http.Get(ts.URL + "/api/admin/messages")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	msgs := service.NewMessageService(gateway.New(ts.URL + "/api/admin"))
	_, err = msgs.List(context.Background(), 0)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestMessages_PagingAndDelete(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { now = now.Add(time.Minute); return now }
	api, ts := start(t, fakeapi.WithClock(clock))
	for i := range 12 {
		api.AddMessage("Mario", "mario@example.com", strings.Repeat("x", i+1))
	}
	m := loggedIn(t, ts)
	msgs := service.NewMessageService(m.Gateway())
	ctx := context.Background()

	p0, err := msgs.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, p0.Content, fakeapi.MessagesPageSize)
	require.Equal(t, 12, p0.TotalElements)
	require.Equal(t, 2, p0.TotalPages)
	require.True(t, p0.First)
	require.False(t, p0.Last)
	require.Equal(t, strings.Repeat("x", 12), p0.Content[0].Message, "newest first")

	p1, err := msgs.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, p1.Content, 2)
	require.True(t, p1.Last)

	require.NoError(t, msgs.Delete(ctx, p0.Content[0].ID))
	require.ErrorIs(t, msgs.Delete(ctx, p0.Content[0].ID), errs.ErrNotFound)
	require.Len(t, api.Messages(), 11)
	require.Equal(t, "DELETE_MESSAGE", api.Audit()[0].Action)
}

func TestAuditLogs_Filters(t *testing.T) {
	t.Parallel()
	_, ts := start(t)
	m := loggedIn(t, ts)
	ctx := context.Background()
	session.New(ts.URL+"/api/admin").Login(ctx, "admin", "wrong")

	audit := service.NewAuditLogService(m.Gateway())
	all, err := audit.List(ctx, model.AuditLogQuery{})
	require.NoError(t, err)
	require.Equal(t, 2, all.TotalElements)

	failed, err := audit.List(ctx, model.AuditLogQuery{Action: "login_failed"})
	require.NoError(t, err)
	require.Len(t, failed.Content, 1)
	require.Equal(t, "AUTH", failed.Content[0].Entity)

	none, err := audit.List(ctx, model.AuditLogQuery{DateTo: "2000-01-01"})
	require.NoError(t, err)
	require.Empty(t, none.Content)
}

func payload(title string) model.PostPayload {
	return model.PostPayload{
		Status: model.StatusDraft,
		Translations: []model.PayloadTranslation{
			{Locale: "it", Title: title, Content: "<p>Ciao</p><script>x()</script>"},
			{Locale: "en", Title: title, Content: "<p>Hello</p>"},
		},
	}
}

func TestPosts_Lifecycle(t *testing.T) {
	t.Parallel()
	api, ts := start(t)
	m := loggedIn(t, ts)
	posts := service.NewPostService(m.Gateway())
	ctx := context.Background()

	res, err := posts.Create(ctx, payload("Primo Articolo"))
	require.NoError(t, err)
	require.NotEmpty(t, res.ID)
	require.False(t, res.Conflict)

	d, err := posts.Get(ctx, res.ID)
	require.NoError(t, err)
	require.Equal(t, "primo-articolo", d.Slug)
	require.Len(t, d.Translations, 2)
	require.Equal(t, "primo-articolo", d.Translations[0].Slug)
	require.Equal(t, "primo-articolo-en", d.Translations[1].Slug)
	require.NotContains(t, d.Translations[0].Content, "script")

	_, err = posts.Create(ctx, payload("Primo articolo"))
	require.ErrorIs(t, err, errs.ErrConflict)

	list, err := posts.List(ctx, "primo")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Primo Articolo", list[0].Translations["it"].Title)

	up := payload("Secondo articolo")
	up.Translations = up.Translations[:1]
	require.NoError(t, posts.Update(ctx, res.ID, up))
	d, err = posts.Get(ctx, res.ID)
	require.NoError(t, err)
	require.Equal(t, "secondo-articolo", d.Slug)
	require.Len(t, d.Translations, 1)

	require.NoError(t, posts.SetStatus(ctx, res.ID, "archived"))
	require.Equal(t, model.StatusArchived, api.Posts()[0].Status)

	require.NoError(t, posts.Delete(ctx, res.ID))
	_, err = posts.Get(ctx, res.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.ErrorIs(t, posts.SetStatus(ctx, res.ID, "draft"), errs.ErrNotFound)
}

func TestPosts_UpdateSlugConflict(t *testing.T) {
	t.Parallel()
	api, ts := start(t)
	api.AddPost("", "published", fakeapi.Translation{Locale: "it", Title: "Occupato", Content: "c"})
	other := api.AddPost("", "draft", fakeapi.Translation{Locale: "it", Title: "Libero", Content: "c"})
	posts := service.NewPostService(loggedIn(t, ts).Gateway())

	err := posts.Update(context.Background(), other.ID, payload("Occupato"))
	require.ErrorIs(t, err, errs.ErrConflict)
}

func TestPublic_PostsAndDetail(t *testing.T) {
	t.Parallel()
	api, ts := start(t)
	api.AddPost("", "published",
		fakeapi.Translation{Locale: "it", Title: "Benvenuti", Content: "<p>Ciao a tutti</p>"},
		fakeapi.Translation{Locale: "en", Title: "Welcome", Content: "<p>Hi all</p>"},
	)
	api.AddPost("", "draft", fakeapi.Translation{Locale: "it", Title: "Bozza", Content: "x"})
	pub := service.NewPublicService(gateway.New(ts.URL + "/api"))
	ctx := context.Background()

	all, err := pub.Posts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	shown, err := pub.PostsForLanguage(ctx, "en")
	require.NoError(t, err)
	require.Len(t, shown, 1)
	require.Equal(t, "Welcome", shown[0].Title)

	d, err := pub.PostBySlug(ctx, "it", "benvenuti")
	require.NoError(t, err)
	require.Equal(t, "Benvenuti", d.Title)

	_, err = pub.PostBySlug(ctx, "it", "bozza")
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.True(t, pub.Health(ctx))
}

func TestPublic_Contact(t *testing.T) {
	t.Parallel()
	api, ts := start(t)
	pub := service.NewPublicService(gateway.New(ts.URL + "/api"))
	ctx := context.Background()

	require.NoError(t, pub.SubmitContact(ctx, model.ContactPayload{
		Name: " Anna ", Email: "anna@example.com", Message: "Buongiorno",
	}))
	require.NoError(t, pub.SubmitContact(ctx, model.ContactPayload{
		Name: "Bot", Email: "bot@example.com", Message: "spam", Website: "http://spam",
	}))
	err := pub.SubmitContact(ctx, model.ContactPayload{
		Name: "<b>x</b>", Email: "x@example.com", Message: "hi",
	})
	require.ErrorIs(t, err, errs.ErrValidation)

	stored := api.Messages()
	require.Len(t, stored, 1)
	require.Equal(t, "Anna", stored[0].Name)
}

func TestPasswordReset_RevokesSessions(t *testing.T) {
	t.Parallel()
	api, ts := start(t)
	m := loggedIn(t, ts)
	ctx := context.Background()
	anon := session.New(ts.URL + "/api/admin")

	res := anon.RequestPasswordReset(ctx, "nobody@example.com")
	require.True(t, res.Success)
	_, ok := api.ResetToken()
	require.False(t, ok)

	require.True(t, anon.RequestPasswordReset(ctx, fakeapi.DefaultAdminEmail).Success)
	tok, ok := api.ResetToken()
	require.True(t, ok)

	const newPass = "Nuova#Pass9"
	done := anon.ConfirmPasswordReset(ctx, tok, newPass)
	require.True(t, done.Success, done.Message)
	require.False(t, anon.ConfirmPasswordReset(ctx, tok, newPass).Success, "token is single use")

	_, err := service.NewMessageService(m.Gateway()).List(ctx, 0)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	require.False(t, m.State().IsAuthenticated)

	require.False(t, anon.Login(ctx, "admin", fakeapi.DefaultAdminPassword).Success)
	require.True(t, anon.Login(ctx, "admin", newPass).Success)
}

func TestScheduler_NextRun(t *testing.T) {
	t.Parallel()
	api, ts := start(t)
	sched := service.NewSchedulerService(loggedIn(t, ts).Gateway())
	ctx := context.Background()

	next, err := sched.NextRun(ctx)
	require.NoError(t, err)
	require.Nil(t, next)

	at := time.Date(2026, 11, 1, 3, 0, 0, 0, time.UTC)
	api.SetNextRun(&at)
	next, err = sched.NextRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, next)
	require.True(t, at.Equal(*next))
}
