package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/folio-admin/internal/fakeapi"
	"github.com/and161185/folio-admin/internal/model"
	"github.com/and161185/folio-admin/internal/repository/memory"
	"github.com/and161185/folio-admin/internal/session"
)

// harness runs pa invocations against one fake backend. The memory store
// plays the part of the session file between runs.
type harness struct {
	t     *testing.T
	api   *fakeapi.Server
	base  string
	cfg   string
	store *memory.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	api, err := fakeapi.New(fakeapi.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	ts := httptest.NewServer(api.Handler())
	t.Cleanup(ts.Close)

	cfg := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("log_level: error\nsession:\n  store: memory\n"), 0o600))
	return &harness{t: t, api: api, base: ts.URL + "/api/admin", cfg: cfg, store: memory.New()}
}

func (h *harness) exec(stdin string, args ...string) (string, error) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	a := newApp(strings.NewReader(stdin), &out, &errOut)
	a.store = h.store
	root := a.root()
	root.SetArgs(append([]string{"--config", h.cfg}, args...))
	err := root.ExecuteContext(context.Background())
	a.close()
	return out.String(), err
}

// run executes args against the fake backend.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	return h.exec("", append([]string{"--api-url", h.base}, args...)...)
}

func (h *harness) must(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "pa %s", strings.Join(args, " "))
	return out
}

func (h *harness) login() {
	h.t.Helper()
	h.must("login", "-u", fakeapi.DefaultAdminUser, "-p", fakeapi.DefaultAdminPassword)
}

func TestLogin_StatusLogout(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	_, err := h.run("login", "-u", "admin", "-p", "wrong")
	require.EqualError(t, err, "Username/email o password non validi.")
	require.Contains(t, h.must("status"), "false")

	out, err := h.exec(fakeapi.DefaultAdminPassword+"\n", "--api-url", h.base, "login", "-u", fakeapi.DefaultAdminEmail)
	require.NoError(t, err)
	require.Equal(t, "Accesso effettuato come admin.\n", out)

	var st model.State
	require.NoError(t, json.Unmarshal([]byte(h.must("status", "-o", "json")), &st))
	require.True(t, st.IsAuthenticated)
	require.Equal(t, fakeapi.DefaultAdminEmail, st.User.Email)
	require.Equal(t, []string{model.RoleAdmin}, st.Roles)

	require.Equal(t, "Disconnesso.\n", h.must("logout"))
	ss, err := h.store.Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, ss)
	require.Contains(t, h.must("status"), "false")
}

func TestAdminCommands_RequireSession(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	for _, args := range [][]string{
		{"messages", "list"},
		{"audit", "list"},
		{"posts", "list"},
		{"retention", "next-run"},
	} {
		_, err := h.run(args...)
		require.EqualError(t, err, "Accesso richiesto: esegui 'pa login'.", strings.Join(args, " "))
	}
}

func TestRevokedSession_IsForgotten(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.login()

	require.NoError(t, h.api.SetAdmin("admin", "admin@example.com", "Altra#Pass1"))
	_, err := h.run("messages", "list")
	require.EqualError(t, err, "Accesso richiesto: esegui 'pa login'.")

	ss, err := h.store.Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, ss)
}

func TestNotConfigured(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	for _, args := range [][]string{
		{"login", "-u", "admin", "-p", "x"},
		{"messages", "list"},
		{"health"},
	} {
		_, err := h.exec("", args...)
		require.EqualError(t, err, "API non configurata: imposta api_url.", strings.Join(args, " "))
	}
	_, err := h.exec("", "--lang", "en", "health")
	require.EqualError(t, err, "API not configured: set api_url.")
}

func TestMessages_ListAndDelete(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	first := h.api.AddMessage("Mario", "mario@example.com", "Ciao,\nvorrei un preventivo.")
	h.api.AddMessage("Anna", "anna@example.com", "Salve")
	h.login()

	var page model.Page[model.Message]
	require.NoError(t, json.Unmarshal([]byte(h.must("messages", "list", "-o", "json")), &page))
	require.Equal(t, 2, page.TotalElements)
	require.Len(t, page.Content, 2)

	table := h.must("messages", "list")
	require.Contains(t, table, "Ciao, vorrei un preventivo.")
	require.Contains(t, table, "page 1/1, 2 total")

	require.Equal(t, "Messaggio eliminato.\n", h.must("messages", "delete", first))
	require.Len(t, h.api.Messages(), 1)

	_, err := h.run("messages", "delete", first)
	require.EqualError(t, err, "Messaggio non trovato o già eliminato.")
}

func TestAudit_ListFilters(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	_, _ = h.run("login", "-u", "admin", "-p", "wrong")
	h.login()

	var page model.Page[model.AuditLogEntry]
	require.NoError(t, json.Unmarshal([]byte(h.must("audit", "list", "--action", "LOGIN_FAILED", "-o", "json")), &page))
	require.Equal(t, 1, page.TotalElements)
	require.Equal(t, "LOGIN_FAILED", page.Content[0].Action)

	require.Contains(t, h.must("audit", "list", "--user", "example.com"), "LOGIN_SUCCESS")
}

func TestPosts_Lifecycle(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.login()

	dir := t.TempDir()
	itFile := filepath.Join(dir, "it.html")
	require.NoError(t, os.WriteFile(itFile, []byte(`<p onclick="steal()">Ciao <script>alert(1)</script><b>mondo</b></p>`), 0o600))

	var res model.CreateResult
	out := h.must("posts", "create",
		"--locale", "it", "--title", "Primo articolo", "--content-file", itFile,
		"--locale", "en", "--title", "First post",
		"-o", "json")
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.NotEmpty(t, res.ID)
	require.False(t, res.Conflict)

	posts := h.api.Posts()
	require.Len(t, posts, 1)
	require.Equal(t, "primo-articolo", posts[0].Slug)
	require.Equal(t, model.StatusDraft, posts[0].Status)
	require.Len(t, posts[0].Translations, 2)
	content := posts[0].Translations[0].Content
	require.NotContains(t, content, "script")
	require.NotContains(t, content, "onclick")
	require.Contains(t, content, "<b>mondo</b>")

	require.Contains(t, h.must("posts", "list"), "Primo articolo")
	require.Contains(t, h.must("posts", "show", res.ID), "first-post")

	_, err := h.run("posts", "create", "--locale", "it", "--title", "Primo articolo")
	require.EqualError(t, err, "Conflitto (409). Se l'articolo è stato creato comunque, cercalo nell'elenco e aprilo in modifica per aggiungere le traduzioni.")

	require.Equal(t, "Articolo aggiornato.\n",
		h.must("posts", "update", res.ID, "--locale", "en", "--title", "First article", "--status", "published"))
	posts = h.api.Posts()
	require.Equal(t, model.StatusPublished, posts[0].Status)
	require.Equal(t, "First article", posts[0].Translations[1].Title)

	require.Equal(t, "Articolo archiviato.\n", h.must("posts", "archive", res.ID))
	require.Equal(t, model.StatusArchived, h.api.Posts()[0].Status)

	require.Equal(t, "Articolo eliminato.\n", h.must("posts", "delete", res.ID))
	require.Empty(t, h.api.Posts())
	_, err = h.run("posts", "show", res.ID)
	require.EqualError(t, err, "Articolo non trovato.")
}

func TestPostsCreate_ReportsFormProblems(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	_, err := h.run("posts", "create", "--locale", "it", "--locale", "it")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Lingue duplicate: it")
	require.Contains(t, err.Error(), "titolo obbligatorio")

	_, err = h.run("posts", "create", "--title", "a", "--title", "b")
	require.EqualError(t, err, "every --title and --content-file needs its --locale")
}

func TestPublic_PostsContactHealth(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.api.AddPost("", model.StatusPublished,
		fakeapi.Translation{Locale: "it", Title: "Ciao mondo", Content: "<p>uno due tre</p>"})
	h.api.AddPost("", model.StatusDraft,
		fakeapi.Translation{Locale: "it", Title: "Bozza", Content: "<p>no</p>"})

	list := h.must("public", "posts")
	require.Contains(t, list, "Ciao mondo")
	require.NotContains(t, list, "Bozza")

	detail := h.must("public", "post", "it", "ciao-mondo")
	require.Contains(t, detail, "Ciao mondo")
	require.Contains(t, detail, "uno due tre")

	_, err := h.run("public", "post", "it", "nessuno")
	require.EqualError(t, err, "Articolo non trovato.")

	require.Equal(t, "Messaggio inviato.\n",
		h.must("contact", "--name", "Mario", "--email", "mario@example.com", "--message", "Salve"))
	require.Len(t, h.api.Messages(), 1)

	_, err = h.run("contact", "--name", "Mario", "--email", "non-una-mail", "--message", "Salve")
	require.EqualError(t, err, "Dati non validi.")

	require.Equal(t, "Backend raggiungibile.\n", h.must("health"))
}

func TestPasswordReset(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	out := h.must("password", "reset-request", "--email", fakeapi.DefaultAdminEmail)
	require.Contains(t, out, "riceverai un link")
	token, ok := h.api.ResetToken()
	require.True(t, ok)

	_, err := h.run("password", "reset", "--token", token, "--password", "Nuova#Pass9", "--confirm", "Altra#Pass9")
	require.EqualError(t, err, session.PasswordMismatch)
	_, err = h.run("password", "reset", "--password", "Nuova#Pass9")
	require.EqualError(t, err, session.MissingResetToken)
	_, err = h.run("password", "reset", "--token", token, "--password", "corta")
	require.EqualError(t, err, session.PasswordHint)

	out, err = h.exec("Nuova#Pass9\nNuova#Pass9\n", "--api-url", h.base, "password", "reset", "--token", token)
	require.NoError(t, err)
	require.Contains(t, out, "Password aggiornata")

	h.must("login", "-u", "admin", "-p", "Nuova#Pass9")
}

func TestRetention_NextRun(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.login()

	require.Equal(t, "Nessuna esecuzione pianificata.\n", h.must("retention", "next-run"))

	next := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	h.api.SetNextRun(&next)
	require.Equal(t, next.Local().Format(time.DateTime)+"\n", h.must("retention", "next-run"))
}

func TestSanitize(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	in := `<a href="https://example.com" onclick="x()">link</a><script>alert(1)</script>`

	out, err := h.exec(in, "sanitize", "-")
	require.NoError(t, err)
	require.NotContains(t, out, "script")
	require.NotContains(t, out, "onclick")
	require.NotContains(t, out, "_blank")

	out, err = h.exec(in, "sanitize", "--preview", "-")
	require.NoError(t, err)
	require.Contains(t, out, `target="_blank"`)
}

// Not parallel: --trace-file installs the global tracer provider.
func TestTraceAndMetricsFiles(t *testing.T) {
	t.Cleanup(func() {
		otel.SetTracerProvider(noop.NewTracerProvider())
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator())
	})
	h := newHarness(t)
	dir := t.TempDir()
	traces := filepath.Join(dir, "spans.json")
	prom := filepath.Join(dir, "metrics.prom")

	h.login()
	require.Equal(t, "Backend raggiungibile.\n",
		h.must("--trace-file", traces, "--metrics-file", prom, "health"))
	h.must("--trace-file", traces, "--metrics-file", prom, "messages", "list")

	spans, err := os.ReadFile(traces)
	require.NoError(t, err)
	require.Contains(t, string(spans), `"Name":"gateway GET /health"`)
	require.Contains(t, string(spans), `"Name":"gateway GET /messages"`)

	dump, err := os.ReadFile(prom)
	require.NoError(t, err)
	require.Contains(t, string(dump), `folio_cli_http_requests_total{endpoint="/messages",method="GET",status="200"} 2`, "verify plus the page")
	require.NotContains(t, string(dump), `endpoint="/health"`, "each run rewrites the file")
}

func TestVersion(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	out, err := h.exec("", "version", "--short")
	require.NoError(t, err)
	require.Equal(t, "dev\n", out)
}
