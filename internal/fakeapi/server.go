// Package fakeapi is an in-process stand-in for the portfolio backend. It
// serves the admin and public REST contract consumed by the client packages,
// keeps its state in memory, and is used by tests and by cmd/devapi.
package fakeapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/and161185/folio-admin/internal/crypto"
	"github.com/and161185/folio-admin/internal/limiter"
	"github.com/and161185/folio-admin/internal/metrics"
)

// Defaults for the seeded admin account.
const (
	DefaultAdminUser     = "admin"
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "Admin#2026"
)

// Page sizes used by the listing endpoints.
const (
	MessagesPageSize = 10
	AuditPageSize    = 20
)

// Server is the fake backend.
type Server struct {
	log      *zap.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	limiter  limiter.Limiter
	signKey  []byte
	tokenTTL time.Duration
	resetTTL time.Duration
	now      func() time.Time

	st store
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option { return func(s *Server) { s.log = l } }

// WithMetrics records request metrics.
func WithMetrics(m *metrics.Metrics) Option { return func(s *Server) { s.metrics = m } }

// WithTracer sets the tracer used for server spans.
func WithTracer(t trace.Tracer) Option { return func(s *Server) { s.tracer = t } }

// WithLimiter replaces the in-memory login limiter.
func WithLimiter(l limiter.Limiter) Option { return func(s *Server) { s.limiter = l } }

// WithSignKey sets the HS256 key for issued tokens.
func WithSignKey(k []byte) Option { return func(s *Server) { s.signKey = k } }

// WithTokenTTL sets the lifetime of issued tokens.
func WithTokenTTL(d time.Duration) Option { return func(s *Server) { s.tokenTTL = d } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Server) { s.now = now } }

// New returns a server with one admin account (DefaultAdminUser /
// DefaultAdminPassword) and no content.
func New(opts ...Option) (*Server, error) {
	s := &Server{
		log:      zap.NewNop(),
		tracer:   otel.Tracer("github.com/and161185/folio-admin/internal/fakeapi"),
		limiter:  limiter.NewMemory(limiter.DefaultPolicy),
		tokenTTL: time.Hour,
		resetTTL: 30 * time.Minute,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if len(s.signKey) == 0 {
		k, err := crypto.RandBytes(32)
		if err != nil {
			return nil, err
		}
		s.signKey = k
	}
	s.st.resets = map[string]time.Time{}
	s.st.issued = map[string]struct{}{}
	if err := s.SetAdmin(DefaultAdminUser, DefaultAdminEmail, DefaultAdminPassword); err != nil {
		return nil, err
	}
	return s, nil
}

// SetAdmin replaces the admin credentials and revokes every issued token.
func (s *Server) SetAdmin(username, email, password string) error {
	if username == "" || email == "" {
		return errors.New("fakeapi: admin username and email are required")
	}
	h, err := crypto.NewPasswordHash(password)
	if err != nil {
		return err
	}
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	s.st.admin = admin{ID: 1, Username: username, Email: email, Password: h}
	clear(s.st.issued)
	return nil
}

// Handler returns the routed API. Admin routes live under /api/admin,
// public routes under /api.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.traced, s.recoverer, s.requestLog)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Post("/contacts", s.createContact)
		r.Get("/posts", s.publicPosts)
		r.Get("/posts/{locale}/{slug}", s.publicPost)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", s.login)
			r.Post("/logout", s.logout)
			r.Post("/auth/password-reset-email", s.requestReset)
			r.Post("/auth/password-reset", s.confirmReset)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)

				r.Get("/messages", s.listMessages)
				r.Get("/messages/{id}", s.getMessage)
				r.Delete("/messages/{id}", s.deleteMessage)

				r.Get("/audit-logs", s.listAudit)

				r.Get("/posts", s.listPosts)
				r.Post("/posts", s.createPost)
				r.Get("/posts/{id}", s.getPost)
				r.Put("/posts/{id}", s.updatePost)
				r.Patch("/posts/{id}", s.patchPost)
				r.Delete("/posts/{id}", s.deletePost)

				r.Get("/scheduler/data-retention-next-run", s.nextRun)
			})
		})
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Risorsa non trovata.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Metodo non consentito.")
	})
	return r
}
