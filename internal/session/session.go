// Package session owns the admin login: it restores a persisted token,
// verifies it once against the backend, and clears it on logout or on any
// 401 the gateway observes.
package session

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/and161185/folio-admin/internal/errs"
	"github.com/and161185/folio-admin/internal/gateway"
	"github.com/and161185/folio-admin/internal/metrics"
	"github.com/and161185/folio-admin/internal/model"
	"github.com/and161185/folio-admin/internal/repository"
	"github.com/and161185/folio-admin/internal/repository/memory"
	"github.com/and161185/folio-admin/internal/validate"
)

// BackendUnreachableMessage is returned by Login when no response could be read.
const BackendUnreachableMessage = "Impossibile raggiungere il server. Verifica la connessione e che il backend sia avviato."

const loginFailedMessage = "Login failed."

// Backend paths relative to the admin base.
const (
	pathLogin  = "/login"
	pathLogout = "/logout"
	pathVerify = "/messages"
)

// Result is the outcome of login and password reset calls. Message is safe
// to show to the user.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Manager is the single writer of the session state. It is safe for
// concurrent use.
type Manager struct {
	gw      *gateway.Client
	store   repository.SessionStore
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu    sync.RWMutex
	token string
	user  *model.User
	state model.State
	// gen changes on every write so a slow verify cannot overwrite a newer login.
	gen uint64

	verifyOnce sync.Once

	subMu   sync.Mutex
	subs    map[int]func(model.State)
	nextSub int
}

type options struct {
	store   repository.SessionStore
	log     *zap.Logger
	metrics *metrics.Metrics
	gateway []gateway.Option
	now     func() time.Time
}

// Option configures a Manager.
type Option func(*options)

// WithStore sets where the session is mirrored. Defaults to an in-memory store.
func WithStore(s repository.SessionStore) Option { return func(o *options) { o.store = s } }

// WithLogger sets the logger for the manager and its gateway.
func WithLogger(l *zap.Logger) Option { return func(o *options) { o.log = l } }

// WithMetrics records session transitions and gateway traffic.
func WithMetrics(m *metrics.Metrics) Option { return func(o *options) { o.metrics = m } }

// WithGatewayOptions passes extra options (HTTP client, tracer) to the gateway.
func WithGatewayOptions(opts ...gateway.Option) Option {
	return func(o *options) { o.gateway = append(o.gateway, opts...) }
}

// New builds a Manager whose gateway resolves relative paths against
// adminBase, takes tokens from the manager and reports 401s back to it.
func New(adminBase string, opts ...Option) *Manager {
	o := options{log: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.store == nil {
		o.store = memory.New()
	}
	m := &Manager{
		store:   o.store,
		log:     o.log,
		metrics: o.metrics,
		now:     o.now,
		state:   model.State{Roles: []string{}, IsVerifying: true},
		subs:    map[int]func(model.State){},
	}
	gwOpts := append([]gateway.Option{
		gateway.WithLogger(o.log),
		gateway.WithMetrics(o.metrics),
	}, o.gateway...)
	gwOpts = append(gwOpts, gateway.WithTokenSource(m), gateway.WithObserver(m))
	m.gw = gateway.New(adminBase, gwOpts...)
	return m
}

// Gateway returns the authenticated gateway bound to this session.
func (m *Manager) Gateway() *gateway.Client { return m.gw }

// Token implements gateway.TokenSource.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// State returns a snapshot of the current session.
func (m *Manager) State() model.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyState(m.state)
}

func copyState(s model.State) model.State {
	out := s
	out.Roles = append([]string{}, s.Roles...)
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	return out
}

// Subscribe registers fn to receive every new state. The returned func
// removes the subscription.
func (m *Manager) Subscribe(fn func(model.State)) (unsubscribe func()) {
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.subMu.Unlock()
	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

func (m *Manager) publish(s model.State) {
	m.subMu.Lock()
	fns := make([]func(model.State), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()
	for _, fn := range fns {
		fn(copyState(s))
	}
}

// authenticate installs token and user. It returns false when gen no longer
// matches (another write won).
func (m *Manager) authenticate(gen uint64, checkGen bool, token string, u model.User, exp time.Time) bool {
	m.mu.Lock()
	if checkGen && gen != m.gen {
		m.mu.Unlock()
		return false
	}
	m.gen++
	m.token = token
	m.user = &u
	m.state = model.State{
		Token:           token,
		User:            &u,
		Roles:           []string{model.RoleAdmin},
		IsAuthenticated: true,
		ExpiresAt:       exp,
	}
	s := copyState(m.state)
	m.mu.Unlock()

	m.metrics.SessionState("authenticated")
	m.publish(s)
	return true
}

// resolveAnonymous clears the in-memory session without touching the store.
func (m *Manager) resolveAnonymous(gen uint64, checkGen bool) bool {
	m.mu.Lock()
	if checkGen && gen != m.gen {
		m.mu.Unlock()
		return false
	}
	m.gen++
	m.token = ""
	m.user = nil
	m.state = model.State{Roles: []string{}}
	s := copyState(m.state)
	m.mu.Unlock()

	m.metrics.SessionState("anonymous")
	m.publish(s)
	return true
}

func (m *Manager) clearStore() {
	if err := m.store.Clear(context.Background()); err != nil {
		m.log.Warn("session store clear failed", zap.Error(err))
	}
}

// OnUnauthorized implements gateway.UnauthorizedObserver. It clears the
// session unconditionally.
func (m *Manager) OnUnauthorized() {
	m.log.Info("session cleared after 401")
	m.resolveAnonymous(0, false)
	m.clearStore()
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// Opaque tokens report the zero time.
func TokenExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser(jwt.WithoutClaimsValidation()).ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.UTC()
}

// Login sends the credentials. Failures never change the current session.
func (m *Manager) Login(ctx context.Context, login, password string) Result {
	resp, err := m.gw.Do(ctx, gateway.Request{
		Method:    http.MethodPost,
		Path:      pathLogin,
		Body:      map[string]string{"login": login, "password": password},
		Anonymous: true,
	})
	if err != nil {
		if errs.IsAborted(err) {
			return Result{}
		}
		m.log.Warn("login transport failure", zap.Error(err))
		return Result{Message: BackendUnreachableMessage}
	}
	defer gateway.Drain(resp)

	body, err := readLenient(resp.Body)
	if err != nil {
		return Result{Message: BackendUnreachableMessage}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, msg := validate.Ack(body)
		if strings.TrimSpace(msg) == "" {
			msg = loginFailedMessage
		}
		return Result{Message: msg}
	}

	reply, err := validate.LoginResponse(body)
	if err != nil {
		m.log.Warn("login reply rejected", zap.Error(err))
		return Result{Message: BackendUnreachableMessage}
	}
	if !reply.Success {
		msg := reply.Message
		if strings.TrimSpace(msg) == "" {
			msg = loginFailedMessage
		}
		return Result{Message: msg}
	}

	exp := TokenExpiry(reply.Token)
	m.authenticate(0, false, reply.Token, reply.User, exp)
	if err := m.store.Save(ctx, model.StoredSession{Token: reply.Token, User: reply.User, ExpiresAt: exp}); err != nil {
		m.log.Warn("session store save failed", zap.Error(err))
	}
	m.log.Info("logged in", zap.String("user", reply.User.Username))
	return Result{Success: true}
}

// maxReplyBytes bounds login and acknowledgement bodies.
const maxReplyBytes = 1 << 20

// readLenient decodes a JSON body regardless of status or content type.
// An empty body decodes as an empty object.
func readLenient(r io.Reader) (any, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxReplyBytes))
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}
	return validate.Parse(bytes.NewReader(raw), "session.read")
}

// Logout revokes the token on the backend (best effort) and always clears
// the local session.
func (m *Manager) Logout(ctx context.Context) {
	if tok := m.Token(); tok != "" {
		resp, err := m.gw.Do(ctx, gateway.Request{
			Method:    http.MethodPost,
			Path:      pathLogout,
			Header:    http.Header{"Authorization": {"Bearer " + tok}},
			Anonymous: true,
		})
		if err != nil {
			m.log.Debug("logout request failed", zap.Error(err))
		}
		gateway.Drain(resp)
	}
	m.resolveAnonymous(0, false)
	m.clearStore()
}

// Verify restores the persisted session and checks it against the backend.
// Only the first call does any work; later calls return the current state.
func (m *Manager) Verify(ctx context.Context) model.State {
	m.verifyOnce.Do(func() { m.verify(ctx) })
	return m.State()
}

func (m *Manager) verify(ctx context.Context) {
	m.mu.RLock()
	gen := m.gen
	m.mu.RUnlock()

	ss, err := m.store.Load(ctx)
	if err != nil {
		m.log.Warn("session store load failed", zap.Error(err))
		ss = nil
	}
	if ss == nil || ss.Token == "" || ss.User.Username == "" {
		m.resolveAnonymous(gen, true)
		return
	}
	exp := ss.ExpiresAt
	if exp.IsZero() {
		exp = TokenExpiry(ss.Token)
	}
	if !exp.IsZero() && !exp.After(m.now()) {
		m.log.Info("persisted token expired", zap.Time("expires_at", exp))
		if m.resolveAnonymous(gen, true) {
			m.clearStore()
		}
		return
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return
	}
	m.token = ss.Token
	m.user = &ss.User
	m.mu.Unlock()

	resp, err := m.gw.Do(ctx, gateway.Request{
		Path:  pathVerify,
		Query: url.Values{"page": {"0"}, "size": {"1"}},
	})
	if err != nil {
		// No answer from the backend: drop the session for this run but keep
		// it persisted so the next run can try again.
		if !errs.IsAborted(err) {
			m.log.Warn("session verification failed", zap.Error(err))
		}
		m.resolveAnonymous(gen, true)
		return
	}
	defer gateway.Drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		m.log.Info("persisted session rejected", zap.Int("status", resp.StatusCode))
		if m.resolveAnonymous(gen, true) {
			m.clearStore()
		}
		return
	}
	m.authenticate(gen, true, ss.Token, ss.User, exp)
}
