// Package gateway dispatches every backend request: it resolves paths
// against the configured base, attaches the bearer token and reports 401s
// to the session owner.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/and161185/folio-admin/internal/errs"
	"github.com/and161185/folio-admin/internal/metrics"
)

// HeaderRequestID carries a per-request correlation id.
const HeaderRequestID = "X-Request-ID"

// TokenSource yields the current bearer token ("" when anonymous).
type TokenSource interface {
	Token() string
}

// UnauthorizedObserver is told about every 401 the gateway sees.
type UnauthorizedObserver interface {
	OnUnauthorized()
}

// Request describes one backend call.
type Request struct {
	Method string
	// Path is joined to the base URL unless it is an absolute http(s) URL.
	Path  string
	Query url.Values
	// Body is JSON-encoded when non-nil.
	Body   any
	Header http.Header
	// Anonymous requests carry no bearer token and never notify the
	// observer (login, password reset, public site).
	Anonymous bool
}

// Client is the authenticated request gateway.
type Client struct {
	base     string
	http     *http.Client
	tokens   TokenSource
	observer UnauthorizedObserver
	log      *zap.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.log = l } }

// WithMetrics records request metrics.
func WithMetrics(m *metrics.Metrics) Option { return func(c *Client) { c.metrics = m } }

// WithTracer sets the tracer used for request spans.
func WithTracer(t trace.Tracer) Option { return func(c *Client) { c.tracer = t } }

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) Option { return func(c *Client) { c.tokens = ts } }

// WithObserver registers the single 401 observer.
func WithObserver(o UnauthorizedObserver) Option { return func(c *Client) { c.observer = o } }

// New constructs a gateway for base. An empty base is allowed: every
// relative request then fails with NOT_CONFIGURED without any I/O.
func New(base string, opts ...Option) *Client {
	c := &Client{
		base:   strings.TrimRight(strings.TrimSpace(base), "/"),
		http:   &http.Client{},
		log:    zap.NewNop(),
		tracer: otel.Tracer("github.com/and161185/folio-admin/internal/gateway"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Configured reports whether a base URL is set.
func (c *Client) Configured() bool { return c.base != "" }

// Base returns the normalized base URL.
func (c *Client) Base() string { return c.base }

func isAbsolute(p string) bool {
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}

// Resolve builds the final URL for path and query.
func (c *Client) Resolve(path string, q url.Values) (string, error) {
	u := path
	if !isAbsolute(path) {
		if c.base == "" {
			return "", errs.New(errs.KindNotConfigured, "gateway.resolve")
		}
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		u = c.base + path
	}
	if len(q) > 0 {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + q.Encode()
	}
	return u, nil
}

// endpoint reduces a path to a low-cardinality metrics label.
func endpoint(path string) string {
	if isAbsolute(path) {
		if u, err := url.Parse(path); err == nil {
			path = u.Path
		}
	}
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.Trim(path, "/")
	if i := strings.Index(path, "/"); i >= 0 {
		path = path[:i]
	}
	return "/" + path
}

// Do sends r. Transport failures are returned as NETWORK_ERROR, caller
// cancellation as ABORTED. Any received response is returned as is, even a
// 401, after the observer has been notified exactly once. The caller closes
// the body.
func (c *Client) Do(ctx context.Context, r Request) (*http.Response, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	ep := endpoint(r.Path)
	op := "gateway " + method + " " + ep

	target, err := c.Resolve(r.Path, r.Query)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if r.Body != nil {
		raw, err := json.Marshal(r.Body)
		if err != nil {
			return nil, errs.Wrap(errs.KindValidation, op, err)
		}
		body = bytes.NewReader(raw)
	}

	ctx, span := c.tracer.Start(ctx, op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", ep),
		),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errs.Wrap(errs.KindValidation, op, err)
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rid := uuid.Must(uuid.NewV4()).String()
	req.Header.Set(HeaderRequestID, rid)
	span.SetAttributes(attribute.String("request.id", rid))
	propagation.TraceContext{}.Inject(ctx, propagation.HeaderCarrier(req.Header))
	if !r.Anonymous && c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	dur := time.Since(start)
	if err != nil {
		kind := errs.KindNetwork
		if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
			kind = errs.KindAborted
		}
		span.SetStatus(codes.Error, string(kind))
		c.metrics.ObserveError(method, ep, string(kind))
		if kind == errs.KindAborted {
			c.log.Debug("request aborted", zap.String("method", method), zap.String("endpoint", ep), zap.String("request_id", rid))
		} else {
			c.log.Warn("request failed", zap.String("method", method), zap.String("endpoint", ep),
				zap.String("request_id", rid), zap.Duration("dur", dur), zap.Error(err))
		}
		return nil, errs.Wrap(kind, op, err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= 500 {
		span.SetStatus(codes.Error, resp.Status)
	}
	c.metrics.ObserveRequest(method, ep, resp.StatusCode, dur)
	c.log.Debug("request",
		zap.String("method", method),
		zap.String("endpoint", ep),
		zap.Int("status", resp.StatusCode),
		zap.Duration("dur", dur),
		zap.String("request_id", rid),
	)

	if resp.StatusCode == http.StatusUnauthorized && !r.Anonymous && c.observer != nil {
		c.observer.OnUnauthorized()
	}
	return resp, nil
}

// Drain discards and closes a response body so the connection can be reused.
func Drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
