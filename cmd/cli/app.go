package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/and161185/folio-admin/internal/config"
	"github.com/and161185/folio-admin/internal/crypto"
	"github.com/and161185/folio-admin/internal/errs"
	"github.com/and161185/folio-admin/internal/gateway"
	"github.com/and161185/folio-admin/internal/metrics"
	"github.com/and161185/folio-admin/internal/migrate"
	"github.com/and161185/folio-admin/internal/output"
	"github.com/and161185/folio-admin/internal/repository"
	"github.com/and161185/folio-admin/internal/repository/filestore"
	"github.com/and161185/folio-admin/internal/repository/memory"
	"github.com/and161185/folio-admin/internal/repository/postgres"
	"github.com/and161185/folio-admin/internal/repository/redisstore"
	"github.com/and161185/folio-admin/internal/session"
	"github.com/and161185/folio-admin/internal/toast"
)

// errInterrupted is returned when a request was cancelled; nothing else is
// worth reporting then.
var errInterrupted = errors.New("interrupted")

// app carries what one invocation shares between commands.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	cfgFile string
	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics.Metrics
	printer *output.Printer

	// store overrides the configured session store when set.
	store   repository.SessionStore
	sess    *session.Manager
	lines   *bufio.Scanner
	closers []func()
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{
		in:      in,
		out:     out,
		errOut:  errOut,
		log:     zap.NewNop(),
		metrics: metrics.New("folio_cli"),
		printer: output.New(out, config.OutputTable),
	}
}

// setup resolves configuration once the flags of cmd are parsed.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.printer = output.New(a.out, cfg.Output)
	log, err := newLogger(a.errOut, cfg.LogLevel)
	if err != nil {
		return err
	}
	a.log = log
	a.log.Debug("config resolved",
		zap.String("file", cfg.File),
		zap.String("profile", cfg.Profile),
		zap.String("store", cfg.Session.Store),
	)
	if cfg.TraceFile != "" {
		if err := a.startTracing(cfg.TraceFile); err != nil {
			return err
		}
	}
	if cfg.MetricsFile != "" {
		a.closers = append(a.closers, func() {
			if err := prometheus.WriteToTextfile(cfg.MetricsFile, a.metrics.Registry()); err != nil {
				a.log.Warn("write metrics file", zap.String("path", cfg.MetricsFile), zap.Error(err))
			}
		})
	}
	return nil
}

// startTracing exports the spans of this run to path.
func (a *app) startTracing(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("trace file: %w", err)
	}
	shutdown, err := metrics.InitTracing("pa", version, f)
	if err != nil {
		_ = f.Close()
		return err
	}
	a.closers = append(a.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			a.log.Warn("flush traces", zap.Error(err))
		}
		_ = f.Close()
	})
	return nil
}

// close releases store connections, flushes traces and metrics, then the
// logger.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	_ = a.log.Sync()
}

func newLogger(w io.Writer, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

// openStore builds the session store selected by session.store.
func (a *app) openStore(ctx context.Context) (repository.SessionStore, error) {
	if a.store != nil {
		return a.store, nil
	}
	c := a.cfg
	switch c.Session.Store {
	case config.StoreMemory:
		return memory.New(), nil
	case config.StoreRedis:
		rc := redis.NewClient(&redis.Options{Addr: c.Redis.Addr, Password: c.Redis.Password, DB: c.Redis.DB})
		a.closers = append(a.closers, func() { _ = rc.Close() })
		return redisstore.New(rc, c.Profile, redisstore.WithTTL(c.Session.TTL)), nil
	case config.StorePostgres:
		if err := migrate.Up(ctx, c.Postgres.DSN); err != nil {
			return nil, fmt.Errorf("migrate session schema: %w", err)
		}
		db, err := postgres.New(ctx, c.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("open session database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		return postgres.NewSessionRepo(db, c.Profile), nil
	}
	var sealer *crypto.Sealer
	if c.Session.Secret != "" {
		sealer = crypto.NewSealer(c.Session.Secret, c.Profile)
	}
	return filestore.New(config.Dir(), c.Profile, sealer), nil
}

// session returns the session manager, building it on first use.
func (a *app) session(ctx context.Context) (*session.Manager, error) {
	if a.sess != nil {
		return a.sess, nil
	}
	st, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a.sess = session.New(a.cfg.APIURL,
		session.WithStore(st),
		session.WithLogger(a.log),
		session.WithMetrics(a.metrics),
		session.WithGatewayOptions(
			gateway.WithHTTPClient(&http.Client{Timeout: a.cfg.Timeout}),
			gateway.WithTracer(otel.Tracer("github.com/and161185/folio-admin/cmd/cli")),
		),
	)
	return a.sess, nil
}

// schemaVersion reports "applied/latest" for the postgres session store.
func (a *app) schemaVersion(ctx context.Context) (string, error) {
	cur, err := migrate.Version(ctx, a.cfg.Postgres.DSN)
	if err != nil {
		return "", fmt.Errorf("schema version: %w", err)
	}
	latest, err := migrate.Latest()
	if err != nil {
		return "", fmt.Errorf("schema version: %w", err)
	}
	return fmt.Sprintf("%d/%d", cur, latest), nil
}

// configured fails with the not-configured notice when api_url is unset.
func (a *app) configured() error {
	if a.cfg.Configured() {
		return nil
	}
	return a.errNotConfigured()
}

// errNotConfigured reports an unset base URL through the notice table.
func (a *app) errNotConfigured() error {
	return a.fail(toast.Generic, errs.New(errs.KindNotConfigured, "cli"))
}

// authed restores and verifies the persisted session.
func (a *app) authed(ctx context.Context) (*session.Manager, error) {
	if err := a.configured(); err != nil {
		return nil, err
	}
	m, err := a.session(ctx)
	if err != nil {
		return nil, err
	}
	st := m.Verify(ctx)
	if ctx.Err() != nil {
		return nil, errInterrupted
	}
	if !st.IsAuthenticated {
		return nil, errors.New(a.text(textLoginRequired))
	}
	return m, nil
}

// public returns a gateway for the unauthenticated public API.
func (a *app) public() (*gateway.Client, error) {
	base := a.cfg.PublicBase()
	if base == "" {
		return nil, a.errNotConfigured()
	}
	return gateway.New(base,
		gateway.WithLogger(a.log),
		gateway.WithMetrics(a.metrics),
		gateway.WithHTTPClient(&http.Client{Timeout: a.cfg.Timeout}),
	), nil
}

// fail turns err into the notice for act.
func (a *app) fail(act toast.Action, err error) error {
	t, ok := toast.FromError(act, err, a.cfg.Lang)
	if !ok {
		return errInterrupted
	}
	a.log.Debug("command failed", zap.String("action", string(act)), zap.Error(err))
	msg := t.Message
	if t.RedirectToLogin {
		msg += " " + a.text(textLoginHint)
	}
	return errors.New(msg)
}

// notify prints a success or info notice.
func (a *app) notify(t toast.Toast) error {
	return a.printer.Message(t.Message)
}

// readLine reads one line from stdin, for secrets left off the command line.
func (a *app) readLine(prompt string) (string, error) {
	if f, ok := a.in.(*os.File); ok && f == os.Stdin {
		fmt.Fprint(a.errOut, prompt)
	}
	if a.lines == nil {
		a.lines = bufio.NewScanner(a.in)
	}
	if !a.lines.Scan() {
		if err := a.lines.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimRight(a.lines.Text(), "\r"), nil
}

// readAll reads p, with "-" meaning stdin.
func (a *app) readAll(p string) ([]byte, error) {
	if p == "-" {
		return io.ReadAll(a.in)
	}
	return os.ReadFile(p)
}
