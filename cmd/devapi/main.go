// Command devapi serves an in-memory portfolio backend for local use of pa.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/and161185/folio-admin/internal/fakeapi"
	"github.com/and161185/folio-admin/internal/limiter"
	"github.com/and161185/folio-admin/internal/metrics"
	"github.com/and161185/folio-admin/internal/migrate"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main parses flags, optionally migrates the limiter database, and serves
// the API until SIGINT or SIGTERM.
func main() {
	addr := flag.String("addr", ":8080", "listen address")
	dsn := flag.String("dsn", "", "PostgreSQL DSN for the login limiter (empty keeps it in memory)")
	jwtKey := flag.String("jwt-key", "", "HS256 signing key (random when empty)")
	tokenTTL := flag.Duration("token-ttl", time.Hour, "token TTL")
	adminUser := flag.String("admin-user", fakeapi.DefaultAdminUser, "admin username")
	adminEmail := flag.String("admin-email", fakeapi.DefaultAdminEmail, "admin email")
	adminPass := flag.String("admin-password", fakeapi.DefaultAdminPassword, "admin password")
	seed := flag.Bool("seed", true, "load demo messages and posts")
	traceFile := flag.String("trace-file", "", "write request spans as JSON to this file (- for stderr)")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", *addr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *traceFile != "" {
		w := os.Stderr
		if *traceFile != "-" {
			f, err := os.OpenFile(*traceFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				logger.Fatal("open trace file", zap.Error(err))
			}
			defer f.Close()
			w = f
		}
		shutdown, err := metrics.InitTracing("folio-devapi", version, w)
		if err != nil {
			logger.Fatal("init tracing", zap.Error(err))
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				logger.Warn("flush traces", zap.Error(err))
			}
		}()
	}

	m := metrics.New("folio_devapi")
	opts := []fakeapi.Option{
		fakeapi.WithLogger(logger),
		fakeapi.WithMetrics(m),
		fakeapi.WithTokenTTL(*tokenTTL),
	}
	if *jwtKey != "" {
		opts = append(opts, fakeapi.WithSignKey([]byte(*jwtKey)))
	}
	if *dsn != "" {
		if err := migrate.Up(ctx, *dsn); err != nil {
			logger.Fatal("migrate up", zap.Error(err))
		}
		pool, err := pgxpool.New(ctx, *dsn)
		if err != nil {
			logger.Fatal("pgxpool.New", zap.Error(err))
		}
		defer pool.Close()
		opts = append(opts, fakeapi.WithLimiter(limiter.NewPG(pool, limiter.DefaultPolicy)))
	}

	api, err := fakeapi.New(opts...)
	if err != nil {
		logger.Fatal("init api", zap.Error(err))
	}
	if err := api.SetAdmin(*adminUser, *adminEmail, *adminPass); err != nil {
		logger.Fatal("admin account", zap.Error(err))
	}
	if *seed {
		seedDemo(api)
	}

	root := chi.NewRouter()
	root.Handle("/metrics", m.Handler())
	root.Mount("/", api.Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           root,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", *addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("forced shutdown", zap.Error(err))
			_ = srv.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}

func seedDemo(api *fakeapi.Server) {
	api.AddMessage("Giulia Rossi", "giulia@example.com", "Ciao, mi piacerebbe collaborare a un progetto.")
	api.AddMessage("John Smith", "john@example.com", "Loved the last article, thanks!")
	api.AddPost("", "published",
		fakeapi.Translation{Locale: "it", Title: "Benvenuti nel blog", Content: "<p>Primo articolo del blog.</p>"},
		fakeapi.Translation{Locale: "en", Title: "Welcome to the blog", Content: "<p>First post of the blog.</p>"},
	)
	api.AddPost("", "draft",
		fakeapi.Translation{Locale: "it", Title: "Bozza in lavorazione", Content: "<p>Ancora da finire.</p>"},
	)
	next := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
	api.SetNextRun(&next)
}
