// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/oliverandrich/ui2code/internal/config"
	"codeberg.org/oliverandrich/ui2code/internal/database"
	"codeberg.org/oliverandrich/ui2code/internal/handlers"
	"codeberg.org/oliverandrich/ui2code/internal/i18n"
	"codeberg.org/oliverandrich/ui2code/internal/metrics"
	appmw "codeberg.org/oliverandrich/ui2code/internal/middleware"
	"codeberg.org/oliverandrich/ui2code/internal/repository"
	"codeberg.org/oliverandrich/ui2code/internal/services/auth"
	"codeberg.org/oliverandrich/ui2code/internal/services/email"
	"codeberg.org/oliverandrich/ui2code/internal/services/generate"
	"codeberg.org/oliverandrich/ui2code/internal/store"
	"codeberg.org/oliverandrich/ui2code/internal/store/redisstore"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
)

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
		"database_driver", cfg.Database.Driver,
	)

	// i18n
	if err := i18n.Init(); err != nil {
		return fmt.Errorf("failed to init i18n: %w", err)
	}

	// Metrics
	reg := metrics.NewRegistry()
	collector := metrics.NewCollector(reg)

	// Durable store
	durable, err := openDurable(cfg.Database)
	if err != nil {
		return err
	}
	if durable != nil {
		defer func() {
			if closeErr := durable.Close(); closeErr != nil {
				slog.Error("failed to close durable store", "error", closeErr)
			}
		}()

		if _, purgeErr := durable.PurgeExpired(ctx, time.Now()); purgeErr != nil {
			slog.Warn("durable_store_unavailable", "error", purgeErr)
		}

		purgeCtx, stopPurger := context.WithCancel(ctx)
		defer stopPurger()
		go store.RunPurger(purgeCtx, durable, cfg.Database.PurgeInterval)
	}

	// Services
	authSvc, err := newAuthService(cfg, durable, collector)
	if err != nil {
		return err
	}
	genSvc := generate.NewService(&cfg.Generate, generate.WithMetrics(collector))
	if !genSvc.Enabled() {
		slog.Warn("gemini api key not configured, /api/generate is disabled")
	}

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	setupMiddleware(e, cfg, collector)

	// Routes
	setupRoutes(e, handlers.New(authSvc, genSvc, cfg.Auth.EnableTestEmail), authSvc, reg)

	// Start server
	return startWithGracefulShutdown(e, cfg)
}

// openDurable returns the durable store for cfg, or nil when the service
// runs on the volatile store alone. No connection is made here.
func openDurable(cfg config.DatabaseConfig) (*store.Lazy, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		slog.Warn("no durable store configured, data is kept in memory only")
		return nil, nil //nolint:nilnil // memory mode has no durable store
	case config.DriverRedis:
		opts := redisstore.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		}
		return store.NewLazy(func(ctx context.Context) (store.Store, error) {
			return redisstore.Open(ctx, opts)
		}), nil
	case config.DriverSQLite, "":
		dsn := cfg.DSN
		return store.NewLazy(func(ctx context.Context) (store.Store, error) {
			db, err := database.Open(ctx, dsn)
			if err != nil {
				return nil, err
			}
			return repository.New(db), nil
		}), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func newAuthService(cfg *config.Config, durable *store.Lazy, collector *metrics.Collector) (*auth.Service, error) {
	mailer, err := email.New(&cfg.SMTP)
	if err != nil {
		return nil, fmt.Errorf("failed to configure mailer: %w", err)
	}

	secret, err := cfg.Auth.PendingSecretBytes()
	if err != nil {
		return nil, err
	}

	opts := auth.Options{
		Volatile:  store.NewMemory(),
		Mailer:    mailer,
		Tokens:    auth.NewTokenCodec(secret),
		ExposeOTP: cfg.Auth.ExposeOTP,
		Metrics:   collector,
	}
	if durable != nil {
		opts.Durable = durable
	}
	return auth.NewService(opts), nil
}

func setupRoutes(e *echo.Echo, h *handlers.Handlers, authSvc *auth.Service, gatherer prometheus.Gatherer) {
	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(gatherer)))

	api := e.Group("/api")
	api.POST("/generate", h.Generate)

	a := api.Group("/auth")
	a.POST("/signup", h.Signup)
	a.POST("/verify-signup", h.VerifySignup)
	a.POST("/login", h.Login)
	a.POST("/verify-login", h.VerifyLogin)
	a.GET("/session", h.Session, appmw.RequireSession(authSvc))
	a.GET("/test-email", h.TestEmail)
	a.POST("/test-email", h.TestEmail)
}

func startWithGracefulShutdown(e *echo.Echo, cfg *config.Config) error {
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("Server running", "url", cfg.Server.BaseURL)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
