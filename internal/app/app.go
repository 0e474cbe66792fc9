package app

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

	"account-api/internal/config"
	"account-api/internal/database"
	"account-api/internal/dbconn"
	"account-api/internal/event"
	"account-api/internal/handler"
	"account-api/internal/middleware"
	"account-api/internal/repository"
	"account-api/internal/router"
	"account-api/internal/service"
	"account-api/internal/token"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	opts, err := cfg.ResolverOptions()
	if err != nil {
		return nil, fmt.Errorf("invalid database options: %w", err)
	}

	descriptor, err := dbconn.Resolve(cfg.DatabaseURL, cfg.DatabaseFallback, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database connection: %w", err)
	}
	slog.Info("database connection resolved", "database", descriptor)

	db, err := database.New(ctx, descriptor, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.DBMigrate {
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	tokens := token.NewService([]byte(cfg.TokenKey))
	if err := token.CheckKey([]byte(cfg.TokenKey)); err != nil {
		slog.Warn("token signing key is unusable, account endpoints will fail", "error", err)
	}
	validator, err := token.NewValidator(tokens.ValidationParameters())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure token validation: %w", err)
	}

	bus := event.NewBus()
	activityCtx, stopActivity := context.WithCancel(context.Background())
	go event.LogActivity(activityCtx, bus, slog.Default())

	userRepo := repository.NewUserRepository(db.Pool)
	accountService := service.NewAccountService(userRepo, tokens, bus)

	appRouter := router.New(cfg, middleware.NewAuthMiddleware(validator), router.Handlers{
		Account:     handler.NewAccountHandler(accountService),
		Diagnostics: handler.NewDiagnosticsHandler(),
		Health:      handler.NewHealthHandler(db),
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		cleanupFuncs: []func(){
			stopActivity,
			db.Close,
		},
	}, nil
}

// Run serves until SIGINT or SIGTERM, then drains in-flight requests.
func (a *App) Run() error {
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-serveErr:
		a.cleanup()
		return fmt.Errorf("server failed: %w", err)
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(ctx)
	a.cleanup()
	if err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func (a *App) cleanup() {
	for _, fn := range a.cleanupFuncs {
		fn()
	}
}
