// Package server initializes and runs the LoginLink server.
// It opens the database, applies migrations, wires the token services
// and starts the HTTP server plus the background cleanup sweep,
// handling graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/loginlink/loginlink/internal/logging"
	"github.com/loginlink/loginlink/internal/server/config"
	"github.com/loginlink/loginlink/internal/server/events"
	"github.com/loginlink/loginlink/internal/server/httpserver"
	"github.com/loginlink/loginlink/internal/server/repositories/repomanager"
	"github.com/loginlink/loginlink/internal/server/services"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	db           *sql.DB
	scheduler    *services.Scheduler
	tokenService *services.TokenService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	db, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager()
	if err != nil {
		return nil, fmt.Errorf("repository manager init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	notifier, err := events.NewNotifier(os.Stdout, logger)
	if err != nil {
		return nil, fmt.Errorf("event notifier init error: %w", err)
	}

	scheduler := services.NewScheduler(db, rm, logger)
	ts := services.NewTokenService(db, rm, services.NewPolicy(), scheduler, notifier, logger, cfg)

	return &App{
		config:       cfg,
		logger:       logger,
		db:           db,
		scheduler:    scheduler,
		tokenService: ts,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpserver.NewServer(app.config, app.logger, app.tokenService)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.scheduler.Run(ctx, app.config.Tokens.SweepInterval)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
