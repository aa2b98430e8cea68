// Package server wires configuration, storage, services and the HTTP API
// together and runs them until the process is asked to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/annotrack/internal/logging"
	"github.com/dmitrijs2005/annotrack/internal/server/auth"
	"github.com/dmitrijs2005/annotrack/internal/server/config"
	"github.com/dmitrijs2005/annotrack/internal/server/httpapi"
	"github.com/dmitrijs2005/annotrack/internal/server/metrics"
	"github.com/dmitrijs2005/annotrack/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/annotrack/internal/server/services"
	"github.com/dmitrijs2005/annotrack/internal/server/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}
	newRepositoryManager = repomanager.NewPostgresRepositoryManager
	newS3Store           = func(ctx context.Context, c *config.Config) (storage.FileStore, error) {
		return storage.NewS3Store(ctx, c)
	}
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := newRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, "annotrack"),
	)
	mx := metrics.New(registry)

	store, err := newFileStore(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}
	store = storage.WithMetrics(store, c.StorageBackend, mx)

	tokens := auth.NewTokenService([]byte(c.SecretKey), c.TokenValidityDuration)

	deps := httpapi.Deps{
		Users:   services.NewUserService(db, rm, tokens),
		Intake:  services.NewIntakeService(db, rm, c, store, logger, mx),
		Listing: services.NewListingService(db, rm),
		Tokens:  tokens,
		Metrics: mx,
	}

	return &App{
		config: c,
		logger: logger,
		db:     db,
		server: httpapi.NewServer(c, logger, deps),
	}, nil
}

func newFileStore(ctx context.Context, c *config.Config) (storage.FileStore, error) {
	switch c.StorageBackend {
	case config.StorageS3:
		return newS3Store(ctx, c)
	case config.StorageLocal:
		return storage.NewLocalStore(c.UploadRoot), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or the process receives SIGINT, SIGTERM
// or SIGQUIT, then closes the database.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageBackend)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
