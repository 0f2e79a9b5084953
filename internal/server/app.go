// Package server wires the places server together: configuration, logging,
// the database and its migrations, the geocoding and object-storage
// adapters, the services and the HTTP API. It runs until the process is
// signalled.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophplaces/internal/logging"
	"github.com/dmitrijs2005/gophplaces/internal/server/auth"
	"github.com/dmitrijs2005/gophplaces/internal/server/config"
	"github.com/dmitrijs2005/gophplaces/internal/server/geocoding"
	"github.com/dmitrijs2005/gophplaces/internal/server/httpapi"
	"github.com/dmitrijs2005/gophplaces/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophplaces/internal/server/services"
	"github.com/dmitrijs2005/gophplaces/internal/server/storage"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Seams for tests.
var (
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}
	newRepositoryManager = repomanager.NewPostgresRepositoryManager
	newObjectStorage     = func(ctx context.Context, c *config.Config) (services.ObjectStorage, error) {
		return storage.NewS3Storage(ctx, c)
	}
	newLogger = func(c *config.Config) logging.Logger {
		return logging.NewJSONLogger(c.LogFile)
	}
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := newLogger(c)

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	rm := newRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	objects, err := newObjectStorage(ctx, c)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("object storage init error: %w", err)
	}

	geocoder := geocoding.NewClient(c.GeocodingBaseURL, c.GeocodingAPIKey, c.ExternalCallTimeout)
	tokens := auth.NewTokenIssuer([]byte(c.SecretKey), c.AccessTokenValidityDuration)

	ps := services.NewPlaceService(db, rm, geocoder, objects, logger)
	us := services.NewUserService(db, rm, objects, tokens, logger)

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Places:       ps,
		Users:        us,
		Verifier:     tokens,
		Logger:       logger,
		MaxImageSize: c.MaxImageSize,
		Metrics:      true,
	})

	return &App{
		config: c,
		logger: logger,
		db:     db,
		server: httpapi.NewServer(c.EndpointAddrHTTP, router, logger),
	}, nil
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

// Run serves until ctx is cancelled or a termination signal arrives, then
// closes the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
