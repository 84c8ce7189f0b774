// Package server wires the catalog, blob store and services together and
// runs the gRPC and HTTP endpoints until the process is told to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/classdocs/internal/logging"
	"github.com/dmitrijs2005/classdocs/internal/server/blobstore"
	"github.com/dmitrijs2005/classdocs/internal/server/catalog"
	"github.com/dmitrijs2005/classdocs/internal/server/config"
	"github.com/dmitrijs2005/classdocs/internal/server/httpapi"
	"github.com/dmitrijs2005/classdocs/internal/server/naming"
	"github.com/dmitrijs2005/classdocs/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/classdocs/internal/server/services"

	gs "github.com/dmitrijs2005/classdocs/internal/server/grpc"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	store      blobstore.Store
	catalog    catalog.Catalog
	services   gs.Services
	reconciler *services.Reconciler
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.NewJSONLogger(os.Stdout, level)

	app := &App{config: c, logger: logger}

	if err := app.initCatalog(ctx); err != nil {
		return nil, err
	}
	if err := app.initStore(ctx); err != nil {
		app.close()
		return nil, err
	}

	files := services.NewFileService(app.catalog, app.store, naming.NewPolicy(), c.MaxUploadSize, logger)
	app.services = gs.Services{
		Users:      services.NewUserService(app.catalog, c),
		Classrooms: services.NewClassroomService(app.catalog),
		Files:      files,
		Access:     services.NewAccessPolicy(app.catalog),
	}
	if c.ReconcileInterval > 0 {
		app.reconciler = services.NewReconciler(app.store, app.catalog, c.ReconcileGrace, logger)
	}

	return app, nil
}

// initCatalog opens Postgres when a DSN is configured and falls back to the
// in-memory catalog otherwise.
func (app *App) initCatalog(ctx context.Context) error {
	if app.config.DatabaseDSN == "" {
		app.logger.Warn(ctx, "No database configured, catalog is kept in memory")
		app.catalog = catalog.NewMemory()
		return nil
	}

	db, err := sql.Open("pgx", app.config.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return fmt.Errorf("migration error: %w", err)
	}

	app.db = db
	app.catalog = catalog.NewPostgres(db, rm)
	return nil
}

func (app *App) initStore(ctx context.Context) error {
	c := app.config

	var store blobstore.Store
	switch c.BlobBackend {
	case config.BlobBackendS3:
		s3, err := blobstore.NewS3(ctx, blobstore.S3Config{
			Region:        c.S3Region,
			AccessKey:     c.S3AccessKey,
			SecretKey:     c.S3SecretKey,
			Bucket:        c.S3Bucket,
			BaseEndpoint:  c.S3BaseEndpoint,
			PresignExpiry: c.S3PresignExpiry,
		})
		if err != nil {
			return fmt.Errorf("s3 store: %w", err)
		}
		store = s3
	default:
		disk, err := blobstore.NewDisk(c.DataDir, c.PublicBaseURL)
		if err != nil {
			return fmt.Errorf("disk store: %w", err)
		}
		store = disk
	}

	if c.URLCacheSize > 0 {
		store = blobstore.NewURLCache(store, c.URLCacheSize, c.URLCacheTTL)
	}
	app.store = store
	return nil
}

func (app *App) close() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(context.Background(), "db close", "error", err)
		}
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

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.services, app.config.SecretKey, app.config.MaxUploadSize)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server failed", "error", err)
		cancelFunc()
	}
}

// startHTTPServer serves blob downloads only for the disk backend; S3 blobs
// are fetched from the object store through presigned URLs.
func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	var store blobstore.Store
	if app.config.BlobBackend == config.BlobBackendDisk {
		store = app.store
	}
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, store, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.close()

	app.logger.Info(ctx, "Starting app...", "blob_backend", app.config.BlobBackend, "postgres", app.db != nil)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.reconciler != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.reconciler.Run(ctx, app.config.ReconcileInterval)
		}()
	}

	wg.Wait()
	app.logger.Info(context.Background(), "App stopped")
}
