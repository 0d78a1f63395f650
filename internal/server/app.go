// Package server initializes and runs the upload server: it opens the
// registry backend, prepares the chunk store, starts the HTTP endpoint and
// the staging sweeper, and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/bigupload/internal/logging"
	"github.com/dmitrijs2005/bigupload/internal/server/config"
	"github.com/dmitrijs2005/bigupload/internal/server/httpserver"
	"github.com/dmitrijs2005/bigupload/internal/server/mirror"
	"github.com/dmitrijs2005/bigupload/internal/server/services"
	"github.com/dmitrijs2005/bigupload/internal/server/shared/db"
	"github.com/dmitrijs2005/bigupload/internal/server/storage"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
)

type App struct {
	config        *config.Config
	logger        logging.Logger
	backend       *db.Backend
	uploadService *services.UploadService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.New(os.Stdout, c.LogLevel)

	backend, err := db.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	store, err := storage.NewChunkStore(afero.NewOsFs(), c.UploadDir)
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("upload dir init error: %w", err)
	}

	var m services.Mirror
	if c.S3Bucket != "" {
		s3m, err := mirror.New(ctx, mirror.Config{
			Bucket:   c.S3Bucket,
			Region:   c.S3Region,
			Endpoint: c.S3BaseEndpoint,
			User:     c.S3RootUser,
			Password: c.S3RootPassword,
		})
		if err != nil {
			_ = backend.Close()
			return nil, fmt.Errorf("mirror init error: %w", err)
		}
		m = s3m
	}

	us := services.NewUploadService(backend.Conn, backend.Manager, store, m, logger, c.MaxChunkBytes)

	return &App{config: c, logger: logger, backend: backend, uploadService: us}, nil
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
	s := httpserver.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.uploadService, app.config.MaxChunkBytes)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until the server stops, either on a signal or a fatal error.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	gin.SetMode(gin.ReleaseMode)

	app.logger.Info(ctx, "Starting app...", "upload_dir", app.config.UploadDir)

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
		app.uploadService.RunSweeper(ctx, app.config.SweepInterval, app.config.StagingTTL)
	}()

	wg.Wait()

	if err := app.backend.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
