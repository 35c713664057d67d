// Package server wires configuration, storage, services and transports into
// a runnable application and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/cryptox"
	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/dmitrijs2005/todokeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todokeeper/internal/server/services"

	gs "github.com/dmitrijs2005/todokeeper/internal/server/grpc"
)

var openRepositoryManager = repomanager.New

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	httpServer  *httpapi.Server
	grpcServer  *gs.HealthServer
}

// NewApp validates c, opens storage, brings the schema up to date and builds
// the transports. Configuration errors are fatal here, before anything listens.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(c.LogLevel))

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	policy, err := cryptox.NewPasswordPolicy(c.PasswordPolicy)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	rm, err := openRepositoryManager(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close(ctx)
		return nil, fmt.Errorf("migration error: %w", err)
	}

	us := services.NewUserService(rm, policy, c)
	ts := services.NewTaskService(rm)
	es := services.NewExportService(rm, c)

	api := httpapi.New(us, ts, es, logger, httpapi.Options{
		AuthMode:       c.AuthMode,
		AllowedOrigins: c.CORSAllowedOrigins,
	})

	app := &App{
		config:      c,
		logger:      logger,
		repomanager: rm,
		httpServer:  httpapi.NewServer(c.EndpointAddrHTTP, api.Handler(), logger),
	}

	if c.EndpointAddrGRPC != "" {
		app.grpcServer = gs.NewHealthServer(c.EndpointAddrGRPC, logger)
	}

	return app, nil
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
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpcServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a signal arrives, then closes storage.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"storage", app.config.StorageDriver,
		"auth_mode", app.config.AuthMode,
		"exports", app.config.ExportsEnabled(),
	)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.grpcServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.repomanager.Close(closeCtx); err != nil {
		app.logger.Error(closeCtx, "storage close failed", "error", err.Error())
	}

	app.logger.Info(closeCtx, "App stopped")
}
