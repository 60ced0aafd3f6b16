// Package server initializes and runs the authrelay application: it opens
// the configured credential store, wires the services and serves the HTTP
// endpoint until a termination signal arrives.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/authrelay/internal/logging"
	"github.com/dmitrijs2005/authrelay/internal/server/auth"
	"github.com/dmitrijs2005/authrelay/internal/server/config"
	"github.com/dmitrijs2005/authrelay/internal/server/generation"
	"github.com/dmitrijs2005/authrelay/internal/server/httpapi"
	"github.com/dmitrijs2005/authrelay/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authrelay/internal/server/services"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	httpServer  *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(c.LogBackend, os.Stdout)
	if err != nil {
		return nil, err
	}

	if c.UsesDefaultSecret() {
		logger.Warn(ctx, "JWT secret not set, using the insecure default; set JWT_SECRET")
	}
	if c.GenerationAPIKey == "" {
		logger.Warn(ctx, "generation API key not set, chat requests will fail")
	}

	rm, err := repomanager.New(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}
	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	us := services.NewUserService(
		rm.Users(),
		auth.NewBcryptHasher(c.BcryptCost),
		auth.NewTokenService([]byte(c.SecretKey), c.TokenValidityDuration),
		logger,
	)
	gen := generation.NewClient(&http.Client{}, c.GenerationBaseURL, c.GenerationModel, c.GenerationAPIKey)
	cs := services.NewChatService(gen, c.GenerationTimeout)

	metrics := httpapi.NewMetrics()
	handler := httpapi.NewHandler(us, cs, logger, metrics)
	srv := httpapi.NewServer(c.EndpointAddrHTTP, handler, metrics, logger)

	logger.Info(ctx, "store ready", "backend", c.StoreBackend)

	return &App{config: c, logger: logger, repomanager: rm, httpServer: srv}, nil
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

// Run serves until ctx is cancelled or a termination signal arrives, then
// closes the store.
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

	if err := app.repomanager.Close(); err != nil {
		app.logger.Error(ctx, "closing store", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
