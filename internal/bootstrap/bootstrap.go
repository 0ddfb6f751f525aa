package bootstrap

import (
	"fmt"
	"net/http"

	"github.com/analyticsPapy/trainlytics-app/internal/config"
	"github.com/analyticsPapy/trainlytics-app/internal/metrics"
	"github.com/analyticsPapy/trainlytics-app/internal/providers"
	"github.com/analyticsPapy/trainlytics-app/internal/services"
	"github.com/analyticsPapy/trainlytics-app/internal/store"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB              *store.Store
	MetricsRecorder metrics.Recorder
	Registry        *providers.Registry

	// Services
	UserService       *services.UserService
	ConnectionService *services.ConnectionService
	OAuthService      *services.OAuthService
	SyncService       *services.SyncService
	ActivityService   *services.ActivityService
	WorkoutService    *services.WorkoutService

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// Run initializes and starts the application
func Run(cfg *config.Config) error {
	app := &Application{Config: cfg}

	// Phase 1: Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(); err != nil {
		return err
	}

	// Phase 3: Initialize business layer
	app.initializeBusinessLayer()

	// Phase 4: Initialize HTTP layer
	if err := app.initializeHTTPLayer(); err != nil {
		return err
	}

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up database, metrics, and the provider
// registry with its outbound HTTP client
func (app *Application) initializeInfrastructure() error {
	var err error

	app.DB, err = store.New(app.Config.DatabaseDriver, app.Config.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	app.MetricsRecorder = metrics.Init(app.Config.MetricsEnabled)

	app.Registry, err = initializeProviders(app.Config)
	if err != nil {
		return fmt.Errorf("failed to initialize providers: %w", err)
	}

	return nil
}

// initializeBusinessLayer sets up services
func (app *Application) initializeBusinessLayer() {
	app.UserService = services.NewUserService(app.DB)
	app.ConnectionService = services.NewConnectionService(app.DB)
	app.ActivityService = services.NewActivityService(app.DB)
	app.WorkoutService = services.NewWorkoutService(app.DB)
	app.OAuthService = services.NewOAuthService(
		app.DB,
		app.Registry,
		app.Config,
		app.MetricsRecorder,
	)
	app.SyncService = services.NewSyncService(
		app.DB,
		app.Registry,
		app.Config,
		app.MetricsRecorder,
	)
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() error {
	app.HandlerSet = buildHandlers(app)

	router, err := setupRouter(app.Config, app.HandlerSet, app.MetricsRecorder, app.UserService)
	if err != nil {
		return err
	}
	app.Router = router
	app.Server = createHTTPServer(app.Config, app.Router)
	return nil
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	addServerRunningJob(m, app.Server)
	addServerShutdownJob(m, app.Server)
	addJanitorJob(m, app.Config, app.DB, app.SyncService, app.MetricsRecorder)

	// Wait for graceful shutdown
	<-m.Done()
}
