package bootstrap

import (
	"log"
	"time"

	"github.com/analyticsPapy/trainlytics-app/internal/config"
	"github.com/analyticsPapy/trainlytics-app/internal/metrics"
	"github.com/analyticsPapy/trainlytics-app/internal/middleware"
	"github.com/analyticsPapy/trainlytics-app/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	h handlerSet,
	recorder metrics.Recorder,
	users *services.UserService,
) (*gin.Engine, error) {
	r := gin.New()

	r.Use(metrics.HTTPMetricsMiddleware(recorder))
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	r.GET("/health", h.health.Health)

	// Prometheus metrics endpoint
	if cfg.MetricsEnabled {
		log.Printf("Prometheus metrics enabled at /metrics")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// Rate limiting
	limiters, err := setupRateLimiting(cfg)
	if err != nil {
		return nil, err
	}

	auth := middleware.RequireAuth(cfg.JWTSecret, users)

	api := r.Group("/api")
	{
		// Public: the provider catalog and the OAuth callback (the
		// state parameter carries the user identity there).
		api.GET("/providers/available", h.providers.Available)
		api.GET("/oauth/callback", limiters.oauth, h.oauth.Callback)
		api.POST("/oauth/callback", limiters.oauth, h.oauth.Callback)

		api.POST("/oauth/init", auth, limiters.oauth, h.oauth.Init)

		connections := api.Group("/providers", auth)
		{
			connections.GET("/connections", h.providers.ListConnections)
			connections.GET("/connections/:id", h.providers.GetConnection)
			connections.DELETE("/connections/:id", h.providers.DeleteConnection)
			connections.PATCH("/connections/:id/toggle", h.providers.ToggleConnection)
			connections.GET("/connections/provider/:provider", h.providers.GetConnectionByProvider)
			connections.POST("/connections/:id/sync", limiters.sync, h.providers.TriggerSync)
			connections.GET("/connections/:id/sync-history", h.providers.SyncHistory)
			connections.GET("/connections/:id/sync-status", h.providers.SyncStatus)
			connections.GET("/summary", h.providers.Summary)
		}

		activities := api.Group("/activities", auth)
		{
			activities.GET("", h.activities.List)
			activities.POST("", h.activities.Create)
			activities.GET("/stats/summary", h.activities.Stats)
			activities.GET("/:id", h.activities.Get)
			activities.PATCH("/:id", h.activities.Update)
			activities.DELETE("/:id", h.activities.Delete)
		}

		workouts := api.Group("/workouts", auth)
		{
			workouts.GET("", h.workouts.List)
			workouts.POST("", h.workouts.Create)
			workouts.GET("/:id", h.workouts.Get)
			workouts.PATCH("/:id", h.workouts.Update)
			workouts.DELETE("/:id", h.workouts.Delete)
			workouts.POST("/:id/complete", h.workouts.Complete)
		}

		user := api.Group("/users", auth)
		{
			user.GET("/me", h.users.Me)
			user.PATCH("/me", h.users.UpdateMe)
		}
	}

	log.Printf("Server listening on %s (database: %s)", cfg.ServerAddr, cfg.DatabaseDriver)
	return r, nil
}
