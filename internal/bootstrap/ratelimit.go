package bootstrap

import (
	"fmt"
	"log"

	"github.com/analyticsPapy/trainlytics-app/internal/config"
	"github.com/analyticsPapy/trainlytics-app/internal/middleware"

	"github.com/gin-gonic/gin"
)

// rateLimitMiddlewares holds rate limiting middlewares for the
// endpoints that reach outward (OAuth dance, sync triggers)
type rateLimitMiddlewares struct {
	oauth gin.HandlerFunc
	sync  gin.HandlerFunc
}

// setupRateLimiting configures rate limiting middlewares based on configuration
func setupRateLimiting(cfg *config.Config) (rateLimitMiddlewares, error) {
	noOpMiddleware := func(c *gin.Context) { c.Next() }

	if !cfg.RateLimitEnabled {
		return rateLimitMiddlewares{
			oauth: noOpMiddleware,
			sync:  noOpMiddleware,
		}, nil
	}

	log.Printf("Rate limiting enabled (store: %s)", cfg.RateLimitStore)

	createLimiter := func(requestsPerMinute int) (gin.HandlerFunc, error) {
		return middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMinute: requestsPerMinute,
			StoreType:         middleware.RateLimitStoreType(cfg.RateLimitStore),
			RedisAddr:         cfg.RedisAddr,
			RedisPassword:     cfg.RedisPassword,
			RedisDB:           cfg.RedisDB,
			CleanupInterval:   cfg.JanitorInterval,
		})
	}

	oauthLimiter, err := createLimiter(cfg.RateLimitPerMinute)
	if err != nil {
		return rateLimitMiddlewares{}, fmt.Errorf("failed to create oauth rate limiter: %w", err)
	}
	syncLimiter, err := createLimiter(cfg.RateLimitPerMinute)
	if err != nil {
		return rateLimitMiddlewares{}, fmt.Errorf("failed to create sync rate limiter: %w", err)
	}

	return rateLimitMiddlewares{
		oauth: oauthLimiter,
		sync:  syncLimiter,
	}, nil
}
