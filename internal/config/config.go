package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Rate limit store backends
const (
	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

type Config struct {
	// Server settings
	ServerAddr  string
	BaseURL     string
	CORSOrigins []string

	// JWT settings. Tokens are issued by the external identity
	// provider; this service only validates them.
	JWTSecret string

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string

	// OAuth flow settings
	OAuthCallbackURL string        // redirect_uri registered with providers
	OAuthStateTTL    time.Duration // state validity window
	FrontendURL      string        // where the callback sends the browser afterwards

	// Strava credentials
	StravaClientID     string
	StravaClientSecret string
	StravaScopes       string

	// Garmin credentials (OAuth 1.0a, held for the pending integration)
	GarminClientID     string
	GarminClientSecret string

	// Outbound HTTP client (provider APIs)
	OutboundTimeout       time.Duration
	OutboundMaxRetries    int
	OutboundRetryDelay    time.Duration
	OutboundMaxRetryDelay time.Duration

	// Sync settings
	SyncTimeout        time.Duration // per-run budget
	SyncAbandonedAfter time.Duration // running syncs older than this are force-failed
	SyncLookback       time.Duration // activity fetch window for first sync
	SyncMaxActivities  int           // per-run import cap, 0 = unlimited
	JanitorInterval    time.Duration // state purge + abandoned-sync sweep cadence

	// Rate limiting
	RateLimitEnabled   bool
	RateLimitPerMinute int
	RateLimitStore     string // "memory" or "redis"
	RedisAddr          string
	RedisPassword      string
	RedisDB            int

	// Metrics
	MetricsEnabled bool
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", getEnv("DATABASE_PATH", "trainlytics.db"))
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	baseURL := getEnv("BASE_URL", "http://localhost:8080")

	return &Config{
		ServerAddr:  getEnv("SERVER_ADDR", ":8080"),
		BaseURL:     baseURL,
		CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{"http://localhost:3000"}),

		JWTSecret: getEnv("JWT_SECRET", "your-256-bit-secret-change-in-production"),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,

		OAuthCallbackURL: getEnv("OAUTH_CALLBACK_URL", baseURL+"/api/oauth/callback"),
		OAuthStateTTL:    getEnvDuration("OAUTH_STATE_TTL", 10*time.Minute),
		FrontendURL:      getEnv("FRONTEND_URL", "http://localhost:3000"),

		StravaClientID:     getEnv("STRAVA_CLIENT_ID", ""),
		StravaClientSecret: getEnv("STRAVA_CLIENT_SECRET", ""),
		StravaScopes:       getEnv("STRAVA_SCOPES", "read,activity:read_all,profile:read_all"),

		GarminClientID:     getEnv("GARMIN_CLIENT_ID", ""),
		GarminClientSecret: getEnv("GARMIN_CLIENT_SECRET", ""),

		OutboundTimeout:       getEnvDuration("OUTBOUND_TIMEOUT", 15*time.Second),
		OutboundMaxRetries:    getEnvInt("OUTBOUND_MAX_RETRIES", 3),
		OutboundRetryDelay:    getEnvDuration("OUTBOUND_RETRY_DELAY", 1*time.Second),
		OutboundMaxRetryDelay: getEnvDuration("OUTBOUND_MAX_RETRY_DELAY", 10*time.Second),

		SyncTimeout:        getEnvDuration("SYNC_TIMEOUT", 2*time.Minute),
		SyncAbandonedAfter: getEnvDuration("SYNC_ABANDONED_AFTER", 30*time.Minute),
		SyncLookback:       getEnvDuration("SYNC_LOOKBACK", 90*24*time.Hour),
		SyncMaxActivities:  getEnvInt("SYNC_MAX_ACTIVITIES", 500),
		JanitorInterval:    getEnvDuration("JANITOR_INTERVAL", 10*time.Minute),

		RateLimitEnabled:   getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		RateLimitStore:     getEnv("RATE_LIMIT_STORE", RateLimitStoreMemory),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
	}
}

// Validate rejects configurations that would fail later in surprising
// ways.
func (c *Config) Validate() error {
	switch c.RateLimitStore {
	case RateLimitStoreMemory, RateLimitStoreRedis:
	default:
		return fmt.Errorf("invalid RATE_LIMIT_STORE value: %q", c.RateLimitStore)
	}

	if c.DatabaseDriver == "postgres" && c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required for postgres")
	}

	if c.OAuthStateTTL <= 0 {
		return fmt.Errorf("OAUTH_STATE_TTL must be positive")
	}
	if c.SyncAbandonedAfter <= 0 {
		return fmt.Errorf("SYNC_ABANDONED_AFTER must be positive")
	}

	return nil
}

// StravaEnabled reports whether Strava credentials are configured.
func (c *Config) StravaEnabled() bool {
	return c.StravaClientID != "" && c.StravaClientSecret != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var parts []string
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}
