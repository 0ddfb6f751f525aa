package models

import (
	"time"
)

// ProviderConnection represents one user's link to an external fitness
// provider, including the OAuth tokens needed to sync activities.
//
// Two uniqueness rules are enforced at the database level:
//   - a user holds at most one connection per provider
//   - a provider-side account can be claimed by at most one local user
type ProviderConnection struct {
	ID             string `gorm:"primaryKey"`
	UserID         string `gorm:"not null;uniqueIndex:idx_conn_user_provider,priority:1"`
	Provider       string `gorm:"not null;uniqueIndex:idx_conn_user_provider,priority:2;uniqueIndex:idx_conn_provider_account,priority:1"` // "strava", "garmin", ...
	ProviderUserID string `gorm:"not null;uniqueIndex:idx_conn_provider_account,priority:2"`                                               // Account ID on the provider platform

	// Provider profile snapshot (for display/audit; refreshed on reconnect)
	ProviderUsername string
	ProviderEmail    string
	ProviderProfile  string `gorm:"type:text;default:'{}'"` // Raw profile blob as JSON

	// Token storage (should be encrypted at rest in production)
	AccessToken    string    `gorm:"type:text"`
	RefreshToken   string    `gorm:"type:text"`
	TokenExpiresAt time.Time // Absolute expiry, never a duration
	Scopes         string    // Granted scopes, comma-separated

	// Sync bookkeeping
	IsActive      bool `gorm:"not null;default:true"`
	LastSyncAt    *time.Time
	LastSyncError *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsTokenExpired reports whether the access token needs a refresh before use
func (c *ProviderConnection) IsTokenExpired() bool {
	return !c.TokenExpiresAt.IsZero() && time.Now().After(c.TokenExpiresAt)
}

func (ProviderConnection) TableName() string {
	return "provider_connections"
}
