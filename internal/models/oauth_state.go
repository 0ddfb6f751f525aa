package models

import "time"

// OAuthState is the anti-CSRF token binding a pending authorization
// redirect to a user and provider. States are short-lived (default 10
// minutes) and single-use.
type OAuthState struct {
	ID string `gorm:"primaryKey"`

	// Only the SHA256 hash of the state token is stored; the plaintext
	// exists solely in the redirect URL handed to the provider.
	StateHash string `gorm:"uniqueIndex;not null"`

	UserID      string `gorm:"not null;index"`
	Provider    string `gorm:"not null"`
	RedirectURI string

	ExpiresAt time.Time
	UsedAt    *time.Time // Set atomically on consumption; prevents replay
	CreatedAt time.Time
}

func (s *OAuthState) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

func (s *OAuthState) IsUsed() bool {
	return s.UsedAt != nil
}

func (OAuthState) TableName() string {
	return "oauth_states"
}
