package providers

import (
	"context"
	"errors"
	"time"
)

// Errors returned by provider implementations
var (
	// ErrNotImplemented marks a capability the provider declares in the
	// catalog but does not support yet.
	ErrNotImplemented = errors.New("provider capability not implemented")

	// ErrUpstream wraps failures of the provider's own API (bad status,
	// unparseable payload). Callers map it to 502.
	ErrUpstream = errors.New("provider API error")
)

// Token is a provider-issued OAuth token set with an absolute expiry.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Scopes       string
}

// Profile identifies the account on the provider's side.
type Profile struct {
	ProviderUserID string
	Username       string
	Email          string
	Raw            string // provider profile payload as JSON
}

// RemoteActivity is one activity as fetched from a provider, already
// normalized to the platform's units (meters, seconds, km/h, sec/km).
type RemoteActivity struct {
	ExternalID string
	Type       string
	Name       string

	StartTime time.Time
	EndTime   *time.Time

	Duration      *int
	Distance      *float64
	ElevationGain *float64
	Calories      *int
	AvgHeartRate  *int
	MaxHeartRate  *int
	AvgPower      *int
	MaxPower      *int
	AvgPace       *float64
	AvgSpeed      *float64

	Raw string // provider payload as JSON, kept for later reprocessing
}

// Provider is one fitness platform integration. Implementations must be
// safe for concurrent use; they hold config and clients, never per-user
// state.
type Provider interface {
	Name() string
	DisplayName() string
	Description() string
	OAuthVersion() string

	// AuthorizationURL builds the URL the user is redirected to. The
	// state parameter is embedded verbatim.
	AuthorizationURL(state string) (string, error)

	// ExchangeCode trades an authorization code for tokens. Providers
	// whose token response already carries the account profile (Strava)
	// return it; otherwise the profile is nil and callers fall back to
	// FetchProfile.
	ExchangeCode(ctx context.Context, code string) (*Token, *Profile, error)

	// RefreshTokens obtains a fresh token set from a refresh token.
	RefreshTokens(ctx context.Context, refreshToken string) (*Token, error)

	// FetchProfile retrieves the connected account's profile.
	FetchProfile(ctx context.Context, token Token) (*Profile, error)

	// FetchActivities lists activities started after the given time,
	// newest last. A zero since fetches the provider's default window.
	FetchActivities(ctx context.Context, token Token, since time.Time, limit int) ([]RemoteActivity, error)
}
