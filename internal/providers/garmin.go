package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/analyticsPapy/trainlytics-app/internal/models"
)

// Garmin is registered so the catalog and error paths behave, but every
// capability returns ErrNotImplemented. Garmin Connect uses OAuth 1.0a
// request signing, which none of the shared OAuth 2.0 plumbing covers.
//
// TODO: implement the OAuth 1.0a handshake against
// connectapi.garmin.com once consumer credentials are provisioned.
type Garmin struct{}

func NewGarmin() *Garmin { return &Garmin{} }

func (g *Garmin) Name() string         { return models.ProviderGarmin }
func (g *Garmin) DisplayName() string  { return "Garmin Connect" }
func (g *Garmin) Description() string  { return "All Garmin device activities" }
func (g *Garmin) OAuthVersion() string { return "OAuth 1.0a" }

func (g *Garmin) AuthorizationURL(state string) (string, error) {
	return "", fmt.Errorf("%w: garmin authorization", ErrNotImplemented)
}

func (g *Garmin) ExchangeCode(ctx context.Context, code string) (*Token, *Profile, error) {
	return nil, nil, fmt.Errorf("%w: garmin token exchange", ErrNotImplemented)
}

func (g *Garmin) RefreshTokens(ctx context.Context, refreshToken string) (*Token, error) {
	return nil, fmt.Errorf("%w: garmin token refresh", ErrNotImplemented)
}

func (g *Garmin) FetchProfile(ctx context.Context, token Token) (*Profile, error) {
	return nil, fmt.Errorf("%w: garmin profile", ErrNotImplemented)
}

func (g *Garmin) FetchActivities(ctx context.Context, token Token, since time.Time, limit int) ([]RemoteActivity, error) {
	return nil, fmt.Errorf("%w: garmin activity fetch", ErrNotImplemented)
}
