package services

import (
	"context"
	"testing"
	"time"

	"github.com/analyticsPapy/trainlytics-app/internal/config"
	"github.com/analyticsPapy/trainlytics-app/internal/models"
	"github.com/analyticsPapy/trainlytics-app/internal/providers"
	"github.com/analyticsPapy/trainlytics-app/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New("sqlite", ":memory:")
	require.NoError(t, err)
	return s
}

func testConfig() *config.Config {
	return &config.Config{
		FrontendURL:        "http://localhost:3000",
		OAuthStateTTL:      10 * time.Minute,
		SyncTimeout:        time.Minute,
		SyncAbandonedAfter: 30 * time.Minute,
		SyncLookback:       90 * 24 * time.Hour,
		SyncMaxActivities:  500,
	}
}

// nopRecorder satisfies every metrics interface the services take.
type nopRecorder struct{}

func (nopRecorder) RecordOAuthFlow(provider, stage, outcome string) {}
func (nopRecorder) RecordSync(provider, status string, duration time.Duration, imported int) {
}

// fakeProvider is a scriptable Provider for service tests.
type fakeProvider struct {
	name          string
	authURL       string
	token         *providers.Token
	profile       *providers.Profile
	activities    []providers.RemoteActivity
	exchangeErr   error
	refreshErr    error
	fetchErr      error
	refreshCalls  int
	exchangeCalls int
	fetchCalls    int
}

func (f *fakeProvider) Name() string         { return f.name }
func (f *fakeProvider) DisplayName() string  { return f.name }
func (f *fakeProvider) Description() string  { return "test provider" }
func (f *fakeProvider) OAuthVersion() string { return "OAuth 2.0" }

func (f *fakeProvider) AuthorizationURL(state string) (string, error) {
	return f.authURL + "?state=" + state, nil
}

func (f *fakeProvider) ExchangeCode(ctx context.Context, code string) (*providers.Token, *providers.Profile, error) {
	f.exchangeCalls++
	if f.exchangeErr != nil {
		return nil, nil, f.exchangeErr
	}
	return f.token, f.profile, nil
}

func (f *fakeProvider) RefreshTokens(ctx context.Context, refreshToken string) (*providers.Token, error) {
	f.refreshCalls++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	fresh := *f.token
	fresh.AccessToken = "refreshed-" + fresh.AccessToken
	fresh.ExpiresAt = time.Now().Add(6 * time.Hour)
	return &fresh, nil
}

func (f *fakeProvider) FetchProfile(ctx context.Context, token providers.Token) (*providers.Profile, error) {
	if f.profile == nil {
		return nil, providers.ErrUpstream
	}
	return f.profile, nil
}

func (f *fakeProvider) FetchActivities(ctx context.Context, token providers.Token, since time.Time, limit int) ([]providers.RemoteActivity, error) {
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.activities, nil
}

func newFakeStrava() *fakeProvider {
	return &fakeProvider{
		name:    models.ProviderStrava,
		authURL: "https://www.strava.com/oauth/authorize",
		token: &providers.Token{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			ExpiresAt:    time.Now().Add(6 * time.Hour),
			Scopes:       "read,activity:read_all",
		},
		profile: &providers.Profile{
			ProviderUserID: "12345",
			Username:       "jrunner",
			Email:          "j@example.com",
			Raw:            `{"id":12345}`,
		},
	}
}

// seedConnection creates a user plus an active connection directly in
// the store.
func seedConnection(t *testing.T, s *store.Store, provider string) (userID string, conn *models.ProviderConnection) {
	t.Helper()
	userID = uuid.New().String()

	conn, err := s.UpsertConnection(store.UpsertConnectionParams{
		UserID:         userID,
		Provider:       provider,
		ProviderUserID: "acct-" + uuid.New().String()[:8],
		AccessToken:    "access-1",
		RefreshToken:   "refresh-1",
		TokenExpiresAt: time.Now().Add(6 * time.Hour),
		Scopes:         "read",
	})
	require.NoError(t, err)
	return userID, conn
}

func remoteRun(externalID string, start time.Time) providers.RemoteActivity {
	dur := 3600
	dist := 10000.0
	return providers.RemoteActivity{
		ExternalID: externalID,
		Type:       "run",
		Name:       "Run " + externalID,
		StartTime:  start,
		Duration:   &dur,
		Distance:   &dist,
		Raw:        `{"id":` + externalID + `}`,
	}
}
