package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/analyticsPapy/trainlytics-app/internal/config"
	"github.com/analyticsPapy/trainlytics-app/internal/models"
	"github.com/analyticsPapy/trainlytics-app/internal/providers"
	"github.com/analyticsPapy/trainlytics-app/internal/store"
	"github.com/analyticsPapy/trainlytics-app/internal/util"
)

// stateTokenBytes is the entropy of the state parameter.
const stateTokenBytes = 32

// OAuthInit is the result of starting an authorization flow.
type OAuthInit struct {
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
}

// OAuthCallbackResult reports a completed connect flow.
type OAuthCallbackResult struct {
	Provider    string            `json:"provider"`
	Connection  *ConnectionPublic `json:"connection"`
	RedirectURI string            `json:"-"`
}

// OAuthService drives the authorization-code dance with providers.
type OAuthService struct {
	store    *store.Store
	registry *providers.Registry
	config   *config.Config
	metrics  OAuthRecorder
}

// OAuthRecorder is the slice of the metrics recorder this service needs.
type OAuthRecorder interface {
	RecordOAuthFlow(provider, stage, outcome string)
}

func NewOAuthService(
	s *store.Store,
	registry *providers.Registry,
	cfg *config.Config,
	metrics OAuthRecorder,
) *OAuthService {
	return &OAuthService{
		store:    s,
		registry: registry,
		config:   cfg,
		metrics:  metrics,
	}
}

// Init starts the flow: generates a single-use state, persists its hash,
// and returns the provider's consent URL. An optional redirectURI is
// validated against the frontend origin and stored for the callback.
func (s *OAuthService) Init(userID, provider, redirectURI string) (*OAuthInit, error) {
	impl, err := s.resolveProvider(provider)
	if err != nil {
		return nil, err
	}

	if !util.IsRedirectSafe(redirectURI, s.config.FrontendURL) {
		return nil, fmt.Errorf("%w: unsafe redirect_uri", ErrValidation)
	}

	state, err := util.URLSafeToken(stateTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}

	authURL, err := impl.AuthorizationURL(state)
	if err != nil {
		if errors.Is(err, providers.ErrNotImplemented) {
			return nil, fmt.Errorf("%w: %s", ErrProviderNotImplemented, provider)
		}
		return nil, err
	}

	if _, err := s.store.CreateOAuthState(state, userID, provider, redirectURI, s.config.OAuthStateTTL); err != nil {
		return nil, fmt.Errorf("failed to persist oauth state: %w", err)
	}

	s.metrics.RecordOAuthFlow(provider, "init", "success")
	return &OAuthInit{AuthorizationURL: authURL, State: state}, nil
}

// HandleCallback finishes the flow. The state is consumed before any
// network call so a replayed callback can never reach the provider, and
// regardless of the providerHint the state's own provider wins.
func (s *OAuthService) HandleCallback(ctx context.Context, code, state, providerHint string) (*OAuthCallbackResult, error) {
	if code == "" || state == "" {
		return nil, fmt.Errorf("%w: code and state are required", ErrValidation)
	}
	if providerHint != "" && !models.IsKnownProvider(providerHint) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, providerHint)
	}

	record, err := s.store.ConsumeOAuthState(state)
	if err != nil {
		s.metrics.RecordOAuthFlow(providerHint, "callback", "invalid_state")
		// A state the store has never seen is indistinguishable from a
		// forged, replayed, or expired one; all of them are invalid_state.
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrInvalidState
		}
		return nil, translateStoreErr(err)
	}
	provider := record.Provider

	impl, err := s.resolveProvider(provider)
	if err != nil {
		return nil, err
	}

	token, profile, err := impl.ExchangeCode(ctx, code)
	if err != nil {
		s.metrics.RecordOAuthFlow(provider, "callback", "exchange_failed")
		return nil, translateProviderErr(err)
	}

	if profile == nil {
		profile, err = impl.FetchProfile(ctx, *token)
		if err != nil {
			s.metrics.RecordOAuthFlow(provider, "callback", "profile_failed")
			return nil, translateProviderErr(err)
		}
	}

	conn, err := s.store.UpsertConnection(store.UpsertConnectionParams{
		UserID:           record.UserID,
		Provider:         provider,
		ProviderUserID:   profile.ProviderUserID,
		ProviderUsername: profile.Username,
		ProviderEmail:    profile.Email,
		ProviderProfile:  profile.Raw,
		AccessToken:      token.AccessToken,
		RefreshToken:     token.RefreshToken,
		TokenExpiresAt:   token.ExpiresAt,
		Scopes:           token.Scopes,
	})
	if err != nil {
		s.metrics.RecordOAuthFlow(provider, "callback", "conflict")
		return nil, translateStoreErr(err)
	}

	log.Printf("[OAuth] connected %s account %s for user %s", provider, profile.ProviderUserID, record.UserID)
	s.metrics.RecordOAuthFlow(provider, "callback", "success")

	return &OAuthCallbackResult{
		Provider:    provider,
		Connection:  toConnectionPublic(conn),
		RedirectURI: record.RedirectURI,
	}, nil
}

// resolveProvider maps a provider id to its implementation, folding the
// registry's errors into the service taxonomy.
func (s *OAuthService) resolveProvider(provider string) (providers.Provider, error) {
	if !models.IsKnownProvider(provider) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	impl, err := s.registry.Get(provider)
	if err != nil {
		if errors.Is(err, providers.ErrNotImplemented) {
			return nil, fmt.Errorf("%w: %s", ErrProviderNotImplemented, provider)
		}
		return nil, err
	}
	return impl, nil
}

// translateProviderErr lifts provider errors into the service taxonomy.
func translateProviderErr(err error) error {
	switch {
	case errors.Is(err, providers.ErrNotImplemented):
		return fmt.Errorf("%w: %v", ErrProviderNotImplemented, err)
	case errors.Is(err, providers.ErrUpstream):
		return fmt.Errorf("%w: %v", ErrUpstreamProvider, err)
	default:
		return err
	}
}
