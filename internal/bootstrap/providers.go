package bootstrap

import (
	"fmt"
	"log"

	"github.com/analyticsPapy/trainlytics-app/internal/client"
	"github.com/analyticsPapy/trainlytics-app/internal/config"
	"github.com/analyticsPapy/trainlytics-app/internal/providers"
)

// initializeProviders builds the registry of live provider integrations.
// Providers without credentials stay out of the registry and surface as
// not-implemented to callers; the catalog still lists them.
func initializeProviders(cfg *config.Config) (*providers.Registry, error) {
	outbound, err := client.NewOutboundClient(
		cfg.OutboundTimeout,
		cfg.OutboundMaxRetries,
		cfg.OutboundRetryDelay,
		cfg.OutboundMaxRetryDelay,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create outbound client: %w", err)
	}

	impls := []providers.Provider{
		providers.NewGarmin(),
	}

	if cfg.StravaEnabled() {
		impls = append(impls, providers.NewStrava(providers.StravaConfig{
			ClientID:     cfg.StravaClientID,
			ClientSecret: cfg.StravaClientSecret,
			RedirectURL:  cfg.OAuthCallbackURL,
			Scopes:       cfg.StravaScopes,
		}, outbound))
		log.Printf("Strava provider enabled (callback: %s)", cfg.OAuthCallbackURL)
	} else {
		log.Printf("Strava provider disabled: credentials not configured")
	}

	return providers.NewRegistry(impls...), nil
}
