package providers

import (
	"fmt"

	"github.com/analyticsPapy/trainlytics-app/internal/models"
)

// CatalogEntry describes one provider for the available-providers
// endpoint, implemented or not.
type CatalogEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	OAuthType   string `json:"oauth_type"`
	Implemented bool   `json:"implemented"`
}

// catalog is the closed set of providers the platform knows about.
// Implemented flips to true when a Provider lands in the registry.
var catalog = []CatalogEntry{
	{
		ID:          models.ProviderStrava,
		Name:        "Strava",
		Description: "Running, cycling, and swimming activities",
		OAuthType:   "OAuth 2.0",
		Implemented: true,
	},
	{
		ID:          models.ProviderGarmin,
		Name:        "Garmin Connect",
		Description: "All Garmin device activities",
		OAuthType:   "OAuth 1.0a",
		Implemented: false,
	},
	{
		ID:          models.ProviderPolar,
		Name:        "Polar Flow",
		Description: "Polar device activities",
		OAuthType:   "OAuth 2.0",
		Implemented: false,
	},
	{
		ID:          models.ProviderCoros,
		Name:        "COROS",
		Description: "COROS device activities",
		OAuthType:   "OAuth 2.0",
		Implemented: false,
	},
	{
		ID:          models.ProviderWahoo,
		Name:        "Wahoo",
		Description: "Wahoo device activities",
		OAuthType:   "OAuth 2.0",
		Implemented: false,
	},
	{
		ID:          models.ProviderFitbit,
		Name:        "Fitbit",
		Description: "Fitbit device activities",
		OAuthType:   "OAuth 2.0",
		Implemented: false,
	},
}

// Catalog returns the full provider catalog.
func Catalog() []CatalogEntry {
	out := make([]CatalogEntry, len(catalog))
	copy(out, catalog)
	return out
}

// IsImplemented reports whether the catalog marks a provider as having
// a working integration.
func IsImplemented(id string) bool {
	for _, entry := range catalog {
		if entry.ID == id {
			return entry.Implemented
		}
	}
	return false
}

// Registry holds the active Provider implementations keyed by id.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds a registry from the given implementations.
func NewRegistry(impls ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(impls))}
	for _, p := range impls {
		r.providers[p.Name()] = p
	}
	return r
}

// Get returns the implementation for a provider id.
// A known-but-unimplemented provider yields ErrNotImplemented; an unknown
// id is a caller error.
func (r *Registry) Get(id string) (Provider, error) {
	if p, ok := r.providers[id]; ok {
		return p, nil
	}
	if models.IsKnownProvider(id) {
		return nil, fmt.Errorf("%w: %s", ErrNotImplemented, id)
	}
	return nil, fmt.Errorf("unknown provider: %s", id)
}

// Has reports whether the provider id has a live implementation.
func (r *Registry) Has(id string) bool {
	_, ok := r.providers[id]
	return ok
}
