package models

// Provider identifiers. The set is closed: anything else is rejected at
// the API boundary before it reaches storage.
const (
	ProviderStrava = "strava"
	ProviderGarmin = "garmin"
	ProviderPolar  = "polar"
	ProviderCoros  = "coros"
	ProviderWahoo  = "wahoo"
	ProviderFitbit = "fitbit"
)

var knownProviders = map[string]struct{}{
	ProviderStrava: {},
	ProviderGarmin: {},
	ProviderPolar:  {},
	ProviderCoros:  {},
	ProviderWahoo:  {},
	ProviderFitbit: {},
}

// IsKnownProvider reports whether id names a provider the platform knows
// about, implemented or not.
func IsKnownProvider(id string) bool {
	_, ok := knownProviders[id]
	return ok
}
