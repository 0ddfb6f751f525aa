package services

import "errors"

// Service-level failure taxonomy. Handlers map these onto HTTP status
// codes; nothing below this layer knows about HTTP.
var (
	// ErrNotFound covers missing or not-owned resources. Ownership
	// misses are deliberately indistinguishable from absence.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict marks writes rejected by a uniqueness rule, e.g. a
	// provider account already linked to another user or a second sync
	// completion.
	ErrConflict = errors.New("conflicting resource state")

	// ErrInvalidState marks an OAuth state that is unknown, expired, or
	// already consumed.
	ErrInvalidState = errors.New("invalid or expired oauth state")

	// ErrValidation marks rejected input.
	ErrValidation = errors.New("validation failed")

	// ErrUnknownProvider marks a provider id outside the catalog.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrProviderNotImplemented marks a catalogued provider without a
	// live integration.
	ErrProviderNotImplemented = errors.New("provider not implemented")

	// ErrUpstreamProvider marks a failure of the provider's API.
	ErrUpstreamProvider = errors.New("upstream provider error")

	// ErrConnectionInactive rejects syncs on a deactivated connection.
	ErrConnectionInactive = errors.New("connection is not active")

	// ErrSyncRunning rejects a sync while another one is open for the
	// same connection.
	ErrSyncRunning = errors.New("sync already running for this connection")
)
