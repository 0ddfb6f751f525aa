package store

import "errors"

var (
	// ErrRecordNotFound wraps GORM's not found error for consistency
	ErrRecordNotFound = errors.New("record not found")

	// ErrProviderAccountLinked is returned by UpsertConnection when the
	// provider-side account is already claimed by a different local user.
	ErrProviderAccountLinked = errors.New("provider account already linked to another user")

	// ErrSyncAlreadyRunning is returned by StartSync when an open sync
	// record already exists for the connection (partial unique index hit).
	ErrSyncAlreadyRunning = errors.New("a sync is already running for this connection")

	// ErrSyncAlreadyCompleted is returned by CompleteSync when the record
	// already reached a terminal status. Double-completion is a caller bug
	// and is reported, never swallowed.
	ErrSyncAlreadyCompleted = errors.New("sync already completed")

	// ErrStateAlreadyUsed is returned by ConsumeOAuthState when the state
	// was already consumed by a concurrent callback (0 rows updated).
	ErrStateAlreadyUsed = errors.New("oauth state already used")

	// ErrStateExpired is returned by ConsumeOAuthState past the expiry.
	ErrStateExpired = errors.New("oauth state expired")

	// ErrDuplicateActivity is returned when an external activity insert
	// hits the (connection_id, external_id) unique index.
	ErrDuplicateActivity = errors.New("activity already imported")
)
