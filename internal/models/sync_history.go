package models

import (
	"time"
)

// Sync attempt states. "running" is the only non-terminal state; a row
// never transitions out of a terminal state.
const (
	SyncStatusRunning = "running"
	SyncStatusSuccess = "success"
	SyncStatusFailed  = "failed"
	SyncStatusPartial = "partial"
)

// SyncCounts aggregates what a sync attempt did with the activities it saw.
type SyncCounts struct {
	Fetched int `gorm:"column:activities_fetched;not null;default:0" json:"activities_fetched"`
	Created int `gorm:"column:activities_created;not null;default:0" json:"activities_created"`
	Updated int `gorm:"column:activities_updated;not null;default:0" json:"activities_updated"`
	Skipped int `gorm:"column:activities_skipped;not null;default:0" json:"activities_skipped"`
}

// SyncHistory is one synchronization attempt against a provider connection.
// At most one open row (SyncCompletedAt IS NULL) may exist per connection;
// the store enforces this with a partial unique index.
type SyncHistory struct {
	ID           string `gorm:"primaryKey" json:"id"`
	ConnectionID string `gorm:"not null;index" json:"connection_id"`

	SyncStartedAt   time.Time  `gorm:"not null;index" json:"sync_started_at"`
	SyncCompletedAt *time.Time `json:"sync_completed_at"`
	SyncStatus      string     `gorm:"not null;default:'running'" json:"sync_status"` // "running", "success", "failed", "partial"

	SyncCounts `gorm:"embedded"`

	ErrorMessage *string `json:"error_message"`
	ErrorDetails string  `gorm:"type:text;default:'{}'" json:"error_details"` // JSON detail for debugging

	CreatedAt time.Time `json:"created_at"`
}

// IsTerminal reports whether the attempt has reached a final status
func (s *SyncHistory) IsTerminal() bool {
	return s.SyncStatus != SyncStatusRunning
}

func (SyncHistory) TableName() string {
	return "sync_history"
}
