package models

import (
	"time"
)

// Activity is a normalized workout record, either entered manually or
// imported from a provider connection. Imported rows carry the provider's
// activity ID in ExternalID; the (connection_id, external_id) pair is
// unique so re-importing the same activity updates rather than duplicates.
type Activity struct {
	ID     string `gorm:"primaryKey" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`

	// Provenance. Both NULL for manual entries, which keeps them out of
	// the unique index. ConnectionID is not a foreign key on purpose:
	// disconnecting a provider orphans imported activities instead of
	// deleting them.
	ConnectionID *string `gorm:"index;uniqueIndex:idx_activity_external,priority:1" json:"connection_id"`
	ExternalID   *string `gorm:"uniqueIndex:idx_activity_external,priority:2"       json:"external_id"`

	ActivityType string `gorm:"not null" json:"activity_type"` // "run", "ride", "swim", ...
	ActivityName string `json:"activity_name"`

	StartTime time.Time  `gorm:"not null;index" json:"start_time"`
	EndTime   *time.Time `json:"end_time"`

	Duration      *int     `json:"duration"`       // seconds
	Distance      *float64 `json:"distance"`       // meters
	ElevationGain *float64 `json:"elevation_gain"` // meters
	Calories      *int     `json:"calories"`
	AvgHeartRate  *int     `json:"avg_heart_rate"`
	MaxHeartRate  *int     `json:"max_heart_rate"`
	AvgPower      *int     `json:"avg_power"`
	MaxPower      *int     `json:"max_power"`
	AvgPace       *float64 `json:"avg_pace"`  // seconds per km
	AvgSpeed      *float64 `json:"avg_speed"` // km/h

	ActivityData string `gorm:"type:text;default:'{}'" json:"activity_data"` // Provider-specific extras as JSON

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsImported reports whether the activity came from a provider sync
func (a *Activity) IsImported() bool {
	return a.ConnectionID != nil && a.ExternalID != nil
}

func (Activity) TableName() string {
	return "activities"
}
