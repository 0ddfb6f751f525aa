package models

import (
	"time"
)

// Workout is a planned training session. It can later be marked completed
// and linked to the Activity that fulfilled it.
type Workout struct {
	ID     string `gorm:"primaryKey" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`

	WorkoutName string `gorm:"not null" json:"workout_name"`
	WorkoutType string `json:"workout_type"` // "interval", "endurance", "recovery", ...
	Description string `gorm:"type:text" json:"description"`

	ScheduledDate *time.Time `gorm:"index" json:"scheduled_date"`
	CompletedAt   *time.Time `json:"completed_at"`
	ActivityID    *string    `json:"activity_id"` // Activity that completed this workout, if any

	WorkoutData string `gorm:"type:text;default:'{}'" json:"workout_data"` // Structured plan (steps, targets) as JSON

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsCompleted reports whether the workout has been marked done
func (w *Workout) IsCompleted() bool {
	return w.CompletedAt != nil
}

func (Workout) TableName() string {
	return "workouts"
}
