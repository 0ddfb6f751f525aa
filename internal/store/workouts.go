package store

import (
	"fmt"
	"time"

	"github.com/analyticsPapy/trainlytics-app/internal/models"

	"github.com/google/uuid"
)

// WorkoutFilter narrows ListWorkouts. Zero values mean "no filter".
type WorkoutFilter struct {
	Completed *bool
	StartDate *time.Time
	EndDate   *time.Time
	Offset    int
	Limit     int
}

// ListWorkouts returns a user's workouts ordered by scheduled date.
func (s *Store) ListWorkouts(userID string, f WorkoutFilter) ([]models.Workout, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 100 {
		f.Limit = 100
	}

	query := s.db.Where("user_id = ?", userID)
	if f.Completed != nil {
		if *f.Completed {
			query = query.Where("completed_at IS NOT NULL")
		} else {
			query = query.Where("completed_at IS NULL")
		}
	}
	if f.StartDate != nil {
		query = query.Where("scheduled_date >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		query = query.Where("scheduled_date <= ?", *f.EndDate)
	}

	var workouts []models.Workout
	err := query.Order("scheduled_date ASC").
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&workouts).Error
	if err != nil {
		return nil, err
	}
	return workouts, nil
}

// GetWorkout returns the workout only if it belongs to userID.
func (s *Store) GetWorkout(workoutID, userID string) (*models.Workout, error) {
	var workout models.Workout
	err := s.db.Where("id = ? AND user_id = ?", workoutID, userID).First(&workout).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &workout, nil
}

// CreateWorkout inserts a planned workout.
func (s *Store) CreateWorkout(workout *models.Workout) error {
	if workout.ID == "" {
		workout.ID = uuid.New().String()
	}
	if workout.WorkoutData == "" {
		workout.WorkoutData = "{}"
	}
	if err := s.db.Create(workout).Error; err != nil {
		return fmt.Errorf("failed to create workout: %w", err)
	}
	return nil
}

// WorkoutPatch holds the user-editable fields of a workout.
type WorkoutPatch struct {
	WorkoutName   *string
	WorkoutType   *string
	Description   *string
	ScheduledDate *time.Time
	WorkoutData   *string
}

// UpdateWorkout patches a workout owned by userID.
func (s *Store) UpdateWorkout(workoutID, userID string, patch WorkoutPatch) (*models.Workout, error) {
	updates := map[string]any{}
	if patch.WorkoutName != nil {
		updates["workout_name"] = *patch.WorkoutName
	}
	if patch.WorkoutType != nil {
		updates["workout_type"] = *patch.WorkoutType
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.ScheduledDate != nil {
		updates["scheduled_date"] = *patch.ScheduledDate
	}
	if patch.WorkoutData != nil {
		updates["workout_data"] = *patch.WorkoutData
	}
	if len(updates) == 0 {
		return s.GetWorkout(workoutID, userID)
	}

	res := s.db.Model(&models.Workout{}).
		Where("id = ? AND user_id = ?", workoutID, userID).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return s.GetWorkout(workoutID, userID)
}

// CompleteWorkout marks a workout done, optionally linking the activity
// that fulfilled it.
func (s *Store) CompleteWorkout(workoutID, userID string, activityID *string) (*models.Workout, error) {
	res := s.db.Model(&models.Workout{}).
		Where("id = ? AND user_id = ?", workoutID, userID).
		Updates(map[string]any{
			"completed_at": time.Now(),
			"activity_id":  activityID,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return s.GetWorkout(workoutID, userID)
}

// DeleteWorkout removes a workout owned by userID.
func (s *Store) DeleteWorkout(workoutID, userID string) error {
	res := s.db.Where("id = ? AND user_id = ?", workoutID, userID).
		Delete(&models.Workout{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
