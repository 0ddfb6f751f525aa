package services

import (
	"fmt"
	"time"

	"github.com/analyticsPapy/trainlytics-app/internal/models"
	"github.com/analyticsPapy/trainlytics-app/internal/store"
)

// WorkoutCreate carries a planned workout.
type WorkoutCreate struct {
	WorkoutName   string     `json:"workout_name" binding:"required"`
	WorkoutType   string     `json:"workout_type"`
	Description   string     `json:"description"`
	ScheduledDate *time.Time `json:"scheduled_date"`
	WorkoutData   string     `json:"workout_data"`
}

// WorkoutService manages planned training sessions.
type WorkoutService struct {
	store *store.Store
}

func NewWorkoutService(s *store.Store) *WorkoutService {
	return &WorkoutService{store: s}
}

// List returns a page of the user's workouts.
func (s *WorkoutService) List(userID string, filter store.WorkoutFilter) ([]models.Workout, error) {
	return s.store.ListWorkouts(userID, filter)
}

// Get returns one workout the user owns.
func (s *WorkoutService) Get(workoutID, userID string) (*models.Workout, error) {
	workout, err := s.store.GetWorkout(workoutID, userID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return workout, nil
}

// Create plans a new workout.
func (s *WorkoutService) Create(userID string, in WorkoutCreate) (*models.Workout, error) {
	if in.WorkoutName == "" {
		return nil, fmt.Errorf("%w: workout_name is required", ErrValidation)
	}

	workout := &models.Workout{
		UserID:        userID,
		WorkoutName:   in.WorkoutName,
		WorkoutType:   in.WorkoutType,
		Description:   in.Description,
		ScheduledDate: in.ScheduledDate,
		WorkoutData:   in.WorkoutData,
	}
	if err := s.store.CreateWorkout(workout); err != nil {
		return nil, translateStoreErr(err)
	}
	return workout, nil
}

// Update patches a workout's editable fields.
func (s *WorkoutService) Update(workoutID, userID string, patch store.WorkoutPatch) (*models.Workout, error) {
	workout, err := s.store.UpdateWorkout(workoutID, userID, patch)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return workout, nil
}

// Complete marks a workout done. When an activity id is given it must
// belong to the same user before it is linked.
func (s *WorkoutService) Complete(workoutID, userID string, activityID *string) (*models.Workout, error) {
	if activityID != nil {
		if _, err := s.store.GetActivity(*activityID, userID); err != nil {
			return nil, fmt.Errorf("%w: activity not found", ErrValidation)
		}
	}

	workout, err := s.store.CompleteWorkout(workoutID, userID, activityID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return workout, nil
}

// Delete removes a workout the user owns.
func (s *WorkoutService) Delete(workoutID, userID string) error {
	if err := s.store.DeleteWorkout(workoutID, userID); err != nil {
		return translateStoreErr(err)
	}
	return nil
}
