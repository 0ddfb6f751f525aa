package services

import (
	"fmt"
	"time"

	"github.com/analyticsPapy/trainlytics-app/internal/models"
	"github.com/analyticsPapy/trainlytics-app/internal/store"
)

// ActivityCreate carries a manually logged activity.
type ActivityCreate struct {
	ActivityType  string     `json:"activity_type" binding:"required"`
	ActivityName  string     `json:"activity_name"`
	StartTime     time.Time  `json:"start_time" binding:"required"`
	EndTime       *time.Time `json:"end_time"`
	Duration      *int       `json:"duration"`
	Distance      *float64   `json:"distance"`
	ElevationGain *float64   `json:"elevation_gain"`
	Calories      *int       `json:"calories"`
	AvgHeartRate  *int       `json:"avg_heart_rate"`
	MaxHeartRate  *int       `json:"max_heart_rate"`
	AvgPower      *int       `json:"avg_power"`
	MaxPower      *int       `json:"max_power"`
	AvgPace       *float64   `json:"avg_pace"`
	AvgSpeed      *float64   `json:"avg_speed"`
	ActivityData  string     `json:"activity_data"`
}

// TypeStats aggregates one activity type inside ActivityStats.
type TypeStats struct {
	Count    int     `json:"count"`
	Distance float64 `json:"distance"`
	Duration int     `json:"duration"`
}

// ActivityStats is the aggregated summary payload.
type ActivityStats struct {
	TotalActivities      int                  `json:"total_activities"`
	TotalDistanceMeters  float64              `json:"total_distance_meters"`
	TotalDurationSeconds int                  `json:"total_duration_seconds"`
	TotalCalories        int                  `json:"total_calories"`
	TotalElevationMeters float64              `json:"total_elevation_meters"`
	ActivitiesByType     map[string]TypeStats `json:"activities_by_type"`
}

// ActivityService manages manual and imported activities.
type ActivityService struct {
	store *store.Store
}

func NewActivityService(s *store.Store) *ActivityService {
	return &ActivityService{store: s}
}

// List returns a page of the user's activities.
func (s *ActivityService) List(userID string, filter store.ActivityFilter) ([]models.Activity, error) {
	return s.store.ListActivities(userID, filter)
}

// Get returns one activity the user owns.
func (s *ActivityService) Get(activityID, userID string) (*models.Activity, error) {
	activity, err := s.store.GetActivity(activityID, userID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return activity, nil
}

// Create logs a manual activity.
func (s *ActivityService) Create(userID string, in ActivityCreate) (*models.Activity, error) {
	if in.ActivityType == "" {
		return nil, fmt.Errorf("%w: activity_type is required", ErrValidation)
	}
	if in.StartTime.IsZero() {
		return nil, fmt.Errorf("%w: start_time is required", ErrValidation)
	}
	if in.EndTime != nil && in.EndTime.Before(in.StartTime) {
		return nil, fmt.Errorf("%w: end_time before start_time", ErrValidation)
	}

	activity := &models.Activity{
		UserID:        userID,
		ActivityType:  in.ActivityType,
		ActivityName:  in.ActivityName,
		StartTime:     in.StartTime,
		EndTime:       in.EndTime,
		Duration:      in.Duration,
		Distance:      in.Distance,
		ElevationGain: in.ElevationGain,
		Calories:      in.Calories,
		AvgHeartRate:  in.AvgHeartRate,
		MaxHeartRate:  in.MaxHeartRate,
		AvgPower:      in.AvgPower,
		MaxPower:      in.MaxPower,
		AvgPace:       in.AvgPace,
		AvgSpeed:      in.AvgSpeed,
		ActivityData:  in.ActivityData,
	}
	if err := s.store.CreateActivity(activity); err != nil {
		return nil, translateStoreErr(err)
	}
	return activity, nil
}

// Update patches an activity's editable fields.
func (s *ActivityService) Update(activityID, userID string, patch store.ActivityPatch) (*models.Activity, error) {
	activity, err := s.store.UpdateActivity(activityID, userID, patch)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return activity, nil
}

// Delete removes an activity the user owns.
func (s *ActivityService) Delete(activityID, userID string) error {
	if err := s.store.DeleteActivity(activityID, userID); err != nil {
		return translateStoreErr(err)
	}
	return nil
}

// Stats aggregates the user's activities over an optional date range.
func (s *ActivityService) Stats(userID string, startDate, endDate *time.Time) (*ActivityStats, error) {
	activities, err := s.store.ListActivitiesForStats(userID, startDate, endDate)
	if err != nil {
		return nil, err
	}

	stats := &ActivityStats{
		TotalActivities:  len(activities),
		ActivitiesByType: map[string]TypeStats{},
	}
	for i := range activities {
		a := &activities[i]

		var distance float64
		if a.Distance != nil {
			distance = *a.Distance
		}
		var duration int
		if a.Duration != nil {
			duration = *a.Duration
		}

		stats.TotalDistanceMeters += distance
		stats.TotalDurationSeconds += duration
		if a.Calories != nil {
			stats.TotalCalories += *a.Calories
		}
		if a.ElevationGain != nil {
			stats.TotalElevationMeters += *a.ElevationGain
		}

		byType := stats.ActivitiesByType[a.ActivityType]
		byType.Count++
		byType.Distance += distance
		byType.Duration += duration
		stats.ActivitiesByType[a.ActivityType] = byType
	}
	return stats, nil
}
