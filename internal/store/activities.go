package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/analyticsPapy/trainlytics-app/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityFilter narrows ListActivities. Zero values mean "no filter".
type ActivityFilter struct {
	ActivityType string
	StartDate    *time.Time
	EndDate      *time.Time
	Offset       int
	Limit        int
}

// ListActivities returns a user's activities newest-first with optional
// type and date-range filters.
func (s *Store) ListActivities(userID string, f ActivityFilter) ([]models.Activity, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 100 {
		f.Limit = 100
	}

	query := s.db.Where("user_id = ?", userID)
	if f.ActivityType != "" {
		query = query.Where("activity_type = ?", f.ActivityType)
	}
	if f.StartDate != nil {
		query = query.Where("start_time >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		query = query.Where("start_time <= ?", *f.EndDate)
	}

	var activities []models.Activity
	err := query.Order("start_time DESC").
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&activities).Error
	if err != nil {
		return nil, err
	}
	return activities, nil
}

// GetActivity returns the activity only if it belongs to userID.
func (s *Store) GetActivity(activityID, userID string) (*models.Activity, error) {
	var activity models.Activity
	err := s.db.Where("id = ? AND user_id = ?", activityID, userID).First(&activity).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &activity, nil
}

// CreateActivity inserts a manually entered activity.
func (s *Store) CreateActivity(activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}
	if activity.ActivityData == "" {
		activity.ActivityData = "{}"
	}
	if err := s.db.Create(activity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateActivity
		}
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

// ImportOutcome tells the sync loop what happened to one imported row.
type ImportOutcome int

const (
	ImportCreated ImportOutcome = iota
	ImportUpdated
)

// UpsertExternalActivity inserts an imported activity or, when the
// (connection_id, external_id) pair already exists, refreshes the stored
// metrics in place. Insert-first keeps the dedup decision inside the
// unique constraint instead of a racy read-then-write.
func (s *Store) UpsertExternalActivity(activity *models.Activity) (ImportOutcome, error) {
	if activity.ConnectionID == nil || activity.ExternalID == nil ||
		*activity.ConnectionID == "" || *activity.ExternalID == "" {
		return 0, fmt.Errorf("external activity requires connection and external id")
	}
	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}
	if activity.ActivityData == "" {
		activity.ActivityData = "{}"
	}

	err := s.db.Create(activity).Error
	if err == nil {
		return ImportCreated, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return 0, fmt.Errorf("failed to import activity: %w", err)
	}

	res := s.db.Model(&models.Activity{}).
		Where("connection_id = ? AND external_id = ?", *activity.ConnectionID, *activity.ExternalID).
		Updates(map[string]any{
			"activity_type":  activity.ActivityType,
			"activity_name":  activity.ActivityName,
			"start_time":     activity.StartTime,
			"end_time":       activity.EndTime,
			"duration":       activity.Duration,
			"distance":       activity.Distance,
			"elevation_gain": activity.ElevationGain,
			"calories":       activity.Calories,
			"avg_heart_rate": activity.AvgHeartRate,
			"max_heart_rate": activity.MaxHeartRate,
			"avg_power":      activity.AvgPower,
			"max_power":      activity.MaxPower,
			"avg_pace":       activity.AvgPace,
			"avg_speed":      activity.AvgSpeed,
			"activity_data":  activity.ActivityData,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrRecordNotFound
	}
	return ImportUpdated, nil
}

// ActivityPatch holds the user-editable fields of an activity.
type ActivityPatch struct {
	ActivityName *string
	ActivityData *string
}

// UpdateActivity patches an activity owned by userID.
func (s *Store) UpdateActivity(activityID, userID string, patch ActivityPatch) (*models.Activity, error) {
	updates := map[string]any{}
	if patch.ActivityName != nil {
		updates["activity_name"] = *patch.ActivityName
	}
	if patch.ActivityData != nil {
		updates["activity_data"] = *patch.ActivityData
	}
	if len(updates) == 0 {
		return s.GetActivity(activityID, userID)
	}

	res := s.db.Model(&models.Activity{}).
		Where("id = ? AND user_id = ?", activityID, userID).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return s.GetActivity(activityID, userID)
}

// DeleteActivity removes an activity owned by userID.
func (s *Store) DeleteActivity(activityID, userID string) error {
	res := s.db.Where("id = ? AND user_id = ?", activityID, userID).
		Delete(&models.Activity{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// ListActivitiesForStats returns every matching activity without
// pagination; the stats endpoint aggregates in memory.
func (s *Store) ListActivitiesForStats(userID string, startDate, endDate *time.Time) ([]models.Activity, error) {
	query := s.db.Where("user_id = ?", userID)
	if startDate != nil {
		query = query.Where("start_time >= ?", *startDate)
	}
	if endDate != nil {
		query = query.Where("start_time <= ?", *endDate)
	}

	var activities []models.Activity
	if err := query.Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}
