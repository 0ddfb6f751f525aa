package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/analyticsPapy/trainlytics-app/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// terminalSyncStatuses are the states CompleteSync accepts.
var terminalSyncStatuses = map[string]struct{}{
	models.SyncStatusSuccess: {},
	models.SyncStatusFailed:  {},
	models.SyncStatusPartial: {},
}

// StartSync opens a sync attempt for the connection and returns its id.
// The partial unique index on (connection_id) WHERE completed IS NULL
// makes a second concurrent start fail with ErrSyncAlreadyRunning
// regardless of how many replicas are serving requests.
func (s *Store) StartSync(connectionID string) (string, error) {
	record := models.SyncHistory{
		ID:            uuid.New().String(),
		ConnectionID:  connectionID,
		SyncStartedAt: time.Now(),
		SyncStatus:    models.SyncStatusRunning,
		ErrorDetails:  "{}",
	}

	if err := s.db.Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", ErrSyncAlreadyRunning
		}
		return "", fmt.Errorf("failed to start sync: %w", err)
	}
	return record.ID, nil
}

// CompleteSync transitions a running sync to a terminal status with its
// final counters. Completing an already-terminal record is a programming
// error and returns ErrSyncAlreadyCompleted; it never silently no-ops.
func (s *Store) CompleteSync(syncID, status string, counts models.SyncCounts, errorMessage *string, errorDetails string) (*models.SyncHistory, error) {
	if _, ok := terminalSyncStatuses[status]; !ok {
		return nil, fmt.Errorf("invalid terminal sync status %q", status)
	}
	if errorDetails == "" {
		errorDetails = "{}"
	}

	res := s.db.Model(&models.SyncHistory{}).
		Where("id = ? AND sync_completed_at IS NULL", syncID).
		Updates(map[string]any{
			"sync_completed_at":   time.Now(),
			"sync_status":         status,
			"activities_fetched":  counts.Fetched,
			"activities_created":  counts.Created,
			"activities_updated":  counts.Updated,
			"activities_skipped":  counts.Skipped,
			"error_message":       errorMessage,
			"error_details":       errorDetails,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Either the record is gone or it already reached a terminal
		// state; distinguish for the caller.
		var existing models.SyncHistory
		if err := s.db.Where("id = ?", syncID).First(&existing).Error; err != nil {
			return nil, translateNotFound(err)
		}
		return nil, ErrSyncAlreadyCompleted
	}

	var record models.SyncHistory
	if err := s.db.Where("id = ?", syncID).First(&record).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &record, nil
}

// GetSyncHistory returns the most recent attempts, newest first.
func (s *Store) GetSyncHistory(connectionID string, limit int) ([]models.SyncHistory, error) {
	if limit <= 0 {
		limit = 10
	}

	var records []models.SyncHistory
	err := s.db.Where("connection_id = ?", connectionID).
		Order("sync_started_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// GetLatestSync returns the most recent attempt regardless of status.
func (s *Store) GetLatestSync(connectionID string) (*models.SyncHistory, error) {
	var record models.SyncHistory
	err := s.db.Where("connection_id = ?", connectionID).
		Order("sync_started_at DESC").
		First(&record).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &record, nil
}

// ReconcileAbandonedSyncs force-fails running records older than maxAge.
// A crashed replica leaves its sync open; without this pass the open-sync
// index would block the connection forever. Returns the number of records
// reconciled.
func (s *Store) ReconcileAbandonedSyncs(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)
	msg := fmt.Sprintf("sync abandoned: still running after %s", maxAge)

	res := s.db.Model(&models.SyncHistory{}).
		Where("sync_status = ? AND sync_completed_at IS NULL AND sync_started_at < ?",
			models.SyncStatusRunning, cutoff).
		Updates(map[string]any{
			"sync_completed_at": time.Now(),
			"sync_status":       models.SyncStatusFailed,
			"error_message":     msg,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
