package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/analyticsPapy/trainlytics-app/internal/config"
	"github.com/analyticsPapy/trainlytics-app/internal/models"
	"github.com/analyticsPapy/trainlytics-app/internal/providers"
	"github.com/analyticsPapy/trainlytics-app/internal/store"
)

// SyncResult reports one finished sync run.
type SyncResult struct {
	SyncID   string            `json:"sync_id"`
	Provider string            `json:"provider"`
	Status   string            `json:"status"`
	Counts   models.SyncCounts `json:"counts"`
	Error    *string           `json:"error,omitempty"`
}

// SyncStatus is the current-state view for one connection.
type SyncStatus struct {
	ConnectionID  string              `json:"connection_id"`
	Provider      string              `json:"provider"`
	IsActive      bool                `json:"is_active"`
	LastSyncAt    *time.Time          `json:"last_sync_at"`
	LastSyncError *string             `json:"last_sync_error"`
	LatestSync    *models.SyncHistory `json:"latest_sync"`
}

// SyncHistoryPage wraps a page of sync attempts.
type SyncHistoryPage struct {
	ConnectionID string               `json:"connection_id"`
	Provider     string               `json:"provider"`
	TotalRecords int                  `json:"total_records"`
	History      []models.SyncHistory `json:"history"`
}

// SyncRecorder is the slice of the metrics recorder this service needs.
type SyncRecorder interface {
	RecordSync(provider, status string, duration time.Duration, imported int)
}

// SyncService runs activity imports. All cross-replica exclusion comes
// from the store's open-sync constraint; the service itself keeps no
// coordination state.
type SyncService struct {
	store    *store.Store
	registry *providers.Registry
	config   *config.Config
	metrics  SyncRecorder
}

func NewSyncService(
	s *store.Store,
	registry *providers.Registry,
	cfg *config.Config,
	metrics SyncRecorder,
) *SyncService {
	return &SyncService{
		store:    s,
		registry: registry,
		config:   cfg,
		metrics:  metrics,
	}
}

// Run executes one sync for the user's connection: refresh tokens when
// expired, fetch activities since the last sync, and upsert each one.
// The attempt always reaches a terminal status, whatever fails inside.
func (s *SyncService) Run(ctx context.Context, userID, connectionID string) (*SyncResult, error) {
	conn, err := s.store.GetConnection(connectionID, userID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if !conn.IsActive {
		return nil, ErrConnectionInactive
	}

	if !providers.IsImplemented(conn.Provider) {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotImplemented, conn.Provider)
	}
	impl, err := s.registry.Get(conn.Provider)
	if err != nil {
		if errors.Is(err, providers.ErrNotImplemented) {
			return nil, fmt.Errorf("%w: %s", ErrProviderNotImplemented, conn.Provider)
		}
		return nil, err
	}

	// Free connections whose previous run died with its replica, then
	// claim this one.
	if n, err := s.store.ReconcileAbandonedSyncs(s.config.SyncAbandonedAfter); err != nil {
		log.Printf("[Sync] abandoned-sync reconciliation failed: %v", err)
	} else if n > 0 {
		log.Printf("[Sync] reconciled %d abandoned sync(s)", n)
	}

	syncID, err := s.store.StartSync(conn.ID)
	if err != nil {
		return nil, translateStoreErr(err)
	}

	runCtx := ctx
	if s.config.SyncTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.config.SyncTimeout)
		defer cancel()
	}

	started := time.Now()
	result := s.runLocked(runCtx, impl, conn, syncID)

	s.metrics.RecordSync(conn.Provider, result.Status,
		time.Since(started), result.Counts.Created+result.Counts.Updated)
	return result, nil
}

// runLocked does the work between StartSync and terminal completion.
// It never returns an error: every failure path becomes a terminal sync
// record instead, so the open-sync slot is always released.
func (s *SyncService) runLocked(
	ctx context.Context,
	impl providers.Provider,
	conn *models.ProviderConnection,
	syncID string,
) (result *SyncResult) {
	var counts models.SyncCounts
	skippedDetails := map[string]string{}

	fail := func(msg string) *SyncResult {
		return s.complete(conn, syncID, models.SyncStatusFailed, counts, &msg, skippedDetails)
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Sync] panic during sync %s: %v", syncID, r)
			result = fail(fmt.Sprintf("internal error: %v", r))
		}
	}()

	token := providers.Token{
		AccessToken:  conn.AccessToken,
		RefreshToken: conn.RefreshToken,
		ExpiresAt:    conn.TokenExpiresAt,
		Scopes:       conn.Scopes,
	}

	if conn.IsTokenExpired() {
		fresh, err := impl.RefreshTokens(ctx, conn.RefreshToken)
		if err != nil {
			return fail(fmt.Sprintf("token refresh failed: %v", err))
		}
		if err := s.store.UpdateConnectionTokens(conn.ID, fresh.AccessToken, fresh.RefreshToken, fresh.ExpiresAt); err != nil {
			return fail(fmt.Sprintf("failed to persist refreshed tokens: %v", err))
		}
		token = *fresh
	}

	since := time.Now().Add(-s.config.SyncLookback)
	if conn.LastSyncAt != nil && conn.LastSyncAt.After(since) {
		since = *conn.LastSyncAt
	}

	activities, err := impl.FetchActivities(ctx, token, since, s.config.SyncMaxActivities)
	if err != nil {
		return fail(fmt.Sprintf("activity fetch failed: %v", err))
	}
	counts.Fetched = len(activities)

	for _, remote := range activities {
		activity := remoteToActivity(conn, remote)
		outcome, err := s.store.UpsertExternalActivity(activity)
		if err != nil {
			counts.Skipped++
			skippedDetails[remote.ExternalID] = err.Error()
			continue
		}
		switch outcome {
		case store.ImportCreated:
			counts.Created++
		case store.ImportUpdated:
			counts.Updated++
		}
	}

	status := models.SyncStatusSuccess
	var errMsg *string
	if counts.Skipped > 0 {
		status = models.SyncStatusPartial
		msg := fmt.Sprintf("%d of %d activities failed to import", counts.Skipped, counts.Fetched)
		errMsg = &msg
	}
	return s.complete(conn, syncID, status, counts, errMsg, skippedDetails)
}

// complete writes the terminal sync record and mirrors the outcome onto
// the connection.
func (s *SyncService) complete(
	conn *models.ProviderConnection,
	syncID, status string,
	counts models.SyncCounts,
	errMsg *string,
	details map[string]string,
) *SyncResult {
	detailsJSON := "{}"
	if len(details) > 0 {
		if b, err := json.Marshal(details); err == nil {
			detailsJSON = string(b)
		}
	}

	if _, err := s.store.CompleteSync(syncID, status, counts, errMsg, detailsJSON); err != nil {
		// The record is already terminal (e.g. reconciled from under a
		// very slow run); keep the stored outcome and just log.
		log.Printf("[Sync] failed to complete sync %s: %v", syncID, err)
	}

	if err := s.store.UpdateLastSync(conn.ID, time.Now(), errMsg); err != nil {
		log.Printf("[Sync] failed to update connection %s after sync: %v", conn.ID, err)
	}

	return &SyncResult{
		SyncID:   syncID,
		Provider: conn.Provider,
		Status:   status,
		Counts:   counts,
		Error:    errMsg,
	}
}

func remoteToActivity(conn *models.ProviderConnection, remote providers.RemoteActivity) *models.Activity {
	externalID := remote.ExternalID
	data := remote.Raw
	if data == "" {
		data = "{}"
	}
	return &models.Activity{
		UserID:        conn.UserID,
		ConnectionID:  &conn.ID,
		ExternalID:    &externalID,
		ActivityType:  remote.Type,
		ActivityName:  remote.Name,
		StartTime:     remote.StartTime,
		EndTime:       remote.EndTime,
		Duration:      remote.Duration,
		Distance:      remote.Distance,
		ElevationGain: remote.ElevationGain,
		Calories:      remote.Calories,
		AvgHeartRate:  remote.AvgHeartRate,
		MaxHeartRate:  remote.MaxHeartRate,
		AvgPower:      remote.AvgPower,
		MaxPower:      remote.MaxPower,
		AvgPace:       remote.AvgPace,
		AvgSpeed:      remote.AvgSpeed,
		ActivityData:  data,
	}
}

// History returns the most recent sync attempts for a connection the
// user owns.
func (s *SyncService) History(userID, connectionID string, limit int) (*SyncHistoryPage, error) {
	conn, err := s.store.GetConnection(connectionID, userID)
	if err != nil {
		return nil, translateStoreErr(err)
	}

	history, err := s.store.GetSyncHistory(conn.ID, limit)
	if err != nil {
		return nil, err
	}
	return &SyncHistoryPage{
		ConnectionID: conn.ID,
		Provider:     conn.Provider,
		TotalRecords: len(history),
		History:      history,
	}, nil
}

// Status returns the latest sync outcome for a connection the user owns.
func (s *SyncService) Status(userID, connectionID string) (*SyncStatus, error) {
	conn, err := s.store.GetConnection(connectionID, userID)
	if err != nil {
		return nil, translateStoreErr(err)
	}

	latest, err := s.store.GetLatestSync(conn.ID)
	if err != nil && !errors.Is(err, store.ErrRecordNotFound) {
		return nil, err
	}

	return &SyncStatus{
		ConnectionID:  conn.ID,
		Provider:      conn.Provider,
		IsActive:      conn.IsActive,
		LastSyncAt:    conn.LastSyncAt,
		LastSyncError: conn.LastSyncError,
		LatestSync:    latest,
	}, nil
}

// ReconcileAbandoned is the janitor entry point.
func (s *SyncService) ReconcileAbandoned() (int64, error) {
	return s.store.ReconcileAbandonedSyncs(s.config.SyncAbandonedAfter)
}
