package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/analyticsPapy/trainlytics-app/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertConnectionParams carries everything the OAuth callback learns
// about a provider account.
type UpsertConnectionParams struct {
	UserID           string
	Provider         string
	ProviderUserID   string
	ProviderUsername string
	ProviderEmail    string
	ProviderProfile  string // JSON blob
	AccessToken      string
	RefreshToken     string
	TokenExpiresAt   time.Time
	Scopes           string
}

// ConnectionPatch holds the optional fields UpdateConnection may change.
// Nil fields are left untouched.
type ConnectionPatch struct {
	AccessToken    *string
	RefreshToken   *string
	TokenExpiresAt *time.Time
	IsActive       *bool
	LastSyncError  *string
}

// ListConnections returns all connections for a user, optionally
// filtered to active ones. Ordered by creation for stable dashboards.
func (s *Store) ListConnections(userID string, activeOnly bool) ([]models.ProviderConnection, error) {
	query := s.db.Where("user_id = ?", userID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var conns []models.ProviderConnection
	if err := query.Order("created_at ASC").Find(&conns).Error; err != nil {
		return nil, err
	}
	return conns, nil
}

// GetConnection returns the connection only if it belongs to userID.
func (s *Store) GetConnection(connectionID, userID string) (*models.ProviderConnection, error) {
	var conn models.ProviderConnection
	err := s.db.Where("id = ? AND user_id = ?", connectionID, userID).First(&conn).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &conn, nil
}

// GetConnectionByID looks up a connection without an ownership check.
// For internal use (sync workers, reconciliation) only.
func (s *Store) GetConnectionByID(connectionID string) (*models.ProviderConnection, error) {
	var conn models.ProviderConnection
	if err := s.db.Where("id = ?", connectionID).First(&conn).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &conn, nil
}

// GetConnectionByProvider returns the user's connection for one provider.
func (s *Store) GetConnectionByProvider(userID, provider string) (*models.ProviderConnection, error) {
	var conn models.ProviderConnection
	err := s.db.Where("user_id = ? AND provider = ?", userID, provider).First(&conn).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &conn, nil
}

// UpsertConnection creates or overwrites the (user, provider) connection
// in a single conditional write keyed on the unique index, so concurrent
// callbacks for the same pair cannot create duplicates: the second writer
// wins. A conflict on the (provider, provider_user_id) index means the
// provider account belongs to a different local user and is rejected.
func (s *Store) UpsertConnection(p UpsertConnectionParams) (*models.ProviderConnection, error) {
	now := time.Now()
	conn := models.ProviderConnection{
		ID:               uuid.New().String(),
		UserID:           p.UserID,
		Provider:         p.Provider,
		ProviderUserID:   p.ProviderUserID,
		ProviderUsername: p.ProviderUsername,
		ProviderEmail:    p.ProviderEmail,
		ProviderProfile:  p.ProviderProfile,
		AccessToken:      p.AccessToken,
		RefreshToken:     p.RefreshToken,
		TokenExpiresAt:   p.TokenExpiresAt,
		Scopes:           p.Scopes,
		IsActive:         true,
		LastSyncAt:       &now,
	}
	if conn.ProviderProfile == "" {
		conn.ProviderProfile = "{}"
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "provider"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"provider_user_id", "provider_username", "provider_email",
			"provider_profile", "access_token", "refresh_token",
			"token_expires_at", "scopes", "is_active", "last_sync_at",
			"updated_at",
		}),
	}).Create(&conn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrProviderAccountLinked
		}
		return nil, fmt.Errorf("failed to upsert connection: %w", err)
	}

	// On conflict-update the generated ID above is discarded; re-read the
	// surviving row so callers always see the canonical record.
	return s.GetConnectionByProvider(p.UserID, p.Provider)
}

// UpdateConnection patches specific fields of a connection owned by
// userID and returns the updated record.
func (s *Store) UpdateConnection(connectionID, userID string, patch ConnectionPatch) (*models.ProviderConnection, error) {
	updates := map[string]any{}
	if patch.AccessToken != nil {
		updates["access_token"] = *patch.AccessToken
	}
	if patch.RefreshToken != nil {
		updates["refresh_token"] = *patch.RefreshToken
	}
	if patch.TokenExpiresAt != nil {
		updates["token_expires_at"] = *patch.TokenExpiresAt
	}
	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
	}
	if patch.LastSyncError != nil {
		updates["last_sync_error"] = *patch.LastSyncError
	}
	if len(updates) == 0 {
		return s.GetConnection(connectionID, userID)
	}

	res := s.db.Model(&models.ProviderConnection{}).
		Where("id = ? AND user_id = ?", connectionID, userID).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return s.GetConnection(connectionID, userID)
}

// UpdateConnectionTokens stores a refreshed token set. Internal path used
// by the sync worker after a provider token refresh.
func (s *Store) UpdateConnectionTokens(connectionID, accessToken, refreshToken string, expiresAt time.Time) error {
	res := s.db.Model(&models.ProviderConnection{}).
		Where("id = ?", connectionID).
		Updates(map[string]any{
			"access_token":     accessToken,
			"refresh_token":    refreshToken,
			"token_expires_at": expiresAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// DeleteConnection removes the connection row. Activities previously
// imported through it are left in place (orphaned, not deleted).
func (s *Store) DeleteConnection(connectionID, userID string) error {
	res := s.db.Where("id = ? AND user_id = ?", connectionID, userID).
		Delete(&models.ProviderConnection{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// CountActiveConnectionsByProvider returns how many active connections
// exist per provider, for the periodic gauge refresh.
func (s *Store) CountActiveConnectionsByProvider() (map[string]int64, error) {
	var rows []struct {
		Provider string
		Count    int64
	}
	err := s.db.Model(&models.ProviderConnection{}).
		Select("provider, COUNT(*) AS count").
		Where("is_active = ?", true).
		Group("provider").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Provider] = row.Count
	}
	return counts, nil
}

// UpdateLastSync records the outcome timestamp of the most recent sync.
// A nil syncErr clears any previous error text.
func (s *Store) UpdateLastSync(connectionID string, at time.Time, syncErr *string) error {
	res := s.db.Model(&models.ProviderConnection{}).
		Where("id = ?", connectionID).
		Updates(map[string]any{
			"last_sync_at":    at,
			"last_sync_error": syncErr,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
