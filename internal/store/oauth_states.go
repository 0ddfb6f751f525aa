package store

import (
	"time"

	"github.com/analyticsPapy/trainlytics-app/internal/models"
	"github.com/analyticsPapy/trainlytics-app/internal/util"

	"github.com/google/uuid"
)

// CreateOAuthState persists the hash of a freshly generated state token.
// The plaintext never touches the database.
func (s *Store) CreateOAuthState(state, userID, provider, redirectURI string, ttl time.Duration) (*models.OAuthState, error) {
	record := models.OAuthState{
		ID:          uuid.New().String(),
		StateHash:   util.SHA256Hex(state),
		UserID:      userID,
		Provider:    provider,
		RedirectURI: redirectURI,
		ExpiresAt:   time.Now().Add(ttl),
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// PeekOAuthStateProvider returns the provider a state belongs to without
// consuming it. Used when the callback arrives without a provider hint.
func (s *Store) PeekOAuthStateProvider(state string) (string, error) {
	var record models.OAuthState
	err := s.db.Select("provider").
		Where("state_hash = ?", util.SHA256Hex(state)).
		First(&record).Error
	if err != nil {
		return "", translateNotFound(err)
	}
	return record.Provider, nil
}

// ConsumeOAuthState marks the state used and returns it. The conditional
// UPDATE makes consumption single-use under concurrent callbacks: exactly
// one caller sees RowsAffected == 1, every other gets ErrStateAlreadyUsed.
// Expiry is checked after consumption so an expired state is burned too.
func (s *Store) ConsumeOAuthState(state string) (*models.OAuthState, error) {
	hash := util.SHA256Hex(state)

	res := s.db.Model(&models.OAuthState{}).
		Where("state_hash = ? AND used_at IS NULL", hash).
		Update("used_at", time.Now())
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var existing models.OAuthState
		if err := s.db.Where("state_hash = ?", hash).First(&existing).Error; err != nil {
			return nil, translateNotFound(err)
		}
		return nil, ErrStateAlreadyUsed
	}

	var record models.OAuthState
	if err := s.db.Where("state_hash = ?", hash).First(&record).Error; err != nil {
		return nil, translateNotFound(err)
	}
	if record.IsExpired() {
		return nil, ErrStateExpired
	}
	return &record, nil
}

// PurgeExpiredOAuthStates removes consumed and expired state rows. Run
// periodically by the janitor job; the rows are garbage once expired.
func (s *Store) PurgeExpiredOAuthStates() (int64, error) {
	res := s.db.Where("expires_at < ? OR used_at IS NOT NULL", time.Now()).
		Delete(&models.OAuthState{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
