package store

import (
	"fmt"

	"github.com/analyticsPapy/trainlytics-app/internal/models"
)

// GetUserByID returns the local profile row for a user id.
func (s *Store) GetUserByID(userID string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

// EnsureUser creates the local profile row for an identity on first
// contact. Identity issuance lives with the external auth provider, so
// the row is created lazily from verified token claims. An existing row
// is returned untouched.
func (s *Store) EnsureUser(userID, email string) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err == nil {
		return user, nil
	}
	if err != ErrRecordNotFound {
		return nil, err
	}

	record := models.User{
		ID:          userID,
		Email:       email,
		UserType:    models.UserTypeAthlete,
		Preferences: "{}",
	}
	if err := s.db.Create(&record).Error; err != nil {
		// Lost a race against a concurrent first request; the row exists now.
		if existing, getErr := s.GetUserByID(userID); getErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &record, nil
}

// UserPatch holds the profile fields a user may edit.
type UserPatch struct {
	FullName    *string
	AvatarURL   *string
	UserType    *string
	Preferences *string
}

// UpdateUser patches the user's own profile.
func (s *Store) UpdateUser(userID string, patch UserPatch) (*models.User, error) {
	updates := map[string]any{}
	if patch.FullName != nil {
		updates["full_name"] = *patch.FullName
	}
	if patch.AvatarURL != nil {
		updates["avatar_url"] = *patch.AvatarURL
	}
	if patch.UserType != nil {
		updates["user_type"] = *patch.UserType
	}
	if patch.Preferences != nil {
		updates["preferences"] = *patch.Preferences
	}
	if len(updates) == 0 {
		return s.GetUserByID(userID)
	}

	res := s.db.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return s.GetUserByID(userID)
}
