package services

import (
	"fmt"

	"github.com/analyticsPapy/trainlytics-app/internal/models"
	"github.com/analyticsPapy/trainlytics-app/internal/store"
)

var validUserTypes = map[string]struct{}{
	models.UserTypeAthlete: {},
	models.UserTypeCoach:   {},
	models.UserTypePro:     {},
	models.UserTypeLab:     {},
}

// UserService manages local profile rows. Identity lives with the
// external auth provider; this service only mirrors it.
type UserService struct {
	store *store.Store
}

func NewUserService(s *store.Store) *UserService {
	return &UserService{store: s}
}

// Ensure creates the profile row on first contact and returns it.
func (s *UserService) Ensure(userID, email string) (*models.User, error) {
	user, err := s.store.EnsureUser(userID, email)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return user, nil
}

// Get returns the user's profile.
func (s *UserService) Get(userID string) (*models.User, error) {
	user, err := s.store.GetUserByID(userID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return user, nil
}

// Update patches the user's own profile.
func (s *UserService) Update(userID string, patch store.UserPatch) (*models.User, error) {
	if patch.UserType != nil {
		if _, ok := validUserTypes[*patch.UserType]; !ok {
			return nil, fmt.Errorf("%w: invalid user_type %q", ErrValidation, *patch.UserType)
		}
	}

	user, err := s.store.UpdateUser(userID, patch)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return user, nil
}
