package models

import (
	"time"
)

// User types supported by the platform
const (
	UserTypeAthlete = "athlete"
	UserTypeCoach   = "coach"
	UserTypePro     = "pro"
	UserTypeLab     = "lab"
)

// User is the local profile row for an identity issued by the external
// auth provider. Authentication itself (signup, login, JWT issuance) is
// delegated; this table only mirrors what the API needs for ownership
// checks and display.
type User struct {
	ID       string `gorm:"primaryKey" json:"id"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	FullName string `json:"full_name"`
	// AvatarURL is set from the profile editor or an OAuth provider snapshot
	AvatarURL   string `json:"avatar_url"`
	UserType    string `gorm:"not null;default:'athlete'" json:"user_type"`  // "athlete", "coach", "pro", "lab"
	Preferences string `gorm:"type:text;default:'{}'"     json:"preferences"` // JSON blob of UI preferences

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsCoach returns true if the user manages other athletes' training plans
func (u *User) IsCoach() bool {
	return u.UserType == UserTypeCoach
}

func (User) TableName() string {
	return "users"
}
