package model

import "time"

// EmailAddress is a validated, lower-cased email address
type EmailAddress string

// ProfileImage is either DefaultProfileImage or an inline PNG data URL
type ProfileImage string

const (
	// DefaultProfileImage is the sentinel for "no custom image"
	DefaultProfileImage ProfileImage = "default"

	// ProfileImagePrefix is the only accepted data URL prefix
	ProfileImagePrefix = "data:image/png;base64,"

	// MaxProfileImageLength bounds the inline data URL
	MaxProfileImageLength = 100_000

	// DefaultUserName is given to accounts created by a first login
	DefaultUserName = "Anonymous"

	// DefaultTimezone is used until the user picks one
	DefaultTimezone = "UTC"
)

// User represents a user account
type User struct {
	ID                 UserID       `json:"id"`
	Name               string       `json:"name"`
	Description        string       `json:"description"`
	Email              EmailAddress `json:"email"`
	ProfileImage       ProfileImage `json:"profile_image"`
	Timezone           string       `json:"timezone"`
	EmailNotifications bool         `json:"email_notifications"`
	CreatedOn          time.Time    `json:"created_on"`
}

// NewUser creates the account a first login with an unknown email produces
func NewUser(id UserID, email EmailAddress, now time.Time) User {
	return User{
		ID:                 id,
		Name:               DefaultUserName,
		Email:              email,
		ProfileImage:       DefaultProfileImage,
		Timezone:           DefaultTimezone,
		EmailNotifications: true,
		CreatedOn:          now,
	}
}

// IsDefault reports whether the image is the default sentinel
func (p ProfileImage) IsDefault() bool {
	return p == DefaultProfileImage || p == ""
}
