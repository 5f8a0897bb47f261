package model

import "fmt"

// User represents a registered account. A user owns items, locations and
// tags; nothing is shared between users.
type User struct {
	ID             int64  `json:"id"`
	Email          string `json:"email"`
	HashedPassword string `json:"-"`
	Settings       string `json:"settings"`
	IsActive       bool   `json:"is_active"`
	CreationDate   Date   `json:"creation_date"`

	// Populated for the /users/me response.
	Locations []Location `json:"locations"`
	Tags      []Tag      `json:"tags"`
}

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// ValidatePassword checks password requirements at registration.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
