package user

import "time"

// User represents a registered user (a student) in the system.
type User struct {
	ID           int64  // ID is assigned by storage on creation and never changes
	Email        string // Email is unique across users
	PasswordHash string // PasswordHash is the bcrypt hash of the user's password
	FirstName    string
	LastName     string
	Grade        string
	Major        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
