package users

import "time"

// User is a registered customer. PasswordHash is a bcrypt hash and never
// leaves the service.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
