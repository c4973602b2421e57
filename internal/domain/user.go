package domain

import "time"

// UserStatus represents lifecycle states for a technician account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is a staff technician account. Technicians author timeline entries
// and are auto-assigned as the responsible party on protocols they open.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
