package models

import "time"

// Role of a user in the system.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

type User struct {
	ID   string
	Name string
	Role Role
	// PersonalNotes is kept in upload order.
	PersonalNotes []FileRecord
	CreatedAt     time.Time
}
