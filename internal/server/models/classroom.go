package models

import "time"

type Classroom struct {
	ID        string
	Name      string
	TeacherID string
	JoinCode  string
	// Students holds the ids of enrolled students.
	Students []string
	// Files is the shared scope, kept in insertion order.
	Files     []FileRecord
	CreatedAt time.Time
}

// HasStudent reports whether userID is enrolled.
func (c *Classroom) HasStudent(userID string) bool {
	for _, id := range c.Students {
		if id == userID {
			return true
		}
	}
	return false
}
