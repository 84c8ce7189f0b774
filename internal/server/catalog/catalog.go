// Package catalog persists users, classrooms and the file-record lists they
// own, together with the per-blob reference counts.
//
// Every change to a record list goes through Mutate, which serializes
// mutations of one container and applies the list change and the matching
// reference-count change as a unit.
package catalog

import (
	"context"

	"github.com/dmitrijs2005/classdocs/internal/server/models"
)

type Catalog interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	CreateClassroom(ctx context.Context, classroom *models.Classroom) (*models.Classroom, error)
	GetClassroom(ctx context.Context, id string) (*models.Classroom, error)
	FindClassroomByJoinCode(ctx context.Context, code string) (*models.Classroom, error)
	AddStudent(ctx context.Context, classroomID, userID string) error

	// Records returns a snapshot of the owner's list in insertion order.
	Records(ctx context.Context, owner models.Owner) ([]models.FileRecord, error)
	// Mutate runs fn with exclusive access to the owner's list. Changes made
	// through the Mutation are kept only if fn returns nil.
	Mutate(ctx context.Context, owner models.Owner, fn func(ctx context.Context, m Mutation) error) error
	// RefCount reports how many records point at ref; 0 means none.
	RefCount(ctx context.Context, ref string) (int64, error)
}

// Mutation is the view of one locked container handed to Mutate callbacks.
type Mutation interface {
	Records() []models.FileRecord
	Find(recordID string) (models.FileRecord, bool)
	// Append adds a record for a freshly stored blob and registers its
	// storage ref with a count of one. The ref must not be registered yet.
	Append(rec models.FileRecord) (models.FileRecord, error)
	// Share adds a record pointing at an already registered blob and bumps
	// its count. Fails with common.ErrorNotFound if the ref is not live.
	Share(rec models.FileRecord) (models.FileRecord, error)
	Rename(recordID, newName string) (models.FileRecord, error)
	// Remove drops the record and one reference to its blob, returning the
	// references left.
	Remove(recordID string) (int64, error)
	// RefCount reads the count for ref and keeps it locked until the
	// mutation ends, so a concurrent Share of the same ref waits.
	RefCount(ref string) (int64, error)
	// DropContainer deletes the owning classroom once the mutation commits.
	DropContainer() error
}
