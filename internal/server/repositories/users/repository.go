package users

import (
	"context"

	"github.com/dmitrijs2005/classdocs/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// LockNotes returns the personal list and holds a row lock until the
	// surrounding transaction ends.
	LockNotes(ctx context.Context, id string) ([]models.FileRecord, error)
	SaveNotes(ctx context.Context, id string, notes []models.FileRecord) error
}
