package classrooms

import (
	"context"

	"github.com/dmitrijs2005/classdocs/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, classroom *models.Classroom) (*models.Classroom, error)
	GetByID(ctx context.Context, id string) (*models.Classroom, error)
	GetByJoinCode(ctx context.Context, code string) (*models.Classroom, error)
	AddStudent(ctx context.Context, classroomID, userID string) error
	// LockFiles returns the classroom file list and holds a row lock until
	// the surrounding transaction ends.
	LockFiles(ctx context.Context, id string) ([]models.FileRecord, error)
	SaveFiles(ctx context.Context, id string, files []models.FileRecord) error
	Delete(ctx context.Context, id string) error
}
