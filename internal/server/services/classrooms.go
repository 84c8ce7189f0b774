package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/classdocs/internal/common"
	"github.com/dmitrijs2005/classdocs/internal/server/catalog"
	"github.com/dmitrijs2005/classdocs/internal/server/models"
	"github.com/google/uuid"
)

const (
	joinCodeBytes    = 4
	joinCodeAttempts = 5
)

// ClassroomService creates classrooms and enrolls students by join code.
type ClassroomService struct {
	catalog catalog.Catalog
}

func NewClassroomService(cat catalog.Catalog) *ClassroomService {
	return &ClassroomService{catalog: cat}
}

// Create opens a classroom owned by teacherID. Join code collisions are
// retried with a fresh code a few times.
func (s *ClassroomService) Create(ctx context.Context, teacherID, name string) (*models.Classroom, error) {
	if err := validateID("user", teacherID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("empty classroom name: %w", common.ErrInvalidInput)
	}

	teacher, err := s.catalog.GetUser(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if teacher.Role != models.RoleTeacher {
		return nil, fmt.Errorf("only teachers create classrooms: %w", common.ErrForbidden)
	}

	for range joinCodeAttempts {
		code, err := common.MakeRandHexString(joinCodeBytes)
		if err != nil {
			return nil, fmt.Errorf("%w: join code: %v", common.ErrorInternal, err)
		}

		c, err := s.catalog.CreateClassroom(ctx, &models.Classroom{
			ID:        uuid.NewString(),
			Name:      name,
			TeacherID: teacherID,
			JoinCode:  code,
		})
		if errors.Is(err, common.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("error creating classroom: %w", err)
		}
		return c, nil
	}
	return nil, fmt.Errorf("no free join code after %d attempts: %w", joinCodeAttempts, common.ErrConflict)
}

// Join enrolls a student in the classroom holding code. Joining twice is
// not an error.
func (s *ClassroomService) Join(ctx context.Context, userID, code string) (*models.Classroom, error) {
	if err := validateID("user", userID); err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("empty join code: %w", common.ErrInvalidInput)
	}

	user, err := s.catalog.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleStudent {
		return nil, fmt.Errorf("only students join classrooms: %w", common.ErrForbidden)
	}

	c, err := s.catalog.FindClassroomByJoinCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.catalog.AddStudent(ctx, c.ID, userID); err != nil {
		return nil, err
	}
	return s.catalog.GetClassroom(ctx, c.ID)
}

func (s *ClassroomService) Get(ctx context.Context, id string) (*models.Classroom, error) {
	if err := validateID("classroom", id); err != nil {
		return nil, err
	}
	return s.catalog.GetClassroom(ctx, id)
}
