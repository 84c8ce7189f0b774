package services

import (
	"context"

	"github.com/dmitrijs2005/classdocs/internal/common"
	"github.com/dmitrijs2005/classdocs/internal/server/catalog"
	"github.com/dmitrijs2005/classdocs/internal/server/models"
)

// AccessPolicy answers who may touch a container. A personal list belongs
// to its user alone; a classroom is managed by its teacher and readable by
// the teacher and enrolled students.
type AccessPolicy struct {
	catalog catalog.Catalog
}

func NewAccessPolicy(cat catalog.Catalog) *AccessPolicy {
	return &AccessPolicy{catalog: cat}
}

func (p *AccessPolicy) CanManage(ctx context.Context, callerID string, owner models.Owner) (bool, error) {
	switch owner.Kind {
	case models.OwnerUser:
		return callerID != "" && callerID == owner.ID, nil
	case models.OwnerClassroom:
		c, err := p.classroom(ctx, owner.ID)
		if err != nil {
			return false, err
		}
		return c.TeacherID == callerID, nil
	}
	return false, common.ErrInvalidInput
}

func (p *AccessPolicy) CanRead(ctx context.Context, callerID string, owner models.Owner) (bool, error) {
	switch owner.Kind {
	case models.OwnerUser:
		return callerID != "" && callerID == owner.ID, nil
	case models.OwnerClassroom:
		c, err := p.classroom(ctx, owner.ID)
		if err != nil {
			return false, err
		}
		return c.TeacherID == callerID || c.HasStudent(callerID), nil
	}
	return false, common.ErrInvalidInput
}

func (p *AccessPolicy) classroom(ctx context.Context, id string) (*models.Classroom, error) {
	if err := validateID("classroom", id); err != nil {
		return nil, err
	}
	return p.catalog.GetClassroom(ctx, id)
}

// RequireManage turns a negative CanManage answer into common.ErrForbidden.
func (p *AccessPolicy) RequireManage(ctx context.Context, callerID string, owner models.Owner) error {
	ok, err := p.CanManage(ctx, callerID, owner)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrForbidden
	}
	return nil
}

// RequireRead turns a negative CanRead answer into common.ErrForbidden.
func (p *AccessPolicy) RequireRead(ctx context.Context, callerID string, owner models.Owner) error {
	ok, err := p.CanRead(ctx, callerID, owner)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrForbidden
	}
	return nil
}
