package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/classdocs/internal/common"
	"github.com/dmitrijs2005/classdocs/internal/dbx"
	"github.com/dmitrijs2005/classdocs/internal/server/models"
	"github.com/dmitrijs2005/classdocs/internal/server/repositories/blobrefs"
	"github.com/dmitrijs2005/classdocs/internal/server/repositories/repomanager"
)

// Postgres keeps the catalog in PostgreSQL. Container mutations run in one
// transaction holding a row lock on the owning users/classrooms row.
type Postgres struct {
	db *sql.DB
	rm repomanager.RepositoryManager
}

func NewPostgres(db *sql.DB, rm repomanager.RepositoryManager) *Postgres {
	return &Postgres{db: db, rm: rm}
}

func (p *Postgres) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	return p.rm.Users(p.db).Create(ctx, user)
}

func (p *Postgres) GetUser(ctx context.Context, id string) (*models.User, error) {
	return p.rm.Users(p.db).GetByID(ctx, id)
}

func (p *Postgres) CreateClassroom(ctx context.Context, classroom *models.Classroom) (*models.Classroom, error) {
	return p.rm.Classrooms(p.db).Create(ctx, classroom)
}

func (p *Postgres) GetClassroom(ctx context.Context, id string) (*models.Classroom, error) {
	return p.rm.Classrooms(p.db).GetByID(ctx, id)
}

func (p *Postgres) FindClassroomByJoinCode(ctx context.Context, code string) (*models.Classroom, error) {
	return p.rm.Classrooms(p.db).GetByJoinCode(ctx, code)
}

func (p *Postgres) AddStudent(ctx context.Context, classroomID, userID string) error {
	return p.rm.Classrooms(p.db).AddStudent(ctx, classroomID, userID)
}

func (p *Postgres) Records(ctx context.Context, owner models.Owner) ([]models.FileRecord, error) {
	switch owner.Kind {
	case models.OwnerUser:
		u, err := p.GetUser(ctx, owner.ID)
		if err != nil {
			return nil, err
		}
		return u.PersonalNotes, nil
	case models.OwnerClassroom:
		c, err := p.GetClassroom(ctx, owner.ID)
		if err != nil {
			return nil, err
		}
		return c.Files, nil
	}
	return nil, fmt.Errorf("unknown owner kind %q: %w", owner.Kind, common.ErrInvalidInput)
}

func (p *Postgres) RefCount(ctx context.Context, ref string) (int64, error) {
	return p.rm.BlobRefs(p.db).Count(ctx, ref)
}

func (p *Postgres) Mutate(ctx context.Context, owner models.Owner, fn func(ctx context.Context, m Mutation) error) error {
	if owner.Kind != models.OwnerUser && owner.Kind != models.OwnerClassroom {
		return fmt.Errorf("unknown owner kind %q: %w", owner.Kind, common.ErrInvalidInput)
	}

	return dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var (
			records []models.FileRecord
			err     error
		)
		if owner.Kind == models.OwnerUser {
			records, err = p.rm.Users(tx).LockNotes(ctx, owner.ID)
		} else {
			records, err = p.rm.Classrooms(tx).LockFiles(ctx, owner.ID)
		}
		if err != nil {
			return err
		}

		m := &pgMutation{
			ctx:   ctx,
			owner: owner,
			list:  newRecordList(records),
			refs:  p.rm.BlobRefs(tx),
		}
		if err := fn(ctx, m); err != nil {
			return err
		}

		switch {
		case m.dropped:
			return p.rm.Classrooms(tx).Delete(ctx, owner.ID)
		case !m.list.dirty:
			return nil
		case owner.Kind == models.OwnerUser:
			return p.rm.Users(tx).SaveNotes(ctx, owner.ID, m.list.records)
		default:
			return p.rm.Classrooms(tx).SaveFiles(ctx, owner.ID, m.list.records)
		}
	})
}

type pgMutation struct {
	ctx     context.Context
	owner   models.Owner
	list    *recordList
	refs    blobrefs.Repository
	dropped bool
}

func (m *pgMutation) Records() []models.FileRecord { return m.list.snapshot() }

func (m *pgMutation) Find(recordID string) (models.FileRecord, bool) { return m.list.find(recordID) }

func (m *pgMutation) Append(rec models.FileRecord) (models.FileRecord, error) {
	if err := m.refs.Insert(m.ctx, rec.StorageRef); err != nil {
		return models.FileRecord{}, err
	}
	return m.list.add(rec), nil
}

func (m *pgMutation) Share(rec models.FileRecord) (models.FileRecord, error) {
	if err := m.refs.Increment(m.ctx, rec.StorageRef); err != nil {
		return models.FileRecord{}, err
	}
	return m.list.add(rec), nil
}

func (m *pgMutation) Rename(recordID, newName string) (models.FileRecord, error) {
	return m.list.rename(recordID, newName)
}

func (m *pgMutation) Remove(recordID string) (int64, error) {
	rec, err := m.list.remove(recordID)
	if err != nil {
		return 0, err
	}
	return m.refs.Decrement(m.ctx, rec.StorageRef)
}

func (m *pgMutation) RefCount(ref string) (int64, error) {
	return m.refs.Lock(m.ctx, ref)
}

func (m *pgMutation) DropContainer() error {
	if m.owner.Kind != models.OwnerClassroom {
		return fmt.Errorf("only classrooms can be dropped: %w", common.ErrInvalidInput)
	}
	m.dropped = true
	return nil
}
