package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/classdocs/internal/common"
	"github.com/dmitrijs2005/classdocs/internal/server/models"
	"github.com/moby/locker"
)

// Lock names live in one namespace; the prefixes keep an owner and a storage
// ref from ever sharing a mutex.
func ownerLockName(owner models.Owner) string { return "owner:" + owner.String() }

func refLockName(ref string) string { return "ref:" + ref }

// Memory is a process-local catalog used when no database is configured
// and in tests. Mutations of one container are serialized with a per-name
// mutex; ref counts touched by a mutation stay locked until it ends.
type Memory struct {
	mu         sync.RWMutex
	users      map[string]*models.User
	classrooms map[string]*models.Classroom
	joinCodes  map[string]string
	refs       map[string]int64

	locks *locker.Locker
}

func NewMemory() *Memory {
	return &Memory{
		users:      make(map[string]*models.User),
		classrooms: make(map[string]*models.Classroom),
		joinCodes:  make(map[string]string),
		refs:       make(map[string]int64),
		locks:      locker.New(),
	}
}

func cloneUser(u *models.User) *models.User {
	cp := *u
	cp.PersonalNotes = append([]models.FileRecord{}, u.PersonalNotes...)
	return &cp
}

func cloneClassroom(c *models.Classroom) *models.Classroom {
	cp := *c
	cp.Students = append([]string{}, c.Students...)
	cp.Files = append([]models.FileRecord{}, c.Files...)
	return &cp
}

func (m *Memory) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.ID]; ok {
		return nil, common.ErrConflict
	}
	stored := cloneUser(user)
	stored.PersonalNotes = []models.FileRecord{}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	m.users[stored.ID] = stored
	return cloneUser(stored), nil
}

func (m *Memory) GetUser(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneUser(u), nil
}

func (m *Memory) CreateClassroom(_ context.Context, classroom *models.Classroom) (*models.Classroom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.classrooms[classroom.ID]; ok {
		return nil, common.ErrConflict
	}
	if _, ok := m.joinCodes[classroom.JoinCode]; ok {
		return nil, common.ErrConflict
	}
	stored := cloneClassroom(classroom)
	stored.Students = []string{}
	stored.Files = []models.FileRecord{}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	m.classrooms[stored.ID] = stored
	m.joinCodes[stored.JoinCode] = stored.ID
	return cloneClassroom(stored), nil
}

func (m *Memory) GetClassroom(_ context.Context, id string) (*models.Classroom, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.classrooms[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneClassroom(c), nil
}

func (m *Memory) FindClassroomByJoinCode(ctx context.Context, code string) (*models.Classroom, error) {
	m.mu.RLock()
	id, ok := m.joinCodes[code]
	m.mu.RUnlock()
	if !ok {
		return nil, common.ErrorNotFound
	}
	return m.GetClassroom(ctx, id)
}

func (m *Memory) AddStudent(_ context.Context, classroomID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.classrooms[classroomID]
	if !ok {
		return common.ErrorNotFound
	}
	if !c.HasStudent(userID) {
		c.Students = append(c.Students, userID)
	}
	return nil
}

func (m *Memory) Records(_ context.Context, owner models.Owner) ([]models.FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records, err := m.recordsLocked(owner)
	if err != nil {
		return nil, err
	}
	return append([]models.FileRecord{}, records...), nil
}

// recordsLocked expects m.mu to be held.
func (m *Memory) recordsLocked(owner models.Owner) ([]models.FileRecord, error) {
	switch owner.Kind {
	case models.OwnerUser:
		if u, ok := m.users[owner.ID]; ok {
			return u.PersonalNotes, nil
		}
		return nil, common.ErrorNotFound
	case models.OwnerClassroom:
		if c, ok := m.classrooms[owner.ID]; ok {
			return c.Files, nil
		}
		return nil, common.ErrorNotFound
	}
	return nil, fmt.Errorf("unknown owner kind %q: %w", owner.Kind, common.ErrInvalidInput)
}

func (m *Memory) RefCount(_ context.Context, ref string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refs[ref], nil
}

func (m *Memory) Mutate(ctx context.Context, owner models.Owner, fn func(ctx context.Context, m Mutation) error) error {
	name := ownerLockName(owner)
	m.locks.Lock(name)
	defer m.locks.Unlock(name)

	m.mu.RLock()
	records, err := m.recordsLocked(owner)
	m.mu.RUnlock()
	if err != nil {
		return err
	}

	mm := &memMutation{
		store: m,
		owner: owner,
		list:  newRecordList(records),
		delta: make(map[string]int64),
		fresh: make(map[string]struct{}),
		held:  make(map[string]struct{}),
	}
	defer mm.release()

	if err := fn(ctx, mm); err != nil {
		return err
	}
	mm.commit()
	return nil
}

type memMutation struct {
	store   *Memory
	owner   models.Owner
	list    *recordList
	delta   map[string]int64
	fresh   map[string]struct{}
	held    map[string]struct{}
	dropped bool
}

func (mm *memMutation) lockRef(ref string) {
	if _, ok := mm.held[ref]; ok {
		return
	}
	mm.store.locks.Lock(refLockName(ref))
	mm.held[ref] = struct{}{}
}

func (mm *memMutation) release() {
	for ref := range mm.held {
		mm.store.locks.Unlock(refLockName(ref))
	}
}

// count is the committed count plus what this mutation staged.
func (mm *memMutation) count(ref string) int64 {
	mm.store.mu.RLock()
	n := mm.store.refs[ref]
	mm.store.mu.RUnlock()
	return n + mm.delta[ref]
}

func (mm *memMutation) Records() []models.FileRecord { return mm.list.snapshot() }

func (mm *memMutation) Find(recordID string) (models.FileRecord, bool) { return mm.list.find(recordID) }

func (mm *memMutation) Append(rec models.FileRecord) (models.FileRecord, error) {
	mm.lockRef(rec.StorageRef)
	if _, ok := mm.fresh[rec.StorageRef]; ok || mm.count(rec.StorageRef) > 0 {
		return models.FileRecord{}, common.ErrConflict
	}
	mm.fresh[rec.StorageRef] = struct{}{}
	mm.delta[rec.StorageRef]++
	return mm.list.add(rec), nil
}

func (mm *memMutation) Share(rec models.FileRecord) (models.FileRecord, error) {
	mm.lockRef(rec.StorageRef)
	if mm.count(rec.StorageRef) <= 0 {
		return models.FileRecord{}, common.ErrorNotFound
	}
	mm.delta[rec.StorageRef]++
	return mm.list.add(rec), nil
}

func (mm *memMutation) Rename(recordID, newName string) (models.FileRecord, error) {
	return mm.list.rename(recordID, newName)
}

func (mm *memMutation) Remove(recordID string) (int64, error) {
	rec, err := mm.list.remove(recordID)
	if err != nil {
		return 0, err
	}
	mm.lockRef(rec.StorageRef)
	mm.delta[rec.StorageRef]--
	return max(mm.count(rec.StorageRef), 0), nil
}

func (mm *memMutation) RefCount(ref string) (int64, error) {
	mm.lockRef(ref)
	return mm.count(ref), nil
}

func (mm *memMutation) DropContainer() error {
	if mm.owner.Kind != models.OwnerClassroom {
		return fmt.Errorf("only classrooms can be dropped: %w", common.ErrInvalidInput)
	}
	mm.dropped = true
	return nil
}

func (mm *memMutation) commit() {
	s := mm.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for ref, d := range mm.delta {
		if n := s.refs[ref] + d; n > 0 {
			s.refs[ref] = n
		} else {
			delete(s.refs, ref)
		}
	}

	switch mm.owner.Kind {
	case models.OwnerUser:
		if u, ok := s.users[mm.owner.ID]; ok && mm.list.dirty {
			u.PersonalNotes = mm.list.records
		}
	case models.OwnerClassroom:
		c, ok := s.classrooms[mm.owner.ID]
		if !ok {
			return
		}
		if mm.dropped {
			delete(s.joinCodes, c.JoinCode)
			delete(s.classrooms, c.ID)
			return
		}
		if mm.list.dirty {
			c.Files = mm.list.records
		}
	}
}
