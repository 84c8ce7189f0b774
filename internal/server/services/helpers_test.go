package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/dmitrijs2005/classdocs/internal/logging"
	"github.com/dmitrijs2005/classdocs/internal/server/blobstore"
	"github.com/dmitrijs2005/classdocs/internal/server/catalog"
	"github.com/dmitrijs2005/classdocs/internal/server/config"
	"github.com/dmitrijs2005/classdocs/internal/server/models"
	"github.com/dmitrijs2005/classdocs/internal/server/naming"
	"github.com/stretchr/testify/require"
)

// flakyStore fails the chosen operations and passes the rest through.
type flakyStore struct {
	blobstore.Store
	putErr    error
	deleteErr error
}

func (f *flakyStore) Put(ctx context.Context, name string, r io.Reader) error {
	if f.putErr != nil {
		return f.putErr
	}
	return f.Store.Put(ctx, name, r)
}

func (f *flakyStore) Delete(ctx context.Context, name string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.Store.Delete(ctx, name)
}

type fixture struct {
	disk  *blobstore.Disk
	store *flakyStore
	cat   *catalog.Memory
	files *FileService
	users *UserService
	rooms *ClassroomService

	teacher   *models.User
	student   *models.User
	classroom *models.Classroom
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	disk, err := blobstore.NewDisk(t.TempDir(), "http://files.test")
	require.NoError(t, err)

	f := &fixture{
		disk:  disk,
		store: &flakyStore{Store: disk},
		cat:   catalog.NewMemory(),
	}
	cfg := &config.Config{SecretKey: "k", AccessTokenValidityDuration: time.Hour}
	f.files = NewFileService(f.cat, f.store, naming.NewPolicy(), 0, logging.Discard())
	f.users = NewUserService(f.cat, cfg)
	f.rooms = NewClassroomService(f.cat)

	f.teacher, _, err = f.users.Register(ctx, "Ms. Ada", models.RoleTeacher)
	require.NoError(t, err)
	f.student, _, err = f.users.Register(ctx, "Bo", models.RoleStudent)
	require.NoError(t, err)
	f.classroom, err = f.rooms.Create(ctx, f.teacher.ID, "Algebra")
	require.NoError(t, err)
	_, err = f.rooms.Join(ctx, f.student.ID, f.classroom.JoinCode)
	require.NoError(t, err)

	return f
}

func (f *fixture) readShared(t *testing.T, recordID string) []byte {
	t.Helper()
	rc, _, err := f.files.Open(context.Background(), models.ClassroomOwner(f.classroom.ID), recordID)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return b
}

func (f *fixture) readPersonal(t *testing.T, userID, recordID string) []byte {
	t.Helper()
	rc, _, err := f.files.Open(context.Background(), models.PersonalOwner(userID), recordID)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return b
}
