package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/classdocs/internal/common"
	"github.com/dmitrijs2005/classdocs/internal/logging"
	"github.com/dmitrijs2005/classdocs/internal/server/blobstore"
	"github.com/dmitrijs2005/classdocs/internal/server/catalog"
	"github.com/dmitrijs2005/classdocs/internal/server/models"
	"github.com/dmitrijs2005/classdocs/internal/server/naming"
	"github.com/google/uuid"
)

// FileService owns the file-record lifecycle: upload, listing, rename,
// delete, publish and classroom teardown.
//
// The blob store and the catalog are not coupled transactionally. Uploads
// write the blob before the record is appended, so a failure in between
// leaves an orphaned blob and never a dangling record. Deletes remove the
// blob (when no other record references it) before the record, and a failed
// blob delete is logged rather than returned.
type FileService struct {
	catalog   catalog.Catalog
	store     blobstore.Store
	names     *naming.Policy
	maxUpload int64
	log       logging.Logger
	now       func() time.Time
}

func NewFileService(cat catalog.Catalog, store blobstore.Store, names *naming.Policy, maxUpload int64, log logging.Logger) *FileService {
	if maxUpload <= 0 {
		maxUpload = common.MaxUploadSize
	}
	return &FileService{
		catalog:   cat,
		store:     store,
		names:     names,
		maxUpload: maxUpload,
		log:       log.With("module", "files"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func validateID(kind, id string) error {
	if id == "" {
		return fmt.Errorf("empty %s id: %w", kind, common.ErrInvalidInput)
	}
	if err := uuid.Validate(id); err != nil {
		return fmt.Errorf("malformed %s id %q: %w", kind, id, common.ErrInvalidInput)
	}
	return nil
}

func validateOwner(owner models.Owner) error {
	if owner.Kind != models.OwnerUser && owner.Kind != models.OwnerClassroom {
		return fmt.Errorf("unknown owner kind %q: %w", owner.Kind, common.ErrInvalidInput)
	}
	return validateID(string(owner.Kind), owner.ID)
}

// validateFileName rejects names that are blank or carry a path.
func validateFileName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("empty file name: %w", common.ErrInvalidInput)
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("file name %q contains a path: %w", name, common.ErrInvalidInput)
	}
	return nil
}

func (s *FileService) UploadToPersonal(ctx context.Context, userID, originalName string, r io.Reader) (*models.Descriptor, error) {
	return s.upload(ctx, models.PersonalOwner(userID), originalName, r)
}

func (s *FileService) UploadToClassroom(ctx context.Context, classroomID, originalName string, r io.Reader) (*models.Descriptor, error) {
	return s.upload(ctx, models.ClassroomOwner(classroomID), originalName, r)
}

func (s *FileService) upload(ctx context.Context, owner models.Owner, originalName string, r io.Reader) (*models.Descriptor, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	if err := validateFileName(originalName); err != nil {
		return nil, err
	}
	if _, err := s.catalog.Records(ctx, owner); err != nil {
		return nil, err
	}

	data, err := blobstore.ReadLimited(r, s.maxUpload)
	if err != nil {
		if errors.Is(err, common.ErrPayloadTooLarge) {
			uploadFailuresTotal.WithLabelValues("too_large").Inc()
			return nil, err
		}
		uploadFailuresTotal.WithLabelValues("io").Inc()
		return nil, fmt.Errorf("%w: %v", common.ErrIO, err)
	}

	now := s.now()
	ref := s.names.StorageName(originalName, now)

	if err := s.store.Put(ctx, ref, bytes.NewReader(data)); err != nil {
		if errors.Is(err, blobstore.ErrExists) {
			uploadFailuresTotal.WithLabelValues("conflict").Inc()
			return nil, fmt.Errorf("storage name %s taken: %w", ref, common.ErrConflict)
		}
		uploadFailuresTotal.WithLabelValues("io").Inc()
		return nil, fmt.Errorf("%w: store %s: %v", common.ErrIO, ref, err)
	}

	var rec models.FileRecord
	err = s.catalog.Mutate(ctx, owner, func(ctx context.Context, m catalog.Mutation) error {
		var err error
		rec, err = m.Append(models.FileRecord{OriginalName: originalName, StorageRef: ref, CreatedAt: now})
		return err
	})
	if err != nil {
		uploadFailuresTotal.WithLabelValues("catalog").Inc()
		s.log.Warn(ctx, "record not appended, removing stored blob", "owner", owner.String(), "storage_ref", ref, "error", err)
		if !errors.Is(err, common.ErrConflict) {
			if derr := s.store.Delete(ctx, ref); derr != nil {
				s.log.Error(ctx, "orphaned blob left behind", "storage_ref", ref, "error", derr)
			}
		}
		return nil, err
	}

	uploadsTotal.WithLabelValues(string(owner.Kind)).Inc()
	s.log.Info(ctx, "file uploaded", "owner", owner.String(), "record_id", rec.ID, "storage_ref", ref, "size", len(data))
	return s.describe(ctx, rec), nil
}

func (s *FileService) ListPersonal(ctx context.Context, userID string) ([]models.FileRecord, error) {
	return s.List(ctx, models.PersonalOwner(userID))
}

func (s *FileService) ListClassroom(ctx context.Context, classroomID string) ([]models.FileRecord, error) {
	return s.List(ctx, models.ClassroomOwner(classroomID))
}

// List returns the owner's records in insertion order.
func (s *FileService) List(ctx context.Context, owner models.Owner) ([]models.FileRecord, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	return s.catalog.Records(ctx, owner)
}

// Describe attaches retrieval URLs to records. A URL that cannot be
// produced is left empty and logged.
func (s *FileService) Describe(ctx context.Context, records []models.FileRecord) []models.Descriptor {
	out := make([]models.Descriptor, 0, len(records))
	for _, rec := range records {
		out = append(out, *s.describe(ctx, rec))
	}
	return out
}

func (s *FileService) describe(ctx context.Context, rec models.FileRecord) *models.Descriptor {
	u, err := s.store.URL(ctx, rec.StorageRef)
	if err != nil {
		s.log.Warn(ctx, "no retrieval url", "storage_ref", rec.StorageRef, "error", err)
	}
	return &models.Descriptor{FileRecord: rec, URL: u}
}

// Find returns a single record with its retrieval URL.
func (s *FileService) Find(ctx context.Context, owner models.Owner, recordID string) (*models.Descriptor, error) {
	rec, err := s.find(ctx, owner, recordID)
	if err != nil {
		return nil, err
	}
	return s.describe(ctx, rec), nil
}

func (s *FileService) find(ctx context.Context, owner models.Owner, recordID string) (models.FileRecord, error) {
	if err := validateOwner(owner); err != nil {
		return models.FileRecord{}, err
	}
	if err := validateID("record", recordID); err != nil {
		return models.FileRecord{}, err
	}
	records, err := s.catalog.Records(ctx, owner)
	if err != nil {
		return models.FileRecord{}, err
	}
	for _, rec := range records {
		if rec.ID == recordID {
			return rec, nil
		}
	}
	return models.FileRecord{}, common.ErrorNotFound
}

// Open streams a record's bytes. A record whose blob has gone missing is
// reported as not found rather than hidden.
func (s *FileService) Open(ctx context.Context, owner models.Owner, recordID string) (io.ReadCloser, *models.FileRecord, error) {
	rec, err := s.find(ctx, owner, recordID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(ctx, rec.StorageRef)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotExist) {
			s.log.Error(ctx, "dangling record", "owner", owner.String(), "record_id", rec.ID, "storage_ref", rec.StorageRef)
			return nil, nil, fmt.Errorf("blob %s: %w", rec.StorageRef, common.ErrorNotFound)
		}
		return nil, nil, fmt.Errorf("%w: open %s: %v", common.ErrIO, rec.StorageRef, err)
	}
	return rc, &rec, nil
}

// RenameRecord changes only the display name; the blob is untouched.
func (s *FileService) RenameRecord(ctx context.Context, owner models.Owner, recordID, newName string) (*models.Descriptor, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	if err := validateID("record", recordID); err != nil {
		return nil, err
	}
	if err := validateFileName(newName); err != nil {
		return nil, err
	}

	var rec models.FileRecord
	err := s.catalog.Mutate(ctx, owner, func(ctx context.Context, m catalog.Mutation) error {
		var err error
		rec, err = m.Rename(recordID, newName)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.describe(ctx, rec), nil
}

// DeleteRecord removes a record and, when it held the last reference, its
// blob. The blob goes first; if that fails the record is removed anyway.
func (s *FileService) DeleteRecord(ctx context.Context, owner models.Owner, recordID string) error {
	if err := validateOwner(owner); err != nil {
		return err
	}
	if err := validateID("record", recordID); err != nil {
		return err
	}

	return s.catalog.Mutate(ctx, owner, func(ctx context.Context, m catalog.Mutation) error {
		rec, ok := m.Find(recordID)
		if !ok {
			return common.ErrorNotFound
		}
		if err := s.release(ctx, m, rec); err != nil {
			return err
		}
		recordsDeletedTotal.Inc()
		s.log.Info(ctx, "record deleted", "owner", owner.String(), "record_id", rec.ID, "storage_ref", rec.StorageRef)
		return nil
	})
}

// release drops rec from the locked container, deleting its blob first if
// no other record will point at it afterwards.
func (s *FileService) release(ctx context.Context, m catalog.Mutation, rec models.FileRecord) error {
	refs, err := m.RefCount(rec.StorageRef)
	if err != nil {
		return err
	}
	if refs <= 1 {
		if err := s.store.Delete(ctx, rec.StorageRef); err != nil {
			blobDeleteFailuresTotal.Inc()
			s.log.Warn(ctx, "blob delete failed, leaving orphan", "storage_ref", rec.StorageRef, "error", err)
		} else {
			blobsDeletedTotal.Inc()
		}
	}
	_, err = m.Remove(rec.ID)
	return err
}

// PublishToClassroom shares source into the classroom as a new record that
// points at the same blob. The source record is left in place.
func (s *FileService) PublishToClassroom(ctx context.Context, classroomID string, source models.FileRecord) (*models.Descriptor, error) {
	if err := validateID("classroom", classroomID); err != nil {
		return nil, err
	}
	if source.StorageRef == "" {
		return nil, fmt.Errorf("source has no storage ref: %w", common.ErrInvalidInput)
	}
	if err := validateFileName(source.OriginalName); err != nil {
		return nil, err
	}

	var rec models.FileRecord
	err := s.catalog.Mutate(ctx, models.ClassroomOwner(classroomID), func(ctx context.Context, m catalog.Mutation) error {
		var err error
		rec, err = m.Share(models.FileRecord{
			OriginalName: source.OriginalName,
			StorageRef:   source.StorageRef,
			CreatedAt:    source.CreatedAt,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	publishesTotal.Inc()
	s.log.Info(ctx, "record published", "classroom_id", classroomID, "record_id", rec.ID, "storage_ref", rec.StorageRef)
	return s.describe(ctx, rec), nil
}

// PublishFromPersonal looks the source up in the user's personal list and
// publishes it.
func (s *FileService) PublishFromPersonal(ctx context.Context, userID, recordID, classroomID string) (*models.Descriptor, error) {
	source, err := s.find(ctx, models.PersonalOwner(userID), recordID)
	if err != nil {
		return nil, err
	}
	return s.PublishToClassroom(ctx, classroomID, source)
}

// DeleteClassroom drops every record of the classroom, deleting blobs whose
// last reference goes away, then removes the classroom itself. Blob delete
// failures are logged and do not stop the teardown.
func (s *FileService) DeleteClassroom(ctx context.Context, classroomID string) error {
	if err := validateID("classroom", classroomID); err != nil {
		return err
	}

	return s.catalog.Mutate(ctx, models.ClassroomOwner(classroomID), func(ctx context.Context, m catalog.Mutation) error {
		records := m.Records()
		// refs are locked in a fixed order
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].StorageRef < records[j].StorageRef
		})
		for _, rec := range records {
			if err := s.release(ctx, m, rec); err != nil {
				return err
			}
		}
		if err := m.DropContainer(); err != nil {
			return err
		}
		s.log.Info(ctx, "classroom deleted", "classroom_id", classroomID, "records", len(records))
		return nil
	})
}
