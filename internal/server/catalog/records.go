package catalog

import (
	"time"

	"github.com/dmitrijs2005/classdocs/internal/common"
	"github.com/dmitrijs2005/classdocs/internal/server/models"
	"github.com/google/uuid"
)

// recordList is the in-transaction copy of a container's list shared by
// both catalog implementations.
type recordList struct {
	records []models.FileRecord
	dirty   bool
}

func newRecordList(records []models.FileRecord) *recordList {
	cp := make([]models.FileRecord, len(records))
	copy(cp, records)
	return &recordList{records: cp}
}

func (l *recordList) snapshot() []models.FileRecord {
	cp := make([]models.FileRecord, len(l.records))
	copy(cp, l.records)
	return cp
}

func (l *recordList) index(recordID string) int {
	for i, r := range l.records {
		if r.ID == recordID {
			return i
		}
	}
	return -1
}

func (l *recordList) find(recordID string) (models.FileRecord, bool) {
	if i := l.index(recordID); i >= 0 {
		return l.records[i], true
	}
	return models.FileRecord{}, false
}

// add assigns identity and timestamp when the caller left them empty.
func (l *recordList) add(rec models.FileRecord) models.FileRecord {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	l.records = append(l.records, rec)
	l.dirty = true
	return rec
}

func (l *recordList) rename(recordID, newName string) (models.FileRecord, error) {
	i := l.index(recordID)
	if i < 0 {
		return models.FileRecord{}, common.ErrorNotFound
	}
	l.records[i].OriginalName = newName
	l.dirty = true
	return l.records[i], nil
}

func (l *recordList) remove(recordID string) (models.FileRecord, error) {
	i := l.index(recordID)
	if i < 0 {
		return models.FileRecord{}, common.ErrorNotFound
	}
	rec := l.records[i]
	l.records = append(l.records[:i], l.records[i+1:]...)
	l.dirty = true
	return rec, nil
}
