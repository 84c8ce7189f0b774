// Package reclist encodes the inline file-record lists stored in the
// users.personal_notes and classrooms.files JSONB columns.
package reclist

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/classdocs/internal/server/models"
)

// Encode renders records as a JSON array; nil becomes "[]".
func Encode(records []models.FileRecord) (string, error) {
	if records == nil {
		records = []models.FileRecord{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode records: %w", err)
	}
	return string(b), nil
}

// Decode parses a JSON array column value. Empty input yields an empty list.
func Decode(raw []byte) ([]models.FileRecord, error) {
	records := []models.FileRecord{}
	if len(raw) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}
