// Package models defines the server-side entities persisted in the catalog.
package models

import "time"

// FileRecord describes one stored file inside an owning container's list.
// The bytes live in the blob store under StorageRef, the name produced by
// the naming policy. ID is assigned when the record is appended; a rename
// changes only OriginalName.
type FileRecord struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"original_name"`
	StorageRef   string    `json:"storage_ref"`
	CreatedAt    time.Time `json:"created_at"`
}

// Descriptor is a FileRecord plus a retrieval reference the caller can
// resolve without going through the core (a presigned or static URL).
type Descriptor struct {
	FileRecord
	URL string `json:"url"`
}
