// Package blobstore stores uploaded bytes under generated storage names.
//
// Stores are write-once: Put refuses to replace an existing name and Delete
// treats a missing name as already deleted. Two backends are provided: Disk
// (a local directory, served over HTTP by the server itself) and S3 (any
// S3-compatible object store, retrieved through presigned URLs).
package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/classdocs/internal/common"
)

var (
	// ErrExists is returned by Put when the name is already taken.
	ErrExists = errors.New("blob already exists")
	// ErrNotExist is returned by Open when the name is unknown.
	ErrNotExist = errors.New("blob does not exist")
	// ErrInvalidName is returned for names that cannot be a single object key.
	ErrInvalidName = errors.New("invalid blob name")
)

// Store is the blob capability injected into the file service.
type Store interface {
	Put(ctx context.Context, name string, r io.Reader) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Delete is idempotent; a missing name is not an error.
	Delete(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
	// URL returns a reference a client can fetch the blob from directly.
	URL(ctx context.Context, name string) (string, error)
	List(ctx context.Context) ([]Info, error)
}

// Info describes a stored blob as seen by List.
type Info struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// ReadLimited reads the whole of r as long as it is at most limit bytes long.
// Larger payloads fail with common.ErrPayloadTooLarge after reading at most
// limit+1 bytes, so nothing oversized ever reaches a Store.
func ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	if n > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", common.ErrPayloadTooLarge, limit)
	}
	return buf.Bytes(), nil
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
