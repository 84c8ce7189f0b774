package httpapi

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/classdocs/internal/logging"
	"github.com/dmitrijs2005/classdocs/internal/server/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStore struct {
	blobstore.Store
}

func (brokenStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return nil, errors.New("disk gone")
}

func newDisk(t *testing.T) *blobstore.Disk {
	t.Helper()
	d, err := blobstore.NewDisk(t.TempDir(), "http://files.test")
	require.NoError(t, err)
	return d
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestGetFile(t *testing.T) {
	disk := newDisk(t)
	require.NoError(t, disk.Put(context.Background(), "1700000000000-Notes.pdf", bytes.NewReader([]byte("%PDF-1.7"))))

	h := NewServer(":0", disk, logging.Discard()).Router()

	rec := get(t, h, "/files/1700000000000-Notes.pdf")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF-1.7", rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))

	rec = get(t, h, "/files/1700000000001-missing.txt")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, h, "/files/.upload-123")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetFile_StoreFailure(t *testing.T) {
	h := NewServer(":0", brokenStore{}, logging.Discard()).Router()

	rec := get(t, h, "/files/x.pdf")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetFile_NoStore(t *testing.T) {
	h := NewServer(":0", nil, logging.Discard()).Router()
	assert.Equal(t, http.StatusNotFound, get(t, h, "/files/x.pdf").Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := NewServer(":0", newDisk(t), logging.Discard()).Router()

	rec := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "classdocs_http_requests_total"))
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	srv := NewServer("127.0.0.1:0", newDisk(t), logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after context cancel")
	}
}

func TestRun_BadAddress(t *testing.T) {
	srv := NewServer("127.0.0.1:99999", nil, logging.Discard())
	assert.Error(t, srv.Run(context.Background()))
}
