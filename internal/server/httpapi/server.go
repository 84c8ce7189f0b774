// Package httpapi is the plain HTTP side of the server: blob retrieval for
// the disk backend, Prometheus metrics and a liveness probe.
package httpapi

import (
	"context"
	"errors"
	"io"
	"mime"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/classdocs/internal/logging"
	"github.com/dmitrijs2005/classdocs/internal/server/blobstore"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	address string
	store   blobstore.Store
	logger  logging.Logger
}

// NewServer serves blobs out of store. store may be nil when blobs are
// retrieved elsewhere (presigned S3 URLs); /files then answers 404.
func NewServer(a string, store blobstore.Store, l logging.Logger) *Server {
	return &Server{
		address: a,
		store:   store,
		logger:  l.With("module", "http_server"),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(metricsMiddleware)

	r.Get("/health", s.health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/files/{storageRef}", s.getFile)
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "OK")
}

func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "storageRef")
	if s.store == nil {
		http.NotFound(w, r)
		return
	}

	rc, err := s.store.Open(r.Context(), name)
	switch {
	case errors.Is(err, blobstore.ErrNotExist), errors.Is(err, blobstore.ErrInvalidName):
		http.NotFound(w, r)
		return
	case err != nil:
		s.logger.Error(r.Context(), "open blob", "name", name, "error", err)
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}
	defer rc.Close()

	ct := mime.TypeByExtension(filepath.Ext(name))
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Cache-Control", "private, max-age=3600")

	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Warn(r.Context(), "stream blob", "name", name, "error", err)
	}
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Serve handles connections on l until ctx is cancelled, then shuts down,
// letting in-flight downloads finish for up to shutdownTimeout.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", l.Addr().String())

	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
