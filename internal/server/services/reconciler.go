package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/classdocs/internal/logging"
	"github.com/dmitrijs2005/classdocs/internal/server/blobstore"
	"github.com/dmitrijs2005/classdocs/internal/server/catalog"
)

// Reconciler removes orphaned blobs: stored bytes that no record points at,
// typically left by an upload whose catalog append failed or never ran.
// Blobs younger than grace are skipped so an upload in flight is never
// mistaken for an orphan.
type Reconciler struct {
	store   blobstore.Store
	catalog catalog.Catalog
	grace   time.Duration
	log     logging.Logger
	now     func() time.Time
}

func NewReconciler(store blobstore.Store, cat catalog.Catalog, grace time.Duration, log logging.Logger) *Reconciler {
	return &Reconciler{
		store:   store,
		catalog: cat,
		grace:   grace,
		log:     log.With("module", "reconciler"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Sweep runs one pass and returns how many blobs it deleted. A failure on
// one blob is logged and the pass moves on.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	blobs, err := r.store.List(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := r.now().Add(-r.grace)
	removed := 0
	for _, b := range blobs {
		if b.ModTime.After(cutoff) {
			continue
		}
		refs, err := r.catalog.RefCount(ctx, b.Name)
		if err != nil {
			r.log.Warn(ctx, "ref count lookup failed", "storage_ref", b.Name, "error", err)
			continue
		}
		if refs > 0 {
			continue
		}
		if err := r.store.Delete(ctx, b.Name); err != nil {
			r.log.Warn(ctx, "orphan delete failed", "storage_ref", b.Name, "error", err)
			continue
		}
		removed++
		orphansSweptTotal.Inc()
		r.log.Info(ctx, "orphan removed", "storage_ref", b.Name, "size", b.Size)
	}
	return removed, nil
}

// Run sweeps every interval until ctx is done.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				r.log.Error(ctx, "sweep failed", "error", err)
			}
		}
	}
}
