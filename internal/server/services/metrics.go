package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classdocs_uploads_total",
		Help: "Uploads committed to the catalog, by owner kind.",
	}, []string{"owner"})

	uploadFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classdocs_upload_failures_total",
		Help: "Uploads rejected or aborted, by reason.",
	}, []string{"reason"})

	recordsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classdocs_records_deleted_total",
		Help: "File records removed from a container.",
	})

	blobsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classdocs_blobs_deleted_total",
		Help: "Blobs removed after their last reference went away.",
	})

	blobDeleteFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classdocs_blob_delete_failures_total",
		Help: "Blob deletes that failed and left an orphan behind.",
	})

	publishesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classdocs_publishes_total",
		Help: "Records shared into a classroom.",
	})

	orphansSweptTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classdocs_orphans_swept_total",
		Help: "Unreferenced blobs removed by the reconciler.",
	})
)
