// Package metrics registers the Prometheus collectors of the archive.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// IngestTotal counts ingestions by result: created, duplicate or failed.
	IngestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dicom_archive_ingest_total",
			Help: "Images offered to the catalog",
		},
		[]string{"result"},
	)

	// CatalogConflicts counts natural-key conflicts absorbed by re-reading.
	CatalogConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dicom_archive_catalog_conflicts_total",
			Help: "Concurrent creations resolved by re-reading the winner",
		},
		[]string{"entity"},
	)

	RenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dicom_archive_render_duration_seconds",
			Help:    "Time spent decoding and rendering one stored file",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
	)

	RenderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dicom_archive_render_failures_total",
			Help: "Failed renders by error kind",
		},
		[]string{"kind"},
	)

	SCPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dicom_archive_scp_requests_total",
			Help: "DIMSE requests handled by the storage SCP",
		},
		[]string{"command", "status"},
	)
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
