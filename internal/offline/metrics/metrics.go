package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the offline write path.
type Metrics struct {
	BufferedWrites      prometheus.Counter
	ReconciledDocuments prometheus.Counter
	DuplicatesSkipped   prometheus.Counter
	TickErrors          prometheus.Counter
	TickDurationMs      prometheus.Histogram
}

// New creates and registers all offline-path metrics.
func New() *Metrics {
	return &Metrics{
		BufferedWrites: promauto.NewCounter(prometheus.CounterOpts{
			Name: "deskvault_offline_buffered_writes_total",
			Help: "Document writes diverted to the offline buffer",
		}),
		ReconciledDocuments: promauto.NewCounter(prometheus.CounterOpts{
			Name: "deskvault_offline_reconciled_documents_total",
			Help: "Buffered documents committed to the primary store",
		}),
		DuplicatesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "deskvault_offline_duplicates_skipped_total",
			Help: "Buffered documents skipped because their sync id already existed",
		}),
		TickErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "deskvault_offline_tick_errors_total",
			Help: "Reconciler ticks that ended in an error",
		}),
		TickDurationMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "deskvault_offline_tick_duration_ms",
			Help:    "Latency of reconciler ticks in milliseconds",
			Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
		}),
	}
}
