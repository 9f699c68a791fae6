package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SearchRequests counts gall searches by outcome
	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallformers_search_requests_total",
			Help: "Total number of gall searches",
		},
		[]string{"status"},
	)

	// SearchResults tracks how many galls a search returned
	SearchResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gallformers_search_results",
			Help:    "Number of galls returned per search",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
	)

	// SearchLatency tracks time spent in the store per search
	SearchLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gallformers_search_latency_seconds",
			Help:    "Gall search latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// FilterFieldMutations counts successful upserts and deletes per kind
	FilterFieldMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallformers_filter_field_mutations_total",
			Help: "Total number of filter field writes",
		},
		[]string{"kind", "op"},
	)

	// StoreErrors counts database failures per operation
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallformers_store_errors_total",
			Help: "Total number of database errors",
		},
		[]string{"op"},
	)

	// ObjectStoreRetries counts retried object storage calls
	ObjectStoreRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallformers_object_store_retries_total",
			Help: "Total number of retried object storage calls",
		},
		[]string{"op"},
	)

	// BackupRuns counts backup runs by outcome
	BackupRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallformers_backup_runs_total",
			Help: "Total number of database backup runs",
		},
		[]string{"status"},
	)
)
