// Package metrics defines Prometheus metrics for ldpath.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Fetch outcomes used as the "outcome" label.
const (
	OutcomeOK        = "ok"
	OutcomeEmpty     = "empty"
	OutcomeFailed    = "failed"
	OutcomeAbandoned = "abandoned"
	OutcomeCached    = "cached"
)

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ldpath_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ldpath_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ldpath_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	FetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ldpath_fetch_total",
			Help: "Linked Data fetches by outcome",
		},
		[]string{"outcome"},
	)

	FetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ldpath_fetch_duration_seconds",
			Help:    "Duration of completed fetches",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15, 30},
		},
	)

	ExpansionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ldpath_expansions_total",
			Help: "NodeState expansions by kind",
		},
		[]string{"kind"},
	)

	GoalsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ldpath_goals_total",
			Help: "Answer paths found",
		},
	)

	GraphTriples = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ldpath_graph_triples",
			Help: "Triples in the most recently updated search graph",
		},
	)

	ActiveSearches = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ldpath_active_searches",
			Help: "Searches currently running",
		},
	)

	ArchiveQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ldpath_archive_queue_depth",
			Help: "Runs waiting to be written to the archive",
		},
	)

	ArchivedRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ldpath_archived_runs_total",
			Help: "Archive writes by outcome",
		},
		[]string{"outcome"},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ldpath_websocket_connections",
			Help: "Active WebSocket connections",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		FetchTotal, FetchDuration,
		ExpansionsTotal, GoalsTotal, GraphTriples,
		ActiveSearches, ArchiveQueueDepth, ArchivedRuns, WSConnections,
	)
}
