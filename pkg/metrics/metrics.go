package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Fleet metrics
	NodesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fleetwatch_nodes_total",
			Help: "Total number of monitored nodes by status",
		},
		[]string{"status"},
	)

	SamplesIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fleetwatch_samples_ingested_total",
			Help: "Total number of metric samples recorded",
		},
	)

	SamplesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetwatch_samples_rejected_total",
			Help: "Total number of rejected metric reports by reason",
		},
		[]string{"reason"},
	)

	SamplesTrimmed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fleetwatch_samples_trimmed_total",
			Help: "Total number of samples removed by per-node retention trims",
		},
	)

	NotificationsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetwatch_notifications_emitted_total",
			Help: "Total number of notifications emitted by type",
		},
		[]string{"type"},
	)

	StatusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetwatch_status_transitions_total",
			Help: "Total number of node status transitions by new status",
		},
		[]string{"to"},
	)

	// Reconciler metrics
	ReconcilerCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fleetwatch_reconciler_cycles_total",
			Help: "Total number of completed offline-reconciler sweeps",
		},
	)

	ReconcilerCyclesSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fleetwatch_reconciler_cycles_skipped_total",
			Help: "Total number of sweep ticks skipped because a sweep was still running",
		},
	)

	ReconcilerDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fleetwatch_reconciler_duration_seconds",
			Help:    "Duration of offline-reconciler sweeps in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	NodesForcedOffline = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fleetwatch_nodes_forced_offline_total",
			Help: "Total number of nodes forced offline by the reconciler",
		},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetwatch_api_requests_total",
			Help: "Total number of API requests by method and status",
		},
		[]string{"method", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fleetwatch_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(NodesTotal)
	prometheus.MustRegister(SamplesIngested)
	prometheus.MustRegister(SamplesRejected)
	prometheus.MustRegister(SamplesTrimmed)
	prometheus.MustRegister(NotificationsEmitted)
	prometheus.MustRegister(StatusTransitions)
	prometheus.MustRegister(ReconcilerCyclesTotal)
	prometheus.MustRegister(ReconcilerCyclesSkipped)
	prometheus.MustRegister(ReconcilerDuration)
	prometheus.MustRegister(NodesForcedOffline)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
