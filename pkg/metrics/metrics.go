package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all cadence worker metrics
type Metrics struct {
	EventsClaimed   prometheus.Counter
	EventsProcessed *prometheus.CounterVec // labelled by outcome
	EventsSwept     prometheus.Counter
	TasksCreated    *prometheus.CounterVec // labelled by task type
	ClaimLatency    prometheus.Histogram
	ProcessLatency  prometheus.Histogram
	BatchDuration   prometheus.Histogram

	DatabaseOperations *prometheus.CounterVec
	BrokerPublishes    *prometheus.CounterVec
}

// New creates and registers all cadence metrics under the given namespace.
func New(namespace string) *Metrics {
	return &Metrics{
		EventsClaimed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_claimed_total",
			Help:      "Total number of cadence events claimed by this worker",
		}),
		EventsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_processed_total",
			Help:      "Total number of cadence events processed, by outcome",
		}, []string{"outcome"}),
		EventsSwept: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_claims_swept_total",
			Help:      "Total number of stale claims reset to scheduled",
		}),
		TasksCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_created_total",
			Help:      "Total number of fallback/call tasks created",
		}, []string{"type"}),
		ClaimLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "claim_duration_seconds",
			Help:      "Time spent claiming a batch of due events",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		ProcessLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_processing_duration_seconds",
			Help:      "Time spent processing a single claimed event",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		BatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Time spent on one full worker tick",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		DatabaseOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
		BrokerPublishes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broker_publishes_total",
			Help:      "Total number of event notifications published",
		}, []string{"status"}),
	}
}
