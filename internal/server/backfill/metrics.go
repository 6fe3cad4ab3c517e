package backfill

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Skip reasons reported on the records_skipped_total counter.
const (
	reasonHasAddress       = "has_address"
	reasonInvalidPosition  = "invalid_position"
	reasonNoAddress        = "no_address"
	reasonUpdatedElsewhere = "updated_elsewhere"
)

// Task results reported on the tasks_total counter.
const (
	resultDone      = "done"
	resultAbandoned = "abandoned"
	resultCancelled = "cancelled"
)

type Metrics struct {
	RecordsUpdated  prometheus.Counter
	RecordsSkipped  *prometheus.CounterVec
	GeocodeFailures prometheus.Counter
	UpdateFailures  prometheus.Counter
	Tasks           *prometheus.CounterVec
	QueueFull       prometheus.Counter
	TaskDuration    prometheus.Histogram
}

// NewMetrics registers the backfill collectors with reg. A nil reg creates
// unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RecordsUpdated: f.NewCounter(prometheus.CounterOpts{
			Namespace: "tenantgov",
			Subsystem: "backfill",
			Name:      "records_updated_total",
			Help:      "Event records that received an address",
		}),
		RecordsSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tenantgov",
			Subsystem: "backfill",
			Name:      "records_skipped_total",
			Help:      "Event records left unchanged, by reason",
		}, []string{"reason"}),
		GeocodeFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "tenantgov",
			Subsystem: "backfill",
			Name:      "geocode_failures_total",
			Help:      "Reverse geocode calls that returned an error",
		}),
		UpdateFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "tenantgov",
			Subsystem: "backfill",
			Name:      "update_failures_total",
			Help:      "Address updates that failed to persist",
		}),
		Tasks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tenantgov",
			Subsystem: "backfill",
			Name:      "tasks_total",
			Help:      "Device tasks by result",
		}, []string{"result"}),
		QueueFull: f.NewCounter(prometheus.CounterOpts{
			Namespace: "tenantgov",
			Subsystem: "backfill",
			Name:      "queue_full_total",
			Help:      "Submissions that found the task queue full",
		}),
		TaskDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tenantgov",
			Subsystem: "backfill",
			Name:      "task_duration_seconds",
			Help:      "Wall time of one device task",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
		}),
	}
}
