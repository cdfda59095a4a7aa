package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the store operations.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aether_store_operations_total",
			Help: "Store operations by backend, operation and outcome",
		}, []string{"backend", "operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aether_store_operation_duration_seconds",
			Help:    "Duration of store operations",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"backend", "operation"}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.operations, m.duration} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}

	return m, nil
}

// Counter returns the operation counter of one label combination.
func (m *Metrics) Counter(backend, operation, outcome string) prometheus.Counter {
	return m.operations.WithLabelValues(backend, operation, outcome)
}

func (m *Metrics) observe(backend, operation, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(backend, operation, outcome).Inc()
	m.duration.WithLabelValues(backend, operation).Observe(dur.Seconds())
}
