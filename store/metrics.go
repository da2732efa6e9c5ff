package store

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jacentio/ddbschema/schema"
)

// Metrics holds the Prometheus collectors updated by the Store.
type Metrics struct {
	Operations *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
}

// NewMetrics registers the store collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ddbschema",
				Name:      "operations_total",
				Help:      "Total number of store operations",
			},
			[]string{"operation", "entity", "outcome"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ddbschema",
				Name:      "operation_duration_seconds",
				Help:      "Store operation duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"operation", "entity"},
		),
	}
}

func (m *Metrics) observe(operation, entity string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(operation, entity, outcome(err)).Inc()
	m.Duration.WithLabelValues(operation, entity).Observe(time.Since(start).Seconds())
}

func outcome(err error) string {
	var schemaErr *schema.Error
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConditionFailed):
		return "condition_failed"
	case errors.As(err, &schemaErr):
		return "invalid"
	}
	return "error"
}
