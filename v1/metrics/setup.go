package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/piercefreeman/vectordb-orm/v1/observability"
)

// Observer is a Prometheus-backed observability.Observer: every backend
// operation is counted by component/operation/status and its duration
// observed in a histogram.
type Observer struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	rows       *prometheus.CounterVec
}

var _ observability.Observer = (*Observer)(nil)

// NewObserver creates and registers the vector-store metrics on the given
// registerer (pass prometheus.DefaultRegisterer for the default).
func NewObserver(reg prometheus.Registerer) *Observer {
	o := &Observer{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vectordb_operations_total",
			Help: "Backend operations by component, operation and status.",
		}, []string{"component", "operation", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vectordb_operation_duration_seconds",
			Help:    "Backend operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"component", "operation"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vectordb_operation_rows_total",
			Help: "Rows touched per operation (inserted, returned, deleted).",
		}, []string{"component", "operation"}),
	}
	reg.MustRegister(o.operations, o.durations, o.rows)
	return o
}

// ObserveOperation implements observability.Observer.
func (o *Observer) ObserveOperation(ctx observability.OperationContext) {
	status := "ok"
	if ctx.Error != nil {
		status = "error"
	}
	o.operations.WithLabelValues(ctx.Component, ctx.Operation, status).Inc()
	o.durations.WithLabelValues(ctx.Component, ctx.Operation).Observe(ctx.Duration.Seconds())
	if ctx.Size > 0 {
		o.rows.WithLabelValues(ctx.Component, ctx.Operation).Add(float64(ctx.Size))
	}
}
