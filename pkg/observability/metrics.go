package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the audit subsystem
type Metrics struct {
	// Write path
	AuditRecordsWritten *prometheus.CounterVec
	AuditWriteFailures  *prometheus.CounterVec
	AuditBatchSize      prometheus.Histogram

	// Read path
	HistoryQueriesTotal  *prometheus.CounterVec
	HistoryQueryFailures *prometheus.CounterVec

	// Retention
	RetentionDeletedTotal  *prometheus.CounterVec
	RetentionSweepFailures *prometheus.CounterVec
	RetentionSweepDuration prometheus.Histogram

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		AuditRecordsWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audittrail_records_written_total",
				Help: "Total number of audit records persisted",
			},
			[]string{"table", "operation"},
		),
		AuditWriteFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audittrail_write_failures_total",
				Help: "Total number of failed audit record writes",
			},
			[]string{"table", "operation"},
		),
		AuditBatchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "audittrail_batch_size",
				Help:    "Number of records per batch write",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		HistoryQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audittrail_history_queries_total",
				Help: "Total number of history queries served",
			},
			[]string{"query"},
		),
		HistoryQueryFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audittrail_history_query_failures_total",
				Help: "Total number of history queries that failed open to an empty result",
			},
			[]string{"query"},
		),
		RetentionDeletedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audittrail_retention_deleted_total",
				Help: "Total number of audit records deleted by retention sweeps",
			},
			[]string{"table"},
		),
		RetentionSweepFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audittrail_retention_sweep_failures_total",
				Help: "Total number of failed retention sweeps",
			},
			[]string{"table"},
		),
		RetentionSweepDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "audittrail_retention_sweep_duration_seconds",
				Help:    "Duration of full retention policy sweeps",
				Buckets: prometheus.DefBuckets,
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.AuditRecordsWritten,
		m.AuditWriteFailures,
		m.AuditBatchSize,
		m.HistoryQueriesTotal,
		m.HistoryQueryFailures,
		m.RetentionDeletedTotal,
		m.RetentionSweepFailures,
		m.RetentionSweepDuration,
	)

	return m
}

// Handler returns an HTTP handler serving the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
