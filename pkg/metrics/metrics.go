package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	LedgerAppendCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_append_count",
			Help: "Total number of records appended to the ledger",
		},
		[]string{"kind"}, // kind: transaction, project
	)

	LedgerClearCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_clear_count",
			Help: "Total number of bulk ledger clears",
		},
	)

	AttestationCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "attestation_call_latency_ms",
			Help:    "Wallet and pinning service call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 12), // 10ms to ~40s
		},
		[]string{"step", "status"}, // step: connect, sign, upload, fetch
	)

	AuditEventCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_event_count",
			Help: "Total number of audit events processed by the worker",
		},
		[]string{"routing_key", "status"}, // status: recorded, duplicate, error, dead_lettered
	)

	SlowQueryCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_slow_query_count",
			Help: "Total number of database queries over the slow threshold",
		},
	)
)

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func IncrementLedgerAppend(kind string) {
	LedgerAppendCount.WithLabelValues(kind).Inc()
}

func RecordAttestationCallLatency(step, status string, duration time.Duration) {
	AttestationCallLatency.WithLabelValues(step, status).Observe(float64(duration.Milliseconds()))
}

func IncrementAuditEvent(routingKey, status string) {
	AuditEventCount.WithLabelValues(routingKey, status).Inc()
}

func IncrementSlowQuery() {
	SlowQueryCount.Inc()
}
