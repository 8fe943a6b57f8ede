package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OutboxMetrics — попытки публикации и backlog outbox.
type OutboxMetrics struct {
	attempts     *prometheus.CounterVec
	pending      prometheus.Gauge
	oldestAgeSec prometheus.Gauge
	cleanupRuns  *prometheus.CounterVec
	purged       prometheus.Counter
}

// NewOutboxMetrics регистрирует метрики outbox.
func NewOutboxMetrics(registerer prometheus.Registerer) *OutboxMetrics {
	return &OutboxMetrics{
		attempts: register(registerer, "storefront_outbox_publish_attempts_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_outbox_publish_attempts_total",
			Help: "Total number of outbox publish attempts grouped by result.",
		}, []string{"result"})),
		pending: register(registerer, "storefront_outbox_pending_records", prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "storefront_outbox_pending_records",
			Help: "Current number of pending records in the outbox.",
		})),
		oldestAgeSec: register(registerer, "storefront_outbox_oldest_pending_age_seconds", prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "storefront_outbox_oldest_pending_age_seconds",
			Help: "Age in seconds of the oldest pending outbox record.",
		})),
		cleanupRuns: register(registerer, "storefront_outbox_cleanup_runs_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_outbox_cleanup_runs_total",
			Help: "Total number of outbox cleanup runs grouped by result.",
		}, []string{"result"})),
		purged: register(registerer, "storefront_outbox_purged_total", prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_outbox_purged_total",
			Help: "Total number of sent outbox records removed by retention cleanup.",
		})),
	}
}

// RecordAttempt: result = sent|retry_error|failed|dlq_failed.
func (m *OutboxMetrics) RecordAttempt(result string) {
	m.attempts.WithLabelValues(result).Inc()
}

// SetBacklog обновляет размер и возраст backlog.
func (m *OutboxMetrics) SetBacklog(pending int, oldestAgeSeconds float64) {
	m.pending.Set(float64(pending))
	m.oldestAgeSec.Set(oldestAgeSeconds)
}

// RecordCleanup учитывает прогон очистки: result = ok|error.
func (m *OutboxMetrics) RecordCleanup(result string, purged int) {
	m.cleanupRuns.WithLabelValues(result).Inc()
	if purged > 0 {
		m.purged.Add(float64(purged))
	}
}
