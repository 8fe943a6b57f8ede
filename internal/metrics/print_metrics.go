package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrintJobMetrics — метрики сервиса печати.
type PrintJobMetrics struct {
	jobs   *prometheus.CounterVec
	probes *prometheus.CounterVec
}

// NewPrintJobMetrics регистрирует метрики сервиса печати.
func NewPrintJobMetrics(registerer prometheus.Registerer) *PrintJobMetrics {
	return &PrintJobMetrics{
		jobs: register(registerer, "storefront_printserver_jobs_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_printserver_jobs_total",
			Help: "Print jobs handled by the printing service grouped by kind and result.",
		}, []string{"kind", "result"})),
		probes: register(registerer, "storefront_printserver_probes_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_printserver_probes_total",
			Help: "Printer health probes grouped by result.",
		}, []string{"result"})),
	}
}

// RecordJob фиксирует результат задания печати: kind = order|test, result = printed|rejected|failed.
func (m *PrintJobMetrics) RecordJob(kind, result string) {
	m.jobs.WithLabelValues(kind, result).Inc()
}

// RecordProbe фиксирует результат проверки принтера.
func (m *PrintJobMetrics) RecordProbe(ok bool) {
	result := "connected"
	if !ok {
		result = "disconnected"
	}
	m.probes.WithLabelValues(result).Inc()
}
