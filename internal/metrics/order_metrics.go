package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics — метрики оформления и обработки заказов.
type OrderMetrics struct {
	cartAdds       prometheus.Counter
	ordersCreated  prometheus.Counter
	statusChanges  *prometheus.CounterVec
	staffActions   *prometheus.CounterVec
	printDuration  prometheus.Histogram
	printFailures  prometheus.Counter
	announceFailed prometheus.Counter
	timelineEvents prometheus.Counter
}

// NewOrderMetrics регистрирует метрики в DefaultRegisterer.
func NewOrderMetrics() *OrderMetrics {
	return NewOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewOrderMetricsWithRegisterer позволяет использовать отдельный реестр (тесты).
func NewOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	return &OrderMetrics{
		cartAdds: register(registerer, "storefront_cart_adds_total", prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_cart_adds_total",
			Help: "Total number of products added to carts.",
		})),
		ordersCreated: register(registerer, "storefront_orders_created_total", prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orders_created_total",
			Help: "Total number of orders placed through checkout.",
		})),
		statusChanges: register(registerer, "storefront_order_status_changes_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_order_status_changes_total",
			Help: "Order status changes grouped by target status.",
		}, []string{"status"})),
		staffActions: register(registerer, "storefront_staff_actions_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_staff_actions_total",
			Help: "Staff actions on orders grouped by action and result.",
		}, []string{"action", "result"})),
		printDuration: register(registerer, "storefront_print_duration_seconds", prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "storefront_print_duration_seconds",
			Help:    "Duration of receipt print requests in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		})),
		printFailures: register(registerer, "storefront_print_failures_total", prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_print_failures_total",
			Help: "Total number of failed receipt print requests.",
		})),
		announceFailed: register(registerer, "storefront_announce_failures_total", prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_announce_failures_total",
			Help: "Total number of failed staff channel announcements.",
		})),
		timelineEvents: register(registerer, "storefront_timeline_events_total", prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_timeline_events_total",
			Help: "Total number of order timeline events recorded.",
		})),
	}
}

// RecordCartAdd увеличивает счётчик добавлений в корзину.
func (m *OrderMetrics) RecordCartAdd() {
	m.cartAdds.Inc()
}

// RecordOrderCreated увеличивает счётчик оформленных заказов.
func (m *OrderMetrics) RecordOrderCreated() {
	m.ordersCreated.Inc()
}

// RecordStatusChange фиксирует смену статуса заказа.
func (m *OrderMetrics) RecordStatusChange(status string) {
	m.statusChanges.WithLabelValues(status).Inc()
}

// RecordStaffAction фиксирует действие персонала: result = ok|denied|invalid|failed.
func (m *OrderMetrics) RecordStaffAction(action, result string) {
	m.staffActions.WithLabelValues(action, result).Inc()
}

// RecordPrint записывает длительность печати и неудачи.
func (m *OrderMetrics) RecordPrint(duration time.Duration, err error) {
	m.printDuration.Observe(duration.Seconds())
	if err != nil {
		m.printFailures.Inc()
	}
}

// RecordAnnounceFailure увеличивает счётчик неудачных анонсов.
func (m *OrderMetrics) RecordAnnounceFailure() {
	m.announceFailed.Inc()
}

// RecordTimelineEvent увеличивает счётчик событий журнала.
func (m *OrderMetrics) RecordTimelineEvent() {
	m.timelineEvents.Inc()
}
