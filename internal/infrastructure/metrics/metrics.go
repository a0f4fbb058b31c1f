package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// OrderMetrics covers the order lifecycle.
type OrderMetrics struct {
	OrdersCreatedTotal       prometheus.Counter
	OrdersCreatedAmountTotal prometheus.Counter
	TransitionsTotal         *prometheus.CounterVec
	TransitionRejectsTotal   *prometheus.CounterVec
	VersionConflictsTotal    prometheus.Counter
	CompensationsTotal       *prometheus.CounterVec
	AutoFinalizedTotal       prometheus.Counter
	OrderErrorsTotal         *prometheus.CounterVec
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	f := promauto.With(reg)
	return &OrderMetrics{
		OrdersCreatedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orders_created_total",
			Help: "Orders created at checkout",
		}),
		OrdersCreatedAmountTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orders_created_amount_total",
			Help: "Sum of order totals at checkout",
		}),
		TransitionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_order_transitions_total",
			Help: "Applied status transitions",
		}, []string{"from", "to", "actor"}),
		TransitionRejectsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_order_transition_rejects_total",
			Help: "Transitions rejected by the validator",
		}, []string{"code"}),
		VersionConflictsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "storefront_order_version_conflicts_total",
			Help: "Optimistic version conflicts on order writes",
		}),
		CompensationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_order_write_rollbacks_total",
			Help: "Multi-step writes that ran compensations",
		}, []string{"operation"}),
		AutoFinalizedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orders_auto_finalized_total",
			Help: "Orders moved to delivered by the scheduler",
		}),
		OrderErrorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_order_errors_total",
			Help: "Order operation failures by kind",
		}, []string{"operation", "error_type"}),
	}
}

func (m *OrderMetrics) RecordOrderCreated(total float64) {
	m.OrdersCreatedTotal.Inc()
	m.OrdersCreatedAmountTotal.Add(total)
}

func (m *OrderMetrics) RecordTransition(from, to, actor string) {
	m.TransitionsTotal.WithLabelValues(from, to, actor).Inc()
}

func (m *OrderMetrics) RecordReject(code string) {
	m.TransitionRejectsTotal.WithLabelValues(code).Inc()
}

func (m *OrderMetrics) RecordError(operation, errorType string) {
	m.OrderErrorsTotal.WithLabelValues(operation, errorType).Inc()
}

// NotificationMetrics covers the delivery queue.
type NotificationMetrics struct {
	EnqueuedTotal      *prometheus.CounterVec
	DedupedTotal       *prometheus.CounterVec
	OutcomesTotal      *prometheus.CounterVec
	ProcessingDuration *prometheus.HistogramVec
	PurgedTotal        *prometheus.CounterVec
}

func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	f := promauto.With(reg)
	return &NotificationMetrics{
		EnqueuedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_notifications_enqueued_total",
			Help: "Notification jobs inserted",
		}, []string{"type"}),
		DedupedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_notifications_deduped_total",
			Help: "Enqueue calls answered with an existing pending job",
		}, []string{"type"}),
		OutcomesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_notification_attempts_total",
			Help: "Delivery attempts by outcome (sent, retry, failed)",
		}, []string{"type", "outcome"}),
		ProcessingDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_notification_processing_seconds",
			Help:    "Render plus dispatch time per attempt",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"type"}),
		PurgedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_notifications_purged_total",
			Help: "Terminal jobs removed by retention",
		}, []string{"status"}),
	}
}

func (m *NotificationMetrics) RecordAttempt(notificationType, outcome string, took time.Duration) {
	m.OutcomesTotal.WithLabelValues(notificationType, outcome).Inc()
	m.ProcessingDuration.WithLabelValues(notificationType).Observe(took.Seconds())
}

// AdmissionMetrics covers the request admission layer.
type AdmissionMetrics struct {
	DecisionsTotal *prometheus.CounterVec
	BlockedClients prometheus.Gauge
	TrackedWindows prometheus.Gauge
}

func NewAdmissionMetrics(reg prometheus.Registerer) *AdmissionMetrics {
	f := promauto.With(reg)
	return &AdmissionMetrics{
		DecisionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_admission_decisions_total",
			Help: "Admission decisions by result (allowed, limited, blocked)",
		}, []string{"route", "result"}),
		BlockedClients: f.NewGauge(prometheus.GaugeOpts{
			Name: "storefront_admission_blocked_clients",
			Help: "Fingerprints currently on the block list",
		}),
		TrackedWindows: f.NewGauge(prometheus.GaugeOpts{
			Name: "storefront_admission_tracked_windows",
			Help: "Live rate-limit windows",
		}),
	}
}
