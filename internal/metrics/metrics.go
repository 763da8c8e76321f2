// Package metrics содержит метрики Prometheus ядра витрины.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront"

// Metrics объединяет счётчики компонентов. Методы безопасны для nil-получателя.
type Metrics struct {
	checkouts         *prometheus.CounterVec
	statusTransitions *prometheus.CounterVec
	savedItemFailures *prometheus.CounterVec
	workspaces        prometheus.Gauge
}

// New регистрирует метрики в reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		checkouts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Order submissions by result.",
		}, []string{"result"}),
		statusTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_transitions_total",
			Help:      "Order status changes by source, target and result.",
		}, []string{"from", "to", "result"}),
		savedItemFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saved_item_failures_total",
			Help:      "Failed saved-items operations by operation.",
		}, []string{"op"}),
		workspaces: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workspaces",
			Help:      "Client workspaces currently held in memory.",
		}),
	}
}

// Checkout учитывает результат оформления заказа.
func (m *Metrics) Checkout(result string) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(result).Inc()
}

// StatusTransition учитывает попытку смены статуса заказа.
func (m *Metrics) StatusTransition(from, to, result string) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(from, to, result).Inc()
}

// SavedItemFailure учитывает ошибку операции с избранным.
func (m *Metrics) SavedItemFailure(op string) {
	if m == nil {
		return
	}
	m.savedItemFailures.WithLabelValues(op).Inc()
}

// SetWorkspaces фиксирует число рабочих пространств в памяти.
func (m *Metrics) SetWorkspaces(n int) {
	if m == nil {
		return
	}
	m.workspaces.Set(float64(n))
}
