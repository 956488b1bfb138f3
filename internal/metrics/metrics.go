// Package metrics defines the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Webhook metrics
	WebhookRequestsTotal   *prometheus.CounterVec
	WebhookDurationSeconds *prometheus.HistogramVec

	// Dispatcher metrics
	DispatchTotal *prometheus.CounterVec

	// Availability store metrics
	StoreOperationsTotal *prometheus.CounterVec
	StoreDurationSeconds *prometheus.HistogramVec

	// Card catalog metrics
	CardLoadsTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec
}

// New registers every collector on registry.
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		WebhookRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recruit_webhook_requests_total",
				Help: "Total number of inbound events by channel, event type and status",
			},
			[]string{"channel", "event_type", "status"}, // channel: line, activity
		),

		WebhookDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recruit_webhook_duration_seconds",
				Help:    "Event processing duration in seconds by channel and event type",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"channel", "event_type"},
		),

		DispatchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recruit_dispatch_total",
				Help: "Total number of dispatched events by action and outcome",
			},
			[]string{"action", "outcome"}, // outcome: card, text, no_reply, error
		),

		StoreOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recruit_store_operations_total",
				Help: "Total availability store operations by backend, operation and status",
			},
			[]string{"backend", "op", "status"},
		),

		StoreDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recruit_store_duration_seconds",
				Help:    "Availability store operation duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"backend", "op"},
		),

		CardLoadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recruit_card_loads_total",
				Help: "Total card asset loads by card name and status",
			},
			[]string{"name", "status"}, // status: success, not_found, invalid
		),

		RateLimiterDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recruit_rate_limiter_dropped_total",
				Help: "Total number of outbound replies dropped by the rate limiter",
			},
			[]string{"limiter_type"},
		),
	}
}

// RecordWebhook records one processed inbound event.
func (m *Metrics) RecordWebhook(channel, eventType, status string, duration float64) {
	m.WebhookRequestsTotal.WithLabelValues(channel, eventType, status).Inc()
	m.WebhookDurationSeconds.WithLabelValues(channel, eventType).Observe(duration)
}

// RecordDispatch records the outcome of one dispatcher call.
func (m *Metrics) RecordDispatch(action, outcome string) {
	m.DispatchTotal.WithLabelValues(action, outcome).Inc()
}

// RecordStoreOperation records one availability store call.
func (m *Metrics) RecordStoreOperation(backend, op, status string, duration float64) {
	m.StoreOperationsTotal.WithLabelValues(backend, op, status).Inc()
	m.StoreDurationSeconds.WithLabelValues(backend, op).Observe(duration)
}

// RecordCardLoad records one card asset read.
func (m *Metrics) RecordCardLoad(name, status string) {
	m.CardLoadsTotal.WithLabelValues(name, status).Inc()
}

// RecordRateLimiterDrop records a reply dropped by a limiter.
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}
