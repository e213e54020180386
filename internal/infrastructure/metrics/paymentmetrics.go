// Package metrics exposes Prometheus collectors for payment flows and HTTP traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tribe"

// PaymentMetrics implements the payment use cases' Metrics port.
type PaymentMetrics struct {
	initiated       *prometheus.CounterVec
	settled         *prometheus.CounterVec
	failed          *prometheus.CounterVec
	webhookReplayed prometheus.Counter
}

func NewPaymentMetrics(registry prometheus.Registerer) *PaymentMetrics {
	factory := promauto.With(registry)

	return &PaymentMetrics{
		initiated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payments_initiated_total",
				Help:      "Payments started, by kind (subscription, portal, portal_free).",
			},
			[]string{"kind"},
		),
		settled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payments_settled_total",
				Help:      "Payments settled into a membership or portal plan, by source.",
			},
			[]string{"source"},
		),
		failed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payments_failed_total",
				Help:      "Transactions marked failed, by failure reason.",
			},
			[]string{"reason"},
		),
		webhookReplayed: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_replays_total",
				Help:      "Signed webhooks acknowledged as replays of an already settled event.",
			},
		),
	}
}

func (m *PaymentMetrics) PaymentInitiated(kind string) {
	m.initiated.WithLabelValues(kind).Inc()
}

func (m *PaymentMetrics) PaymentSettled(source string) {
	m.settled.WithLabelValues(source).Inc()
}

func (m *PaymentMetrics) PaymentFailed(reason string) {
	m.failed.WithLabelValues(reason).Inc()
}

func (m *PaymentMetrics) WebhookReplayed() {
	m.webhookReplayed.Inc()
}

// HTTPMetrics records request counts and latency per matched route.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics(registry prometheus.Registerer) *HTTPMetrics {
	factory := promauto.With(registry)

	return &HTTPMetrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status code.",
			},
			[]string{"method", "route", "status"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by method and route.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

func (m *HTTPMetrics) Observe(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
