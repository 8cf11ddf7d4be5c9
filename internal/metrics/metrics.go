package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Metrics holds the order service collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	UseCases     *prometheus.CounterVec
	UseCaseTime  *prometheus.HistogramVec
	TxRetries    *prometheus.CounterVec
	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		UseCases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "use_case_total",
			Help:      "Order use case executions by outcome.",
		}, []string{"use_case", "outcome"}),
		UseCaseTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "use_case_duration_seconds",
			Help:      "Order use case latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"use_case"}),
		TxRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "tx_retries_total",
			Help:      "Transaction retries caused by lock contention.",
		}, []string{"use_case"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "status"}),
		HTTPLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	reg.MustRegister(m.UseCases, m.UseCaseTime, m.TxRetries, m.HTTPRequests, m.HTTPLatency)
	return m
}

// ObserveUseCase records one execution.
func (m *Metrics) ObserveUseCase(useCase, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.UseCases.WithLabelValues(useCase, outcome).Inc()
	m.UseCaseTime.WithLabelValues(useCase).Observe(elapsed.Seconds())
}

// IncRetry counts one retried transaction.
func (m *Metrics) IncRetry(useCase string) {
	if m == nil {
		return
	}
	m.TxRetries.WithLabelValues(useCase).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, status).Inc()
	m.HTTPLatency.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Handler exposes the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
