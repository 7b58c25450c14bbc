package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/spec-kit/tradein-service/internal/domain"
)

// Metrics holds the Prometheus collectors of the service. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec
	requestsCreated     *prometheus.CounterVec
	statusTransitions   *prometheus.CounterVec
	transitionRejected  *prometheus.CounterVec
	notificationsFailed *prometheus.CounterVec
	estimatedPrice      prometheus.Histogram
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tradein_http_requests_total",
			Help: "Total number of HTTP requests handled.",
		}, []string{"method", "path", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tradein_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tradein_http_errors_total",
			Help: "Total number of HTTP requests that ended in an error response.",
		}, []string{"method", "path", "code"}),
		requestsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tradein_requests_created_total",
			Help: "Total number of trade-in requests created.",
		}, []string{"device_type"}),
		statusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tradein_status_transitions_total",
			Help: "Total number of committed status transitions.",
		}, []string{"from", "to"}),
		transitionRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tradein_transition_rejections_total",
			Help: "Total number of status changes refused by the lifecycle.",
		}, []string{"code"}),
		notificationsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tradein_notification_failures_total",
			Help: "Total number of status notifications that could not be delivered.",
		}, []string{"status", "code"}),
		estimatedPrice: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradein_estimated_price",
			Help:    "Distribution of initial estimates.",
			Buckets: []float64{25, 50, 100, 200, 300, 500, 750, 1000, 1500},
		}),
	}
}

// Registry exposes the registry for the /metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.httpErrors.WithLabelValues(method, path, code).Inc()
}

// RecordCreated counts a new request and its estimate.
func (m *Metrics) RecordCreated(deviceType domain.DeviceType, estimate float64) {
	if m == nil {
		return
	}
	m.requestsCreated.WithLabelValues(string(deviceType)).Inc()
	m.estimatedPrice.Observe(estimate)
}

// RecordTransition counts a committed status change.
func (m *Metrics) RecordTransition(from, to domain.TradeInStatus) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(string(from), string(to)).Inc()
}

// RecordRejectedTransition counts a status change refused with the given error code.
func (m *Metrics) RecordRejectedTransition(code string) {
	if m == nil {
		return
	}
	m.transitionRejected.WithLabelValues(code).Inc()
}

// RecordNotificationFailure counts a failed notification.
func (m *Metrics) RecordNotificationFailure(status domain.TradeInStatus, code string) {
	if m == nil {
		return
	}
	m.notificationsFailed.WithLabelValues(string(status), code).Inc()
}
