package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics records per-route request counts, durations, and checkout
// outcomes.
type HTTPMetrics struct {
	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	ordersPlaced   *prometheus.CounterVec
	checkoutFailed *prometheus.CounterVec
}

// NewHTTPMetrics registers the request metrics on the provided registerer.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests processed, by method, route, and status.",
	}, []string{"method", "route", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	ordersPlaced := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders placed successfully, by payment method.",
	}, []string{"payment_method"})
	checkoutFailed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failures_total",
		Help: "Checkout attempts that failed, by reason.",
	}, []string{"reason"})
	reg.MustRegister(requests, duration, ordersPlaced, checkoutFailed)
	return &HTTPMetrics{
		requests:       requests,
		duration:       duration,
		ordersPlaced:   ordersPlaced,
		checkoutFailed: checkoutFailed,
	}
}

// ObserveRequest records one completed HTTP request.
func (m *HTTPMetrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	method = normalizeLabel(method)
	route = normalizeLabel(route)
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// IncOrderPlaced increments the order counter for the payment method.
func (m *HTTPMetrics) IncOrderPlaced(paymentMethod string) {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

// IncCheckoutFailure increments the failure counter for the given reason.
func (m *HTTPMetrics) IncCheckoutFailure(reason string) {
	if m == nil || m.checkoutFailed == nil {
		return
	}
	m.checkoutFailed.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
