package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "napcube"

var (
	once sync.Once

	ordersIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_orders_total",
			Help:      "Payment orders requested from the provider by outcome.",
		},
		[]string{"outcome"},
	)

	verifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_verifications_total",
			Help:      "Payment verifications by outcome.",
		},
		[]string{"outcome"},
	)

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_transitions_total",
			Help:      "Booking status transitions by target status and reason or verification mode.",
		},
		[]string{"status", "via"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(ordersIssued, verifications, bookingTransitions, httpRequests)
	})
}

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncOrder counts a create-order attempt: issued, upstream_error, unlinked, rejected
func IncOrder(outcome string) {
	ordersIssued.WithLabelValues(outcome).Inc()
}

// IncVerification counts a verify attempt: confirmed, duplicate, invalid, mismatch, replay, conflict, error
func IncVerification(outcome string) {
	verifications.WithLabelValues(outcome).Inc()
}

// IncTransition counts a booking leaving pending
func IncTransition(status, via string) {
	bookingTransitions.WithLabelValues(status, via).Inc()
}

// AddTransitions counts n bookings leaving pending the same way
func AddTransitions(status, via string, n int) {
	bookingTransitions.WithLabelValues(status, via).Add(float64(n))
}

// IncHTTP increments the counter for a route and status code
func IncHTTP(route, code string) {
	httpRequests.WithLabelValues(route, code).Inc()
}
