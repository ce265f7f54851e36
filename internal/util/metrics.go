package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CartMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by operation and result",
	}, []string{"operation", "result"})

	WishlistMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wishlist_mutations_total",
		Help: "Wishlist mutations by operation and result",
	}, []string{"operation", "result"})

	ChangeEventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "change_events_published_total",
		Help: "Aggregate change events published by kind and result",
	}, []string{"kind", "result"})

	CompositePartialFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "composite_partial_failures_total",
		Help: "Composite operations that stopped part way",
	}, []string{"operation"})

	CompensationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "compensations_total",
		Help: "Compensating steps run after a failed composite step",
	}, []string{"operation", "result"})

	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of failed orders",
	}, []string{"reason"})

	PaymentsSettledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_settled_total",
		Help: "Total number of stub payments settled",
	})

	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logins_total",
		Help: "Login attempts by result",
	}, []string{"result"})

	RateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limited_requests_total",
		Help: "Requests rejected by the rate limiter",
	}, []string{"path"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)

// Result labels a counter with the outcome of err
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
