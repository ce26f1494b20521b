package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests received.",
		},
		[]string{"method", "path", "code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "code"},
	)

	// outcome: verified, invalid_signature, invalid_input, write_failed
	PaymentVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verifications_total",
			Help: "Payment confirmations processed, by outcome.",
		},
		[]string{"outcome"},
	)

	// result: created, replayed, already_unlocked
	EntitlementsCommitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlements_committed_total",
			Help: "Entitlements committed, by kind and result.",
		},
		[]string{"kind", "result"},
	)

	// result: sent, render_failed, deliver_failed, dropped
	InvoiceDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoice_dispatch_total",
			Help: "Invoice dispatch jobs, by result.",
		},
		[]string{"result"},
	)

	GatewayOrders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_orders_total",
			Help: "Gateway order creation attempts, by result.",
		},
		[]string{"result"},
	)

	PaymentAmountMismatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_amount_mismatch_total",
			Help: "Verified payments whose reported amount differs from the stored order amount.",
		},
	)

	DispatchQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "invoice_dispatch_queue_depth",
			Help: "Invoice jobs waiting for a worker.",
		},
	)
)

// Middleware records request count and latency labelled by route pattern, not raw path.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			code := strconv.Itoa(c.Response().Status)
			method := c.Request().Method

			httpRequestsTotal.WithLabelValues(method, path, code).Inc()
			httpRequestDuration.WithLabelValues(method, path, code).Observe(time.Since(start).Seconds())

			return nil
		}
	}
}
