// Package metrics holds the Prometheus instrumentation of the storefront:
// HTTP request metrics plus the business counters for checkout, email
// broadcast and messaging.
//
//	m := metrics.New()
//	r.Use(m.Middleware())
//	r.GET("/metrics", m.Handler())
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Metrics owns its registry so tests can build isolated instances.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	RequestDuration *prometheus.HistogramVec
	RequestTotal    *prometheus.CounterVec
	RequestInFlight prometheus.Gauge

	OrdersPlaced     *prometheus.CounterVec
	CheckoutFailures *prometheus.CounterVec
	EmailsSent       *prometheus.CounterVec
	MessagesPosted   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		RequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		RequestInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served.",
		}),
		OrdersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders created by checkout.",
		}, []string{"payment_method"}),
		CheckoutFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_failures_total",
			Help:      "Checkouts rejected before an order was created.",
		}, []string{"reason"}), // validation | empty_cart | stock | internal
		EmailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_sent_total",
			Help:      "Broadcast emails by delivery outcome.",
		}, []string{"status"}), // sent | failed
		MessagesPosted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_posted_total",
			Help:      "Support messages posted.",
		}, []string{"side"}), // customer | staff
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestDuration,
		m.RequestTotal,
		m.RequestInFlight,
		m.OrdersPlaced,
		m.CheckoutFailures,
		m.EmailsSent,
		m.MessagesPosted,
	)
	return m
}

// Middleware records duration, count and in-flight requests. Routes are
// labelled by their template so ids do not explode cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		m.RequestInFlight.Inc()
		defer m.RequestInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.RequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		m.RequestTotal.WithLabelValues(c.Request.Method, route, status).Inc()
	}
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
	return gin.WrapH(h)
}

func (m *Metrics) OrderPlaced(paymentMethod string) {
	if m == nil {
		return
	}
	m.OrdersPlaced.WithLabelValues(paymentMethod).Inc()
}

func (m *Metrics) CheckoutFailed(reason string) {
	if m == nil {
		return
	}
	m.CheckoutFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) EmailsDelivered(sent, failed int) {
	if m == nil {
		return
	}
	m.EmailsSent.WithLabelValues("sent").Add(float64(sent))
	m.EmailsSent.WithLabelValues("failed").Add(float64(failed))
}

func (m *Metrics) MessagePosted(fromStaff bool) {
	if m == nil {
		return
	}
	side := "customer"
	if fromStaff {
		side = "staff"
	}
	m.MessagesPosted.WithLabelValues(side).Inc()
}
