package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	signalsCreated  prometheus.Counter
	purchases       prometheus.Counter
	purchaseVolume  prometheus.Counter
	ratings         *prometheus.CounterVec
	sweepRuns       *prometheus.CounterVec
	sweepExpired    prometheus.Counter
	notifications   *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "signalshub"
	}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		signalsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_created_total",
			Help:      "Signals published",
		}),
		purchases: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purchases_total",
			Help:      "Purchases recorded",
		}),
		purchaseVolume: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purchase_volume_eth_total",
			Help:      "Gross ETH paid for signals",
		}),
		ratings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ratings_total",
				Help:      "Ratings submitted by kind",
			},
			[]string{"kind"},
		),
		sweepRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "expiry_sweeps_total",
				Help:      "Expiry sweep runs by outcome",
			},
			[]string{"outcome"},
		),
		sweepExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_expired_total",
			Help:      "Signals flipped to expired by the sweep",
		}),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Notifications queued by type",
			},
			[]string{"type"},
		),
	}
	m.registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		m.requestCounter,
		m.requestDuration,
		m.signalsCreated,
		m.purchases,
		m.purchaseVolume,
		m.ratings,
		m.sweepRuns,
		m.sweepExpired,
		m.notifications,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.requestCounter.WithLabelValues(c.Request.Method, route, status).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) SignalCreated() {
	if m == nil {
		return
	}
	m.signalsCreated.Inc()
}

func (m *Metrics) PurchaseRecorded(amountETH float64) {
	if m == nil {
		return
	}
	m.purchases.Inc()
	if amountETH > 0 {
		m.purchaseVolume.Add(amountETH)
	}
}

func (m *Metrics) RatingRecorded(kind string) {
	if m == nil {
		return
	}
	m.ratings.WithLabelValues(kind).Inc()
}

func (m *Metrics) SweepFinished(outcome string, expired int) {
	if m == nil {
		return
	}
	m.sweepRuns.WithLabelValues(outcome).Inc()
	if expired > 0 {
		m.sweepExpired.Add(float64(expired))
	}
}

func (m *Metrics) NotificationQueued(typ string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(typ).Inc()
}
