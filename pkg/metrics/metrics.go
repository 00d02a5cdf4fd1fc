package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Metrics holds all Prometheus collectors
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Marketplace metrics
	ListingsCreated   prometheus.Counter
	ListingViews      prometheus.Counter
	InquiriesCreated  prometheus.Counter
	InquiryResponses  prometheus.Counter
	RatingsSubmitted  prometheus.Counter
	AgentsCreated     prometheus.Counter
	EmailsSent        *prometheus.CounterVec
	PricesNormalized  *prometheus.CounterVec
	SearchesPerformed prometheus.Counter

	// Database metrics
	DBConnectionsOpen prometheus.Gauge
	DBConnectionsIdle prometheus.Gauge
}

var (
	metrics *Metrics
	once    sync.Once
)

// Get returns the process-wide metrics, registering them on first use.
func Get() *Metrics {
	once.Do(func() {
		metrics = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request duration in seconds",
					Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
				},
				[]string{"method", "path"},
			),
			HTTPRequestsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			}),

			ListingsCreated: promauto.NewCounter(prometheus.CounterOpts{
				Name: "listings_created_total",
				Help: "Total number of listings created",
			}),
			ListingViews: promauto.NewCounter(prometheus.CounterOpts{
				Name: "listing_views_total",
				Help: "Total number of listing detail views",
			}),
			InquiriesCreated: promauto.NewCounter(prometheus.CounterOpts{
				Name: "inquiries_created_total",
				Help: "Total number of inquiries submitted",
			}),
			InquiryResponses: promauto.NewCounter(prometheus.CounterOpts{
				Name: "inquiry_responses_total",
				Help: "Total number of inquiry responses sent by agents",
			}),
			RatingsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
				Name: "agent_ratings_submitted_total",
				Help: "Total number of agent ratings created or updated",
			}),
			AgentsCreated: promauto.NewCounter(prometheus.CounterOpts{
				Name: "agents_created_total",
				Help: "Total number of agents created",
			}),
			EmailsSent: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "emails_sent_total",
					Help: "Outbound notification emails by result",
				},
				[]string{"template", "result"},
			),
			PricesNormalized: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "listing_prices_normalized_total",
					Help: "Listing prices touched by the price normalization job",
				},
				[]string{"outcome"},
			),
			SearchesPerformed: promauto.NewCounter(prometheus.CounterOpts{
				Name: "searches_performed_total",
				Help: "Total number of global searches",
			}),

			DBConnectionsOpen: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "db_connections_open",
				Help: "Number of open database connections",
			}),
			DBConnectionsIdle: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "db_connections_idle",
				Help: "Number of idle database connections",
			}),
		}
	})
	return metrics
}

// Handler serves the Prometheus exposition format on a fiber route.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

// Middleware records request count, latency and in-flight gauge.
func Middleware() fiber.Handler {
	m := Get()
	return func(c *fiber.Ctx) error {
		start := time.Now()
		method := c.Method()

		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		err := c.Next()

		// route pattern keeps label cardinality bounded
		path := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		return err
	}
}

// RecordEmail counts a notification send attempt.
func RecordEmail(template string, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	Get().EmailsSent.WithLabelValues(template, result).Inc()
}

// RecordDBStats copies the pool stats of db into the connection gauges.
func RecordDBStats(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	stats := sqlDB.Stats()
	Get().DBConnectionsOpen.Set(float64(stats.OpenConnections))
	Get().DBConnectionsIdle.Set(float64(stats.Idle))
}
