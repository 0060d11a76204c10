package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	ReviewsRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "srs_reviews_recorded_total",
			Help: "Total ratings recorded, by rating name",
		},
		[]string{"rating"},
	)

	ReviewConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "srs_review_version_conflicts_total",
			Help: "Optimistic-concurrency conflicts hit while recording reviews",
		},
	)

	OptimizerJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "srs_optimizer_jobs_total",
			Help: "Background jobs finished, by kind and terminal status",
		},
		[]string{"kind", "status"},
	)

	OptimizerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "srs_optimizer_job_duration_seconds",
			Help:    "Background job runtime, by kind",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"kind"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ReviewsRecorded)
	prometheus.MustRegister(ReviewConflicts)
	prometheus.MustRegister(OptimizerJobs)
	prometheus.MustRegister(OptimizerDuration)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
