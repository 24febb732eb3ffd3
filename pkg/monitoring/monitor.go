package monitoring

import (
	"strconv"
	"sync"
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
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// StudyRecordCounter counts progress updates by item type and outcome
	// (created, reviewed, failed, skipped).
	StudyRecordCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "study_records_total",
			Help: "Progress tracker invocations",
		},
		[]string{"item_type", "outcome"},
	)

	CompanionReplyCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "companion_replies_total",
			Help: "Canned companion replies by intent and language",
		},
		[]string{"intent", "language"},
	)

	ActiveChatSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_sessions_active",
			Help: "Chat sessions currently held in memory",
		},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(StudyRecordCounter)
		prometheus.MustRegister(CompanionReplyCounter)
		prometheus.MustRegister(ActiveChatSessions)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
