// Package metrics exposes Prometheus collectors for the API and the
// gamification core.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "inkpost"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	// CheckIns counts check-in calls by result (awarded, repeat, not_found, error).
	CheckIns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gamification",
			Name:      "checkins_total",
			Help:      "Total number of daily check-in calls.",
		},
		[]string{"result"},
	)

	// PointsAwarded sums points granted by check-ins.
	PointsAwarded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gamification",
			Name:      "points_awarded_total",
			Help:      "Total points awarded by check-ins.",
		},
	)

	// ChallengesAssigned counts milestone challenge assignments.
	ChallengesAssigned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gamification",
			Name:      "challenges_assigned_total",
			Help:      "Total number of challenges assigned on streak milestones.",
		},
	)

	// FollowOps counts follow graph mutations by operation and result.
	FollowOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "follow",
			Name:      "operations_total",
			Help:      "Total number of follow graph mutations.",
		},
		[]string{"op", "result"},
	)

	// CacheBreakerState is 0 closed, 1 half-open, 2 open.
	CacheBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state of the cache backend.",
		},
		[]string{"name"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		CheckIns,
		PointsAwarded,
		ChallengesAssigned,
		FollowOps,
		CacheBreakerState,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request counts and latency per matched route.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
