package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP Metrics
var (
	// HTTPRequestsTotal tracks requests by route template, method and status code
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by route, method and status",
		},
		[]string{"route", "method", "status"},
	)

	// HTTPRequestDuration tracks request latency in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"route", "method"},
	)

	// RateLimitRejections tracks requests refused by a write limiter
	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Requests rejected by a rate limiter, by limiter name",
		},
		[]string{"limiter"},
	)
)

// Menu Metrics
var (
	// MenusSavedTotal tracks menu writes by operation (create/update/publish) and resulting status
	MenusSavedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menus_saved_total",
			Help: "Weekly menu writes by operation and resulting status",
		},
		[]string{"operation", "status"},
	)

	// MenusDeletedTotal tracks deleted weekly menus
	MenusDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "menus_deleted_total",
			Help: "Total weekly menus deleted",
		},
	)

	// PublishRejectedTotal tracks publish attempts refused because slots were empty
	PublishRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "menus_publish_rejected_total",
			Help: "Publish attempts refused because the menu was incomplete",
		},
	)

	// LastUsedCacheTotal tracks last-used cache lookups by result (hit/miss/error)
	LastUsedCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "last_used_cache_lookups_total",
			Help: "Dish last-used cache lookups by result",
		},
		[]string{"result"},
	)
)

// Auth Metrics
var (
	// LoginsTotal tracks successful and failed sign-ins by method (password/google/github)
	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Sign-in attempts by method and result",
		},
		[]string{"method", "result"},
	)
)

// Middleware records request count and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
