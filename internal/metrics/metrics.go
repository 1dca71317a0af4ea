// Package metrics exposes Prometheus instrumentation for the API and the
// channel monitor tasks.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_requests_latency_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Operation log
	OperationLogsRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "operation_logs_recorded_total",
			Help: "Operation log entries recorded",
		},
		[]string{"module", "action"},
	)
	OperationLogRecordFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "operation_log_record_failures_total",
			Help: "Operation log inserts that failed",
		},
	)

	// Channel monitor
	ChannelProbesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "channel_probes_total",
			Help: "Channel auto-enable probe attempts",
		},
		[]string{"outcome"}, // success|failure
	)
	ChannelsAutoEnabled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "channels_auto_enabled_total",
			Help: "Channels re-enabled by the monitor",
		},
	)
	ChannelRateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "channel_rate_limited_total",
			Help: "Requests rejected by the channel RPM limiter",
		},
	)
)

// Handler serves the /metrics endpoint.
var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestLatency)
	prometheus.MustRegister(OperationLogsRecorded)
	prometheus.MustRegister(OperationLogRecordFailures)
	prometheus.MustRegister(ChannelProbesTotal)
	prometheus.MustRegister(ChannelsAutoEnabled)
	prometheus.MustRegister(ChannelRateLimited)
}

// HTTPMetrics returns a Gin middleware that records request counts and
// latency per route pattern.
func HTTPMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := strconv.Itoa(c.Writer.Status())
		RequestsTotal.WithLabelValues(route, c.Request.Method, status).Inc()
		RequestLatency.WithLabelValues(c.Request.Method, route, status).
			Observe(time.Since(start).Seconds())
	}
}
