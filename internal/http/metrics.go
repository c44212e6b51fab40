package http

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// serverMetrics holds the Prometheus instruments for one server. Each
// server carries its own registry so tests can spin up several without
// duplicate registration panics.
type serverMetrics struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
	rateLimit prometheus.Counter
}

func newServerMetrics() *serverMetrics {
	registry := prometheus.NewRegistry()

	m := &serverMetrics{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "opsdeck_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "pattern", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "opsdeck_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"pattern"}),
		rateLimit: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "opsdeck_http_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}),
	}

	registry.MustRegister(
		m.requests,
		m.durations,
		m.rateLimit,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *serverMetrics) observe(method, pattern string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, pattern, strconv.Itoa(status)).Inc()
	m.durations.WithLabelValues(pattern).Observe(elapsed.Seconds())
}
