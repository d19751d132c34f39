package monitoring

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AeroNyxNetwork/nodeboard/pkg/cache"
)

// MetricsCollector manages Prometheus metrics for a service
type MetricsCollector struct {
	serviceName string

	// Standard HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	activeConnections   prometheus.Gauge
	serviceInfo         *prometheus.GaugeVec

	// Custom metrics registry
	customMetrics map[string]prometheus.Collector
}

// NewMetricsCollector creates a new metrics collector for a service
func NewMetricsCollector(serviceName, version, commit string) *MetricsCollector {
	// Sanitize service name for Prometheus (replace hyphens with underscores)
	sanitizedServiceName := strings.ReplaceAll(serviceName, "-", "_")

	mc := &MetricsCollector{
		serviceName:   sanitizedServiceName,
		customMetrics: make(map[string]prometheus.Collector),
	}

	// Standard HTTP metrics
	mc.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: mc.serviceName + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	mc.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    mc.serviceName + "_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	mc.activeConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: mc.serviceName + "_active_connections",
			Help: "Number of active connections",
		},
	)

	mc.serviceInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: mc.serviceName + "_service_info",
			Help: "Service information",
		},
		[]string{"version", "commit"},
	)

	// Register standard metrics
	prometheus.MustRegister(mc.httpRequestsTotal)
	prometheus.MustRegister(mc.httpRequestDuration)
	prometheus.MustRegister(mc.activeConnections)
	prometheus.MustRegister(mc.serviceInfo)

	// Set service info
	mc.serviceInfo.WithLabelValues(version, commit).Set(1)

	return mc
}

// RegisterCustomMetric registers a custom Prometheus metric
func (mc *MetricsCollector) RegisterCustomMetric(name string, metric prometheus.Collector) {
	mc.customMetrics[name] = metric
	prometheus.MustRegister(metric)
}

// MetricsMiddleware returns middleware that collects HTTP metrics
func (mc *MetricsCollector) MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Increment active connections
		mc.activeConnections.Inc()
		defer mc.activeConnections.Dec()

		// Process request
		c.Next()

		// Record metrics
		duration := time.Since(start).Seconds()
		method := c.Request.Method
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		status := strconv.Itoa(c.Writer.Status())

		mc.httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
		mc.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
	}
}

// Handler returns the Prometheus metrics HTTP handler
func (mc *MetricsCollector) Handler() gin.HandlerFunc {
	handler := promhttp.Handler()
	return func(c *gin.Context) {
		handler.ServeHTTP(c.Writer, c.Request)
	}
}

// Service-specific metric helpers

// NewCounter creates a new counter metric for the service
func (mc *MetricsCollector) NewCounter(name, help string, labels []string) *prometheus.CounterVec {
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: mc.serviceName + "_" + name,
			Help: help,
		},
		labels,
	)
	mc.RegisterCustomMetric(name, counter)
	return counter
}

// NewGauge creates a new gauge metric for the service
func (mc *MetricsCollector) NewGauge(name, help string, labels []string) *prometheus.GaugeVec {
	gauge := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: mc.serviceName + "_" + name,
			Help: help,
		},
		labels,
	)
	mc.RegisterCustomMetric(name, gauge)
	return gauge
}

// NewHistogram creates a new histogram metric for the service
func (mc *MetricsCollector) NewHistogram(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}

	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    mc.serviceName + "_" + name,
			Help:    help,
			Buckets: buckets,
		},
		labels,
	)
	mc.RegisterCustomMetric(name, histogram)
	return histogram
}

// CacheMetrics bundles the counters the resource cache reports into.
type CacheMetrics struct {
	Hits   *prometheus.CounterVec
	Misses *prometheus.CounterVec
	Stale  *prometheus.CounterVec
	Stores *prometheus.CounterVec
	Errors *prometheus.CounterVec
}

// CreateCacheMetrics creates the standard cache counters, labeled by
// resource family.
func (mc *MetricsCollector) CreateCacheMetrics() *CacheMetrics {
	return &CacheMetrics{
		Hits:   mc.NewCounter("cache_hits_total", "Cache hits", []string{"resource"}),
		Misses: mc.NewCounter("cache_misses_total", "Cache misses", []string{"resource"}),
		Stale:  mc.NewCounter("cache_stale_serves_total", "Stale cache entries served while revalidating", []string{"resource"}),
		Stores: mc.NewCounter("cache_stores_total", "Cache stores", []string{"resource", "ok"}),
		Errors: mc.NewCounter("cache_load_errors_total", "Cache loader failures", []string{"resource"}),
	}
}

// Hooks adapts the counters to the cache's callback interface.
func (cm *CacheMetrics) Hooks() cache.MetricsHooks {
	resource := func(labels map[string]string) string {
		if r, ok := labels["resource"]; ok && r != "" {
			return r
		}
		return "unknown"
	}
	return cache.MetricsHooks{
		OnHit:  func(labels map[string]string) { cm.Hits.WithLabelValues(resource(labels)).Inc() },
		OnMiss: func(labels map[string]string) { cm.Misses.WithLabelValues(resource(labels)).Inc() },
		OnStale: func(labels map[string]string) {
			cm.Stale.WithLabelValues(resource(labels)).Inc()
		},
		OnStore: func(labels map[string]string) {
			ok := labels["ok"]
			if ok == "" {
				ok = "true"
			}
			cm.Stores.WithLabelValues(resource(labels), ok).Inc()
		},
		OnError: func(labels map[string]string) { cm.Errors.WithLabelValues(resource(labels)).Inc() },
	}
}

// WatchMetrics bundles the metrics the watch-mode poller reports into.
type WatchMetrics struct {
	PollCycles      *prometheus.CounterVec   // by resource, status
	NodeTransitions *prometheus.CounterVec   // by from, to
	APIErrors       *prometheus.CounterVec   // by kind
	NodesByState    *prometheus.GaugeVec     // by state
	PollDuration    *prometheus.HistogramVec // by resource
}

// CreateWatchMetrics creates the watch-mode poller metrics.
func (mc *MetricsCollector) CreateWatchMetrics() *WatchMetrics {
	return &WatchMetrics{
		PollCycles:      mc.NewCounter("poll_cycles_total", "Polling cycles", []string{"resource", "status"}),
		NodeTransitions: mc.NewCounter("node_state_transitions_total", "Observed node state transitions", []string{"from", "to"}),
		APIErrors:       mc.NewCounter("api_errors_total", "API call failures by kind", []string{"kind"}),
		NodesByState:    mc.NewGauge("nodes_observed", "Nodes in the last poll by reported state", []string{"state"}),
		PollDuration:    mc.NewHistogram("poll_duration_seconds", "API poll duration in seconds", []string{"resource"}, nil),
	}
}
