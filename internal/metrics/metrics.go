package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes application metrics that are safe to scrape via Prometheus.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	resolutions         *prometheus.CounterVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	cacheInvalidations  prometheus.Counter
	configErrors        prometheus.Counter
	deviceDetections    *prometheus.CounterVec
}

// New creates a fresh Metrics registry with HTTP and resolution metrics registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zoomtier",
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests processed by core-go",
	}, []string{"method", "path", "status"})

	httpRequestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "zoomtier",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests served by core-go",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zoomtier",
		Name:      "resolutions_total",
		Help:      "Content level resolutions by resulting level",
	}, []string{"level"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "zoomtier",
		Name:      "cache_hits_total",
		Help:      "Resolutions answered from the quantized scale cache",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "zoomtier",
		Name:      "cache_misses_total",
		Help:      "Resolutions that required a threshold scan",
	})

	cacheInvalidations := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "zoomtier",
		Name:      "cache_invalidations_total",
		Help:      "Full cache clears caused by threshold changes",
	})

	configErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "zoomtier",
		Name:      "configuration_errors_total",
		Help:      "Resolutions aborted because thresholds were invalid",
	})

	deviceDetections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zoomtier",
		Name:      "device_detections_total",
		Help:      "Device profile detections by resulting device type",
	}, []string{"device_type"})

	registry.MustRegister(
		httpRequests,
		httpRequestDuration,
		resolutions,
		cacheHits,
		cacheMisses,
		cacheInvalidations,
		configErrors,
		deviceDetections,
	)

	return &Metrics{
		registry:            registry,
		httpRequests:        httpRequests,
		httpRequestDuration: httpRequestDuration,
		resolutions:         resolutions,
		cacheHits:           cacheHits,
		cacheMisses:         cacheMisses,
		cacheInvalidations:  cacheInvalidations,
		configErrors:        configErrors,
		deviceDetections:    deviceDetections,
	}
}

// ObserveHTTPRequest records a single HTTP request/response cycle.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(duration.Seconds())
}

// ObserveResolution records one resolved level and whether the cache answered it.
func (m *Metrics) ObserveResolution(level string, cacheHit bool) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(level).Inc()
	if cacheHit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

func (m *Metrics) IncCacheInvalidation() {
	if m == nil {
		return
	}
	m.cacheInvalidations.Inc()
}

func (m *Metrics) IncConfigurationError() {
	if m == nil {
		return
	}
	m.configErrors.Inc()
}

func (m *Metrics) IncDeviceDetection(deviceType string) {
	if m == nil {
		return
	}
	m.deviceDetections.WithLabelValues(deviceType).Inc()
}

// Handler exposes the Prometheus registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
