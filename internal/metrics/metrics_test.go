package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandler_nilMetrics(t *testing.T) {
	var m *Metrics
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	m.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if got := rr.Body.String(); !strings.Contains(got, "metrics unavailable") {
		t.Fatalf("expected body to mention metrics unavailable, got %q", got)
	}
}

func TestNilMetrics_RecordersAreNoops(t *testing.T) {
	var m *Metrics
	m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	m.ObserveResolution("normal", true)
	m.IncCacheInvalidation()
	m.IncConfigurationError()
	m.IncDeviceDetection("desktop")
}

func TestHandler_exposesRegisteredMetrics(t *testing.T) {
	m := New()
	m.ObserveHTTPRequest(http.MethodGet, "/readyz", http.StatusOK, 12*time.Millisecond)
	m.ObserveResolution("normal", false)
	m.ObserveResolution("normal", true)
	m.ObserveResolution("expanded", true)
	m.IncCacheInvalidation()
	m.IncConfigurationError()
	m.IncDeviceDetection("mobile")

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	m.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	body := rr.Body.String()
	expected := []string{
		"zoomtier_http_requests_total{method=\"GET\",path=\"/readyz\",status=\"200\"} 1",
		"zoomtier_resolutions_total{level=\"normal\"} 2",
		"zoomtier_resolutions_total{level=\"expanded\"} 1",
		"zoomtier_cache_hits_total 2",
		"zoomtier_cache_misses_total 1",
		"zoomtier_cache_invalidations_total 1",
		"zoomtier_configuration_errors_total 1",
		"zoomtier_device_detections_total{device_type=\"mobile\"} 1",
	}
	for _, want := range expected {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics output; body=%s", want, body)
		}
	}
}
