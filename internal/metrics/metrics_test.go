package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCountersAndHandler(t *testing.T) {
	m := New()
	m.ObserveRequest("cache-hit")
	m.ObserveRequest("cache-hit")
	m.ObserveProvider("crossref", 404, 30*time.Millisecond)
	m.CacheError("get")
	m.RefreshEvent("published")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`publication_requests_total{outcome="cache-hit"} 2`,
		`provider_requests_total{provider="crossref",status="404"} 1`,
		"provider_request_duration_seconds_bucket",
		`cache_errors_total{op="get"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("cache-miss")
	m.ObserveProvider("crossref", 200, time.Millisecond)
	m.CacheError("put")
	m.RefreshEvent("failed")
	if m.Registry() != nil {
		t.Fatalf("nil metrics should expose no registry")
	}
}
