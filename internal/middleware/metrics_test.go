package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/recipebox/internal/metrics"
)

type recordedRequest struct {
	method string
	route  string
	status int
}

// recordingCollector はHTTPリクエストの記録内容を保持する。
type recordingCollector struct {
	metrics.NopCollector
	mu       sync.Mutex
	requests []recordedRequest
}

func (c *recordingCollector) RecordHTTPRequest(method, route string, statusCode int, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, recordedRequest{method: method, route: route, status: statusCode})
}

func TestMetricsMiddleware_RecordsRoutePattern(t *testing.T) {
	collector := &recordingCollector{}

	r := chi.NewRouter()
	r.Use(NewMetricsMiddleware(collector))
	r.Get("/tags/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/tags/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	if len(collector.requests) != 2 {
		t.Fatalf("recorded = %d, want 2", len(collector.requests))
	}
	if got := collector.requests[0]; got.route != "/tags/{id}" || got.status != http.StatusOK || got.method != http.MethodGet {
		t.Errorf("first = %+v", got)
	}
	if got := collector.requests[1]; got.route != unmatchedRoute || got.status != http.StatusNotFound {
		t.Errorf("second = %+v", got)
	}
}
