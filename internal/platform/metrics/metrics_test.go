package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestMetrics_counters(t *testing.T) {
	m := New()
	m.UploadCommitted(100)
	m.UploadCommitted(50)
	m.UploadRejected("payload_too_large")
	m.ClipDeleted()

	out := scrape(t, m)
	for _, want := range []string{
		"clipstore_uploads_committed_total 2",
		"clipstore_bytes_committed_total 150",
		`clipstore_uploads_rejected_total{reason="payload_too_large"} 1`,
		"clipstore_clips_deleted_total 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestMetrics_capacity_gauge(t *testing.T) {
	m := New()
	remaining := int64(600)
	m.RegisterCapacity(func() int64 { return remaining })

	if out := scrape(t, m); !strings.Contains(out, "clipstore_capacity_remaining_bytes 600") {
		t.Errorf("expected gauge 600:\n%s", out)
	}
	remaining = -5
	if out := scrape(t, m); !strings.Contains(out, "clipstore_capacity_remaining_bytes -5") {
		t.Errorf("expected gauge -5:\n%s", out)
	}
}

func TestRequestMiddleware_route_pattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(RequestMiddleware(m))
	r.Get("/get/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/get/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/get/def", nil))

	out := scrape(t, m)
	if !strings.Contains(out, `clipstore_requests_total{code="4xx",route="/get/{id}"} 2`) {
		t.Errorf("expected route pattern label:\n%s", out)
	}
	if !strings.Contains(out, "clipstore_errors_total 2") {
		t.Errorf("expected 2 errors:\n%s", out)
	}
}
