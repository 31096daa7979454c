package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func scrape(t *testing.T, reg *prometheus.Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	NewServer("0", reg, nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	return rec.Body.String()
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordHTTPRequest("GET", "/ping", 200, time.Millisecond)
	m.RecordSearch("ok", 3)
	m.RecordSuggestion("suggest", "mock")
	m.RecordSuggestionFallback("starter")
	m.RecordStarterCache("hit")
	m.RecordGateDecision("allow")
	m.ObserveDBQuery("list", time.Now())
}

func TestRecordersIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordHTTPRequest("GET", "/api/search", 400, time.Millisecond)
	m.RecordHTTPRequest("GET", "/api/search", 200, time.Millisecond)
	m.RecordSuggestionFallback("starter")
	m.RecordSearch("ok", 4)

	out := scrape(t, reg)
	for _, want := range []string{
		`chatsearch_http_requests_total{method="GET",route="/api/search",status="4xx"} 1`,
		`chatsearch_http_requests_total{method="GET",route="/api/search",status="2xx"} 1`,
		`chatsearch_suggestion_fallbacks_total{kind="starter"} 1`,
		`chatsearch_search_results_total 4`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in metrics output", want)
		}
	}
}

func TestServerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.RecordGateDecision("redirect_guest")

	if !strings.Contains(scrape(t, reg), `chatsearch_gate_decisions_total{decision="redirect_guest"} 1`) {
		t.Fatalf("expected gate metric in output")
	}

	srv := NewServer("0", reg, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected health 200, got %d", rec.Code)
	}
}
