package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInMemoryRecorder(t *testing.T) {
	m := NewInMemory()

	m.ObserveGatewayCall("reply", OutcomeSuccess, time.Second)
	m.ObserveGatewayCall("reply", OutcomeSuccess, time.Second)
	m.ObserveGatewayCall("generate", OutcomeError, 500*time.Millisecond)
	m.IncAuthFailure("invalid_format")
	m.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)

	snap := m.Snapshot()

	if got := snap.GatewayCalls["reply/success"]; got != 2 {
		t.Errorf("reply/success = %d, want 2", got)
	}
	if got := snap.GatewayCalls["generate/error"]; got != 1 {
		t.Errorf("generate/error = %d, want 1", got)
	}
	if got := snap.GatewayDurationTotalNs; got != int64(2500*time.Millisecond) {
		t.Errorf("duration total = %d, want %d", got, int64(2500*time.Millisecond))
	}
	if got := snap.AuthFailures["invalid_format"]; got != 1 {
		t.Errorf("auth failures = %d, want 1", got)
	}
	if snap.HTTPRequests != 1 {
		t.Errorf("http requests = %d, want 1", snap.HTTPRequests)
	}

	// Snapshot is a copy.
	snap.GatewayCalls["reply/success"] = 99
	if m.Snapshot().GatewayCalls["reply/success"] != 2 {
		t.Error("snapshot shares state with recorder")
	}
}

func TestPrometheusRecorder(t *testing.T) {
	p := NewPrometheus()

	p.ObserveGatewayCall("generate", OutcomeSuccess, 2*time.Second)
	p.ObserveGatewayCall("generate", OutcomeSuccess, time.Second)
	p.IncAuthFailure("missing_token")

	if got := testutil.ToFloat64(p.gatewayCalls.WithLabelValues("generate", OutcomeSuccess)); got != 2 {
		t.Errorf("gateway calls = %v, want 2", got)
	}
	if got := testutil.ToFloat64(p.authFailures.WithLabelValues("missing_token")); got != 1 {
		t.Errorf("auth failures = %v, want 1", got)
	}
}

func TestPrometheusRecorder_Handler(t *testing.T) {
	p := NewPrometheus()
	p.ObserveHTTPRequest("POST", "/api/assistant/reply", 200, 150*time.Millisecond)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body, _ := io.ReadAll(rec.Body)
	want := `assistant_http_requests_total{method="POST",route="/api/assistant/reply",status="200"} 1`
	if !strings.Contains(string(body), want) {
		t.Errorf("exposition missing %q", want)
	}
}
