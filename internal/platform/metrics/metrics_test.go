package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordersAndHandler(t *testing.T) {
	m := New()
	m.RunTransition("queued")
	m.RunTransition("queued")
	m.MirrorFailure("nats")
	m.BudgetRemaining(42)

	if got := testutil.ToFloat64(m.runs.WithLabelValues("queued")); got != 2 {
		t.Fatalf("runs{queued}=%v, want 2", got)
	}
	if got := testutil.ToFloat64(m.budget); got != 42 {
		t.Fatalf("budget=%v, want 42", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "orchestration_mirror_failures_total") {
		t.Fatalf("expected mirror failure series in output")
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RunTransition("failed")
	m.Suggestion()
	m.MirrorFailure("archive")
	m.TierFailure("redis", "put")
	m.BudgetRemaining(1)
	m.ObserveRequest("GET", 200, time.Millisecond)
}

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest("POST", 202, 30*time.Millisecond)
	m.ObserveRequest("POST", 202, 10*time.Millisecond)
	if got := testutil.CollectAndCount(m.requests, "orchestration_http_request_duration_seconds"); got != 1 {
		t.Fatalf("series=%d, want 1", got)
	}
}
