package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew_CountersStartAtZero(t *testing.T) {
	m := New()

	if got := testutil.ToFloat64(m.EventsReceived); got != 0 {
		t.Errorf("EventsReceived = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.LinesSent); got != 0 {
		t.Errorf("LinesSent = %v, want 0", got)
	}
}

func TestCounters_Increment(t *testing.T) {
	m := New()

	m.EventsReceived.Inc()
	m.EventsSkipped.Inc()
	m.LinesSent.Add(3)
	m.LinesDropped.Inc()
	m.Reconnects.Inc()

	if got := testutil.ToFloat64(m.EventsReceived); got != 1 {
		t.Errorf("EventsReceived = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LinesSent); got != 3 {
		t.Errorf("LinesSent = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.LinesDropped); got != 1 {
		t.Errorf("LinesDropped = %v, want 1", got)
	}
}

func TestNew_IndependentRegistries(t *testing.T) {
	// Two instances must not collide, unlike default-registry registration.
	a := New()
	b := New()

	a.LinesSent.Inc()

	if got := testutil.ToFloat64(b.LinesSent); got != 0 {
		t.Errorf("second instance LinesSent = %v, want 0", got)
	}
}

func TestHandler_ServesExposition(t *testing.T) {
	m := New()
	m.LinesSent.Add(7)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "graphite_feeder_lines_sent_total 7") {
		t.Errorf("exposition missing lines_sent counter:\n%s", body)
	}
}
