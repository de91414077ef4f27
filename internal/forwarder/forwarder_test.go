package forwarder

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nerrad567/gray-logic-graphite/internal/graphite"
	"github.com/nerrad567/gray-logic-graphite/internal/metrics"
)

// syntheticSource feeds events straight into the subscribed handler.
type syntheticSource struct {
	handler func(graphite.StateChangeEvent)
	err     error
}

func (s *syntheticSource) SubscribeStateChanges(handler func(graphite.StateChangeEvent)) error {
	if s.err != nil {
		return s.err
	}
	s.handler = handler
	return nil
}

func (s *syntheticSource) emit(ev graphite.StateChangeEvent) {
	s.handler(ev)
}

// captureChannel records sent lines and can fail on demand.
type captureChannel struct {
	lines       []graphite.MetricLine
	sendErr     error
	onReconnect func()
	closed      bool
}

func (c *captureChannel) Send(line graphite.MetricLine) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.lines = append(c.lines, line)
	return nil
}

func (c *captureChannel) SetOnReconnect(callback func()) { c.onReconnect = callback }
func (c *captureChannel) Close() error                   { c.closed = true; return nil }

func newTestForwarder(t *testing.T, ch graphite.Channel) (*Forwarder, *syntheticSource, *metrics.Metrics) {
	t.Helper()
	source := &syntheticSource{}
	m := metrics.New()
	f := New(Deps{
		Prefix:  "ha",
		Source:  source,
		Channel: ch,
		Metrics: m,
	})
	if err := f.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return f, source, m
}

func TestForwarder_SendsEncodedLinesInOrder(t *testing.T) {
	ch := &captureChannel{}
	_, source, m := newTestForwarder(t, ch)

	source.emit(graphite.StateChangeEvent{
		EntityID: "sensor.outdoor",
		State:    "12.5",
		Attributes: map[string]float64{
			"humidity": 61,
			"battery":  88,
		},
		Timestamp: 1700000000,
	})

	wantPaths := []string{
		"ha.sensor.outdoor",
		"ha.sensor.outdoor.battery",
		"ha.sensor.outdoor.humidity",
	}
	if len(ch.lines) != len(wantPaths) {
		t.Fatalf("sent %d lines, want %d", len(ch.lines), len(wantPaths))
	}
	for i, want := range wantPaths {
		if ch.lines[i].Path != want {
			t.Errorf("lines[%d].Path = %q, want %q", i, ch.lines[i].Path, want)
		}
	}

	if got := testutil.ToFloat64(m.EventsReceived); got != 1 {
		t.Errorf("EventsReceived = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LinesSent); got != 3 {
		t.Errorf("LinesSent = %v, want 3", got)
	}
}

func TestForwarder_SkipsNonMetricWorthyEvents(t *testing.T) {
	ch := &captureChannel{}
	_, source, m := newTestForwarder(t, ch)

	source.emit(graphite.StateChangeEvent{
		EntityID:  "media_player.kitchen",
		State:     "playing",
		Timestamp: 1700000000,
	})

	if len(ch.lines) != 0 {
		t.Errorf("sent %d lines, want 0", len(ch.lines))
	}
	if got := testutil.ToFloat64(m.EventsSkipped); got != 1 {
		t.Errorf("EventsSkipped = %v, want 1", got)
	}
}

func TestForwarder_SwallowsDeliveryErrors(t *testing.T) {
	ch := &captureChannel{sendErr: errors.New("backend down")}
	_, source, m := newTestForwarder(t, ch)

	// Must not panic or propagate despite every send failing.
	source.emit(graphite.StateChangeEvent{
		EntityID:   "sensor.temperature",
		State:      "21.5",
		Attributes: map[string]float64{"battery": 90},
		Timestamp:  1700000000,
	})

	if got := testutil.ToFloat64(m.LinesDropped); got != 2 {
		t.Errorf("LinesDropped = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.LinesSent); got != 0 {
		t.Errorf("LinesSent = %v, want 0", got)
	}
}

func TestForwarder_CountsReconnects(t *testing.T) {
	ch := &captureChannel{}
	_, _, m := newTestForwarder(t, ch)

	if ch.onReconnect == nil {
		t.Fatal("reconnect callback not wired to channel")
	}
	ch.onReconnect()
	ch.onReconnect()

	if got := testutil.ToFloat64(m.Reconnects); got != 2 {
		t.Errorf("Reconnects = %v, want 2", got)
	}
}

func TestForwarder_StartSubscribeFailure(t *testing.T) {
	source := &syntheticSource{err: errors.New("broker unavailable")}
	f := New(Deps{
		Prefix:  "ha",
		Source:  source,
		Channel: &captureChannel{},
	})

	if err := f.Start(); err == nil {
		t.Error("Start() expected error when subscription fails")
	}
}

func TestForwarder_CloseReleasesChannel(t *testing.T) {
	ch := &captureChannel{}
	f, _, _ := newTestForwarder(t, ch)

	if err := f.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if !ch.closed {
		t.Error("Close() did not release the channel")
	}
}
