package forwarder

import (
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-graphite/internal/graphite"
	"github.com/nerrad567/gray-logic-graphite/internal/infrastructure/mqtt"
)

// fakeBus captures the subscription and feeds payloads to the handler.
type fakeBus struct {
	topic   string
	qos     byte
	handler mqtt.MessageHandler
}

func (b *fakeBus) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	b.topic = topic
	b.qos = qos
	b.handler = handler
	return nil
}

func TestMQTTSource_SubscribesToStateChangedTopic(t *testing.T) {
	bus := &fakeBus{}
	source := NewMQTTSource(bus, 1)

	err := source.SubscribeStateChanges(func(graphite.StateChangeEvent) {})
	if err != nil {
		t.Fatalf("SubscribeStateChanges() error = %v", err)
	}

	if bus.topic != "graylogic/core/event/state_changed" {
		t.Errorf("subscribed topic = %q, want %q", bus.topic, "graylogic/core/event/state_changed")
	}
	if bus.qos != 1 {
		t.Errorf("qos = %d, want 1", bus.qos)
	}
}

func TestMQTTSource_DecodesEvent(t *testing.T) {
	bus := &fakeBus{}
	source := NewMQTTSource(bus, 1)

	var got graphite.StateChangeEvent
	if err := source.SubscribeStateChanges(func(ev graphite.StateChangeEvent) { got = ev }); err != nil {
		t.Fatalf("SubscribeStateChanges() error = %v", err)
	}

	payload := []byte(`{
		"entity_id": "climate.living_room",
		"state": "heat",
		"attributes": {
			"current_temperature": 20.5,
			"preset": "comfort",
			"window_open": true,
			"schedule": [1, 2, 3],
			"nested": {"a": 1},
			"missing": null
		},
		"timestamp": "2023-11-14T22:13:20Z"
	}`)

	if err := bus.handler("graylogic/core/event/state_changed", payload); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	if got.EntityID != "climate.living_room" {
		t.Errorf("EntityID = %q, want %q", got.EntityID, "climate.living_room")
	}
	if got.State != "heat" {
		t.Errorf("State = %q, want %q", got.State, "heat")
	}
	if got.Timestamp != 1700000000 {
		t.Errorf("Timestamp = %d, want 1700000000", got.Timestamp)
	}

	// Only numeric and boolean attributes survive.
	want := map[string]float64{
		"current_temperature": 20.5,
		"window_open":         1,
	}
	if len(got.Attributes) != len(want) {
		t.Fatalf("Attributes = %v, want %v", got.Attributes, want)
	}
	for k, v := range want {
		if got.Attributes[k] != v {
			t.Errorf("Attributes[%q] = %v, want %v", k, got.Attributes[k], v)
		}
	}
}

func TestMQTTSource_BooleanFalseAttribute(t *testing.T) {
	ev, err := decodeStateChanged([]byte(`{
		"entity_id": "binary_sensor.door",
		"state": "off",
		"attributes": {"tampered": false},
		"timestamp": "2023-11-14T22:13:20Z"
	}`))
	if err != nil {
		t.Fatalf("decodeStateChanged() error = %v", err)
	}
	if v, ok := ev.Attributes["tampered"]; !ok || v != 0 {
		t.Errorf("Attributes[tampered] = %v (present=%v), want 0", v, ok)
	}
}

func TestMQTTSource_MalformedPayload(t *testing.T) {
	bus := &fakeBus{}
	source := NewMQTTSource(bus, 1)

	called := false
	if err := source.SubscribeStateChanges(func(graphite.StateChangeEvent) { called = true }); err != nil {
		t.Fatalf("SubscribeStateChanges() error = %v", err)
	}

	if err := bus.handler("graylogic/core/event/state_changed", []byte("not json")); err == nil {
		t.Error("handler expected error for malformed payload")
	}
	if called {
		t.Error("handler invoked for malformed payload")
	}
}

func TestDecodeStateChanged_MissingEntityID(t *testing.T) {
	_, err := decodeStateChanged([]byte(`{"state": "on"}`))
	if err == nil {
		t.Error("decodeStateChanged() expected error for missing entity_id")
	}
}

func TestDecodeStateChanged_MissingTimestamp(t *testing.T) {
	before := time.Now().Unix()
	ev, err := decodeStateChanged([]byte(`{"entity_id": "sensor.x", "state": "1"}`))
	if err != nil {
		t.Fatalf("decodeStateChanged() error = %v", err)
	}
	after := time.Now().Unix()

	if ev.Timestamp < before || ev.Timestamp > after {
		t.Errorf("Timestamp = %d, want within [%d, %d]", ev.Timestamp, before, after)
	}
}
