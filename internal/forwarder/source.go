package forwarder

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-graphite/internal/graphite"
	"github.com/nerrad567/gray-logic-graphite/internal/infrastructure/mqtt"
)

// EventSource supplies state-change events to the forwarder.
//
// The handler is invoked once per event, in the order the source produces
// them. Implementations must not expect the handler to return errors;
// forwarding failures are contained on the forwarder's side.
type EventSource interface {
	SubscribeStateChanges(handler func(graphite.StateChangeEvent)) error
}

// Bus is the subset of the MQTT client the source needs.
type Bus interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// stateChangedMessage is the JSON payload the Core publishes on
// graylogic/core/event/state_changed.
type stateChangedMessage struct {
	// EntityID identifies the device or sensor (e.g., "sensor.temperature").
	EntityID string `json:"entity_id"`

	// State is the new state value rendered as a string.
	State string `json:"state"`

	// Attributes carries the new state's attributes. Values may be of any
	// JSON type; only numeric ones become metric lines.
	Attributes map[string]any `json:"attributes,omitempty"`

	// Timestamp is when the state was observed (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`
}

// MQTTSource adapts the MQTT client into an EventSource.
//
// It decodes the Core's state-changed payloads and drops malformed ones;
// the MQTT client logs the decode error via its handler wrapper.
type MQTTSource struct {
	bus Bus
	qos byte
}

// NewMQTTSource creates an event source reading from the Core's
// state-changed topic.
func NewMQTTSource(bus Bus, qos byte) *MQTTSource {
	return &MQTTSource{bus: bus, qos: qos}
}

// SubscribeStateChanges registers handler for all state-change events.
//
// The subscription lives for the lifetime of the MQTT client and is
// restored automatically after broker reconnects.
func (s *MQTTSource) SubscribeStateChanges(handler func(graphite.StateChangeEvent)) error {
	topic := mqtt.Topics{}.CoreStateChanged()
	return s.bus.Subscribe(topic, s.qos, func(_ string, payload []byte) error {
		ev, err := decodeStateChanged(payload)
		if err != nil {
			return fmt.Errorf("decoding state change: %w", err)
		}
		handler(ev)
		return nil
	})
}

// decodeStateChanged converts a state-changed payload into an event.
//
// Attribute filtering: JSON numbers pass through, booleans become 1/0,
// everything else (strings, arrays, objects, null) is discarded. A missing
// timestamp falls back to the receive time.
func decodeStateChanged(payload []byte) (graphite.StateChangeEvent, error) {
	var msg stateChangedMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return graphite.StateChangeEvent{}, err
	}
	if msg.EntityID == "" {
		return graphite.StateChangeEvent{}, errors.New("missing entity_id")
	}

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	ev := graphite.StateChangeEvent{
		EntityID:  msg.EntityID,
		State:     msg.State,
		Timestamp: ts.Unix(),
	}

	for name, value := range msg.Attributes {
		switch v := value.(type) {
		case float64:
			if ev.Attributes == nil {
				ev.Attributes = make(map[string]float64)
			}
			ev.Attributes[name] = v
		case bool:
			if ev.Attributes == nil {
				ev.Attributes = make(map[string]float64)
			}
			if v {
				ev.Attributes[name] = 1
			} else {
				ev.Attributes[name] = 0
			}
		}
	}

	return ev, nil
}
