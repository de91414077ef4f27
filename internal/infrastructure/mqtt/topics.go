package mqtt

import "fmt"

// Topic prefixes per Gray Logic MQTT specification.
//
// The feeder consumes from the Core's event topics and publishes only its
// own status under the graphite prefix.
const (
	// TopicPrefixCore is the base for all core topics.
	TopicPrefixCore = "graylogic/core"

	// TopicPrefixGraphite is the base for feeder-owned topics.
	TopicPrefixGraphite = "graylogic/graphite"
)

// Topics provides builders for the MQTT topics the feeder uses.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	eventTopic := topics.CoreStateChanged()
//	// Returns: "graylogic/core/event/state_changed"
type Topics struct{}

// CoreEvent returns the topic for a Core system event.
//
// Example: graylogic/core/event/state_changed
func (Topics) CoreEvent(eventType string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefixCore, eventType)
}

// CoreStateChanged returns the topic the Core publishes device state-change
// events on. This is the feeder's sole subscription.
//
// Topic: graylogic/core/event/state_changed
func (t Topics) CoreStateChanged() string {
	return t.CoreEvent("state_changed")
}

// GraphiteStatus returns the feeder's own status topic.
//
// The feeder publishes retained online/offline messages here, and the
// broker publishes the LWT here on unexpected disconnect.
//
// Topic: graylogic/graphite/status
func (Topics) GraphiteStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixGraphite)
}
