// Package forwarder connects the Gray Logic event bus to the Graphite
// delivery channel.
//
// The forwarder subscribes to the Core's state-change events, encodes each
// event into metric lines and hands every line to the delivery channel in
// encoder order. Forwarding is strictly best-effort auxiliary work:
// delivery errors are logged and swallowed, never propagated back to the
// event source, so metrics-backend unavailability can never disturb
// home-automation event processing.
//
// The event source is an injected interface, keeping the forwarder
// agnostic to the host's dispatch mechanism and testable with a synthetic
// event feed.
package forwarder
