package graphite

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// StateChangeEvent is one entity state transition as reported by the Core.
//
// Events are immutable and scoped to a single forwarding attempt. The
// Attributes map carries only the numeric attributes of the new state; the
// forwarder's event source filters out everything else before encoding.
type StateChangeEvent struct {
	// EntityID identifies the device or sensor (e.g., "sensor.temperature").
	EntityID string

	// State is the new value, numeric ("21.5") or a discrete label ("heat").
	State string

	// Attributes maps numeric attribute names to their values.
	Attributes map[string]float64

	// Timestamp is when the state was observed, in seconds since epoch.
	Timestamp int64
}

// MetricLine is one Graphite plaintext protocol sample.
//
// Invariant: Path is non-empty, dot-delimited ASCII and contains no space
// or newline. Lines are derived deterministically from a StateChangeEvent
// and never mutated after creation.
type MetricLine struct {
	Path      string
	Value     float64
	Timestamp int64
}

// String renders the line in wire format without the trailing newline:
//
//	<path> <value> <timestamp>
func (l MetricLine) String() string {
	var b strings.Builder
	b.WriteString(l.Path)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatFloat(l.Value, 'f', -1, 64))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatInt(l.Timestamp, 10))
	return b.String()
}

// Encode translates a state-change event into zero or more metric lines.
//
// Encoding rules:
//   - A numeric state (see StateNumber) produces one value line with path
//     <prefix>.<entity>.
//   - Each numeric attribute produces one line with path
//     <prefix>.<entity>.<attribute>, after the value line, sorted by
//     attribute name for deterministic output.
//   - A non-numeric state with no numeric attributes produces no lines.
//     This is a policy, not an error: not all states are metric-worthy.
//
// Entity and attribute names are sanitized so the resulting path is always
// wire-format valid. Encode is pure: the same input yields the same lines
// in the same order.
func Encode(prefix string, ev StateChangeEvent) []MetricLine {
	entity := Sanitize(ev.EntityID)
	if entity == "" {
		return nil
	}

	var lines []MetricLine

	if v, ok := StateNumber(ev.State); ok {
		lines = append(lines, MetricLine{
			Path:      prefix + "." + entity,
			Value:     v,
			Timestamp: ev.Timestamp,
		})
	}

	names := make([]string, 0, len(ev.Attributes))
	for name := range ev.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		lines = append(lines, MetricLine{
			Path:      prefix + "." + entity + "." + Sanitize(name),
			Value:     ev.Attributes[name],
			Timestamp: ev.Timestamp,
		})
	}

	return lines
}

// StateNumber converts a state string to a float64 if possible.
//
// Beyond plain numbers, the binary device states Gray Logic reports map to
// 1/0 so that switches, contacts and locks chart sensibly.
//
// Returns:
//   - float64: The numeric value
//   - bool: false if the state has no numeric interpretation
func StateNumber(state string) (float64, bool) {
	s := strings.TrimSpace(state)
	if s == "" {
		return 0, false
	}

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}

	switch strings.ToLower(s) {
	case "on", "true", "open", "unlocked", "home", "above_horizon":
		return 1, true
	case "off", "false", "closed", "locked", "not_home", "below_horizon":
		return 0, true
	}

	return 0, false
}

// Sanitize replaces whitespace and protocol-reserved characters in a path
// segment with underscores.
//
// The Graphite plaintext protocol reserves space (field separator) and
// newline (record separator); a path containing either would corrupt the
// stream. Sanitize is idempotent: sanitize(sanitize(x)) == sanitize(x).
func Sanitize(segment string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, segment)
}
