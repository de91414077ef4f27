// Package graphite translates Gray Logic state-change events into Graphite
// plaintext protocol lines and delivers them to a metrics backend.
//
// The package has two halves:
//
//   - The line encoder (Encode) is a pure function from a StateChangeEvent
//     and a metric prefix to zero or more MetricLine values. Numeric states
//     produce a value line; numeric attributes produce one line each.
//   - The delivery channel (Channel) owns the outbound socket and writes
//     encoded lines to the backend, either over a persistent TCP connection
//     with a single reconnect-and-retry on write failure, or as best-effort
//     UDP datagrams.
//
// # Wire Format
//
// One metric sample per line:
//
//	<path> <value> <timestamp>\n
//
// where path is dot-delimited ASCII with no whitespace, value is a float and
// timestamp is integer seconds since epoch. Any plaintext-protocol listener
// (carbon-cache, go-carbon, VictoriaMetrics) accepts this format.
//
// # Delivery Semantics
//
// Delivery is deliberately best-effort. There is no queue, no disk buffer
// and no replay: the state-change stream is itself ephemeral, so a line that
// cannot be delivered after one reconnect attempt is dropped and reported
// via the returned error. Sends on one channel are strictly sequential.
//
// # Error Handling
//
// Failures are reported through sentinel errors checkable with errors.Is:
// ErrConnectionFailed, ErrWriteFailed and ErrUnreachable.
package graphite
