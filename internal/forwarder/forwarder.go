package forwarder

import (
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-graphite/internal/graphite"
	"github.com/nerrad567/gray-logic-graphite/internal/metrics"
)

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
}

// Deps holds the dependencies required by the Forwarder.
type Deps struct {
	// Prefix is the metric namespace prepended to all paths.
	Prefix string

	// Source supplies state-change events.
	Source EventSource

	// Channel delivers encoded lines to the backend.
	Channel graphite.Channel

	// Logger is optional; delivery failures are silent without it.
	Logger Logger

	// Metrics is optional self-telemetry.
	Metrics *metrics.Metrics
}

// Forwarder subscribes to state-change events and forwards every resulting
// metric line to the delivery channel.
//
// Processing per event is synchronous: lines are sent in encoder-emitted
// order, and the channel's single reconnect-and-retry bounds how long one
// event can block the dispatch path. Delivery errors are logged and
// swallowed.
type Forwarder struct {
	prefix  string
	source  EventSource
	channel graphite.Channel
	logger  Logger
	metrics *metrics.Metrics
}

// New creates a Forwarder.
//
// If Metrics is set, the channel's reconnects are counted through it.
func New(deps Deps) *Forwarder {
	f := &Forwarder{
		prefix:  deps.Prefix,
		source:  deps.Source,
		channel: deps.Channel,
		logger:  deps.Logger,
		metrics: deps.Metrics,
	}

	if f.metrics != nil {
		f.channel.SetOnReconnect(func() {
			f.metrics.Reconnects.Inc()
		})
	}

	return f
}

// Start subscribes to the event source. The subscription lasts for the
// process lifetime; there is no unsubscribe short of Close and teardown.
//
// Returns:
//   - error: If the subscription could not be established
func (f *Forwarder) Start() error {
	if err := f.source.SubscribeStateChanges(f.handleEvent); err != nil {
		return fmt.Errorf("subscribing to state changes: %w", err)
	}
	if f.logger != nil {
		f.logger.Info("forwarder started", "prefix", f.prefix)
	}
	return nil
}

// handleEvent encodes one event and sends each line individually.
//
// Partial failure is accepted: some lines of an event may be delivered
// while others are dropped. Nothing is retried beyond what the channel
// does internally, and no error ever reaches the event source.
func (f *Forwarder) handleEvent(ev graphite.StateChangeEvent) {
	if f.metrics != nil {
		f.metrics.EventsReceived.Inc()
	}

	lines := graphite.Encode(f.prefix, ev)
	if len(lines) == 0 {
		if f.metrics != nil {
			f.metrics.EventsSkipped.Inc()
		}
		if f.logger != nil {
			f.logger.Debug("state not metric-worthy, skipping",
				"entity_id", ev.EntityID,
				"state", ev.State,
			)
		}
		return
	}

	for _, line := range lines {
		start := time.Now()
		if err := f.channel.Send(line); err != nil {
			if f.metrics != nil {
				f.metrics.LinesDropped.Inc()
			}
			if f.logger != nil {
				f.logger.Warn("dropping metric line",
					"path", line.Path,
					"error", err,
				)
			}
			continue
		}
		if f.metrics != nil {
			f.metrics.SendDuration.Observe(time.Since(start).Seconds())
			f.metrics.LinesSent.Inc()
		}
	}
}

// Close releases the delivery channel's connection, if any.
//
// The event subscription itself is torn down with the MQTT client. An
// event racing shutdown may briefly re-establish the lazy connection;
// that is harmless and the socket is released with the process.
func (f *Forwarder) Close() error {
	return f.channel.Close()
}
