package graphite

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-graphite/internal/infrastructure/config"
)

// Channel delivers encoded metric lines to the Graphite backend.
//
// Implementations own their socket exclusively and serialise writes, so a
// single channel may be shared by concurrent callers without interleaving
// line fragments on the wire.
//
// Thread Safety: All methods are safe for concurrent use.
type Channel interface {
	// Send writes one line to the backend. A returned error means the line
	// has been dropped; the caller decides whether to log it.
	Send(line MetricLine) error

	// SetOnReconnect sets a callback invoked each time the channel
	// re-establishes its connection after a write failure. TCP only;
	// a no-op for UDP.
	SetOnReconnect(callback func())

	// Close releases the connection, if any.
	Close() error
}

// NewChannel creates a delivery channel for the configured transport.
//
// The socket is established lazily on first Send, not here, so a backend
// that is temporarily down does not block startup.
//
// Returns:
//   - Channel: TCP or UDP channel per cfg.Protocol
//   - error: ErrInvalidProtocol for anything other than tcp or udp
func NewChannel(cfg config.GraphiteConfig) (Channel, error) {
	switch cfg.Protocol {
	case config.ProtocolTCP:
		return newTCPChannel(cfg), nil
	case config.ProtocolUDP:
		return newUDPChannel(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidProtocol, cfg.Protocol)
	}
}

// =============================================================================
// TCP
// =============================================================================

// tcpChannel maintains one persistent connection to the backend.
//
// On a write failure the stale connection is closed and exactly one
// reconnect-and-retry is attempted for the pending line. A second failure
// drops the line and returns ErrUnreachable. This bounds the worst-case
// blocking of the event dispatch path to one connect timeout plus one
// write timeout.
type tcpChannel struct {
	addr         string
	writeTimeout time.Duration

	// dial is swappable in tests.
	dial func() (net.Conn, error)

	mu          sync.Mutex
	conn        net.Conn
	onReconnect func()
}

func newTCPChannel(cfg config.GraphiteConfig) *tcpChannel {
	addr := cfg.Addr()
	connectTimeout := cfg.GetConnectTimeout()
	return &tcpChannel{
		addr:         addr,
		writeTimeout: cfg.GetWriteTimeout(),
		dial: func() (net.Conn, error) {
			return net.DialTimeout("tcp", addr, connectTimeout)
		},
	}
}

func (c *tcpChannel) Send(line MetricLine) error {
	payload := []byte(line.String() + "\n")

	c.mu.Lock()
	defer c.mu.Unlock()

	// Lazy connect on first send.
	if c.conn == nil {
		conn, err := c.dial()
		if err != nil {
			return fmt.Errorf("%w: dial %s: %w", ErrConnectionFailed, c.addr, err)
		}
		c.conn = conn
	}

	if err := c.write(payload); err == nil {
		return nil
	}

	// Stale connection: close it, reconnect once, retry the pending
	// write once. No further retries; the line is dropped on failure.
	c.conn.Close()
	c.conn = nil

	conn, err := c.dial()
	if err != nil {
		return fmt.Errorf("%w: reconnect %s: %w", ErrUnreachable, c.addr, err)
	}
	c.conn = conn
	if c.onReconnect != nil {
		c.onReconnect()
	}

	if err := c.write(payload); err != nil {
		c.conn.Close()
		c.conn = nil
		return fmt.Errorf("%w: retry write: %w", ErrUnreachable, err)
	}

	return nil
}

// write sends payload on the current connection with a write deadline.
// Caller must hold mu.
func (c *tcpChannel) write(payload []byte) error {
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	_, err := c.conn.Write(payload)
	return err
}

func (c *tcpChannel) SetOnReconnect(callback func()) {
	c.mu.Lock()
	c.onReconnect = callback
	c.mu.Unlock()
}

func (c *tcpChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// =============================================================================
// UDP
// =============================================================================

// udpChannel sends each line as one independent datagram.
//
// One line per datagram keeps loss granularity identical to the TCP path;
// packing would only improve throughput, which is irrelevant at
// home-automation event rates. There is no retry and no reconnect state:
// a failed write mutates nothing and the next send proceeds as usual.
type udpChannel struct {
	addr         string
	writeTimeout time.Duration

	dial func() (net.Conn, error)

	mu   sync.Mutex
	conn net.Conn
}

func newUDPChannel(cfg config.GraphiteConfig) *udpChannel {
	addr := cfg.Addr()
	connectTimeout := cfg.GetConnectTimeout()
	return &udpChannel{
		addr:         addr,
		writeTimeout: cfg.GetWriteTimeout(),
		dial: func() (net.Conn, error) {
			return net.DialTimeout("udp", addr, connectTimeout)
		},
	}
}

func (c *udpChannel) Send(line MetricLine) error {
	payload := []byte(line.String() + "\n")

	c.mu.Lock()
	defer c.mu.Unlock()

	// Lazy socket creation on first send. Dial resolves the host, so an
	// unresolvable backend surfaces here rather than at startup.
	if c.conn == nil {
		conn, err := c.dial()
		if err != nil {
			return fmt.Errorf("%w: dial %s: %w", ErrConnectionFailed, c.addr, err)
		}
		c.conn = conn
	}

	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteFailed, err)
		}
	}
	if _, err := c.conn.Write(payload); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	return nil
}

func (c *udpChannel) SetOnReconnect(func()) {}

func (c *udpChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
