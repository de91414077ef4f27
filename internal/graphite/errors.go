package graphite

import "errors"

// Sentinel errors for Graphite delivery operations.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, graphite.ErrUnreachable) {
//	    // Line was dropped after retry exhaustion
//	}
var (
	// ErrInvalidProtocol indicates an unsupported transport protocol.
	ErrInvalidProtocol = errors.New("graphite: unsupported protocol")

	// ErrConnectionFailed indicates the lazy connect or dial failed.
	ErrConnectionFailed = errors.New("graphite: connection failed")

	// ErrWriteFailed indicates a write failed with no retry performed.
	ErrWriteFailed = errors.New("graphite: write failed")

	// ErrUnreachable indicates the backend stayed unreachable after the
	// single reconnect-and-retry attempt. The line has been dropped.
	ErrUnreachable = errors.New("graphite: backend unreachable")
)
