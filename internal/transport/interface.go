package transport

import (
	"context"
	"time"
)

const (
	// DefaultQueueSize is the receive queue depth in frames.
	DefaultQueueSize = 10
	// DefaultFrameWait bounds a single Receive call.
	DefaultFrameWait = 3 * time.Second
	// DefaultMaxFrameSize limits a single inbound frame.
	DefaultMaxFrameSize = 4096
)

// Transport delivers inbound frames and accepts outbound ones.
type Transport interface {
	// Receive waits for the next inbound frame. When the configured wait
	// elapses it returns an error coded ErrNoFrame.
	Receive(ctx context.Context) ([]byte, error)
	// Send hands one outbound frame to the peer.
	Send(frame []byte) error
	Close() error
}
