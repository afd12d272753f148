package transport

import "codeberg.org/mutker/eelnode/internal/errors"

const (
	// ErrNoFrame means the bounded wait elapsed without a frame arriving.
	ErrNoFrame = errors.ErrorCode("transport_no_frame")
	ErrClosed  = errors.ErrorCode("transport_closed")
	ErrNoPeer  = errors.ErrorCode("transport_no_peer")

	// ErrPeerGone means one client could not be written to. The transport
	// itself is still usable.
	ErrPeerGone = errors.ErrorCode("transport_peer_gone")

	ErrSendFailed = errors.ErrorCode("transport_send_failed")
	ErrOpenFailed = errors.ErrorCode("transport_open_failed")
	ErrQueueFull  = errors.ErrorCode("transport_queue_full")
)
