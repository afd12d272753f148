package transport

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/eelnode/internal/errors"
)

// inbound is a received frame and, for multi-client adapters, the client
// that sent it.
type inbound struct {
	payload []byte
	origin  *wsClient
}

// queue is a bounded inbound frame queue shared by every adapter.
type queue struct {
	frames    chan inbound
	wait      time.Duration
	done      chan struct{}
	closeOnce sync.Once
}

func newQueue(size int, wait time.Duration) *queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &queue{
		frames: make(chan inbound, size),
		wait:   wait,
		done:   make(chan struct{}),
	}
}

// push enqueues a copy of frame without blocking; it reports false when the
// queue is full or closed.
func (q *queue) push(frame []byte, origin *wsClient) bool {
	buf := make([]byte, len(frame))
	copy(buf, frame)

	select {
	case <-q.done:
		return false
	default:
	}

	select {
	case q.frames <- inbound{payload: buf, origin: origin}:
		return true
	default:
		return false
	}
}

// pop waits for a frame. A non-positive wait blocks until a frame arrives,
// ctx is done or the queue is closed.
func (q *queue) pop(ctx context.Context) (inbound, error) {
	errFactory := errors.New()

	var timeout <-chan time.Time
	if q.wait > 0 {
		timer := time.NewTimer(q.wait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case frame := <-q.frames:
		return frame, nil
	case <-timeout:
		return inbound{}, errFactory.New(ErrNoFrame)
	case <-q.done:
		return inbound{}, errFactory.New(ErrClosed)
	case <-ctx.Done():
		return inbound{}, ctx.Err()
	}
}

func (q *queue) close() {
	q.closeOnce.Do(func() { close(q.done) })
}

func (q *queue) closed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}
