package transport

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/eelnode/internal/errors"
)

// Pipe is an in-memory transport. Frames injected with Deliver are returned
// by Receive and frames passed to Send show up on Sent.
type Pipe struct {
	in  *queue
	out chan []byte

	mu      sync.Mutex
	sendErr error
}

var _ Transport = (*Pipe)(nil)

// NewPipe creates a pipe whose Receive waits at most wait and whose queues
// hold size frames each.
func NewPipe(wait time.Duration, size int) *Pipe {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Pipe{
		in:  newQueue(size, wait),
		out: make(chan []byte, size),
	}
}

// Deliver queues an inbound frame as if a peer had sent it.
func (p *Pipe) Deliver(frame []byte) error {
	if p.in.closed() {
		return errors.New().New(ErrClosed)
	}
	if !p.in.push(frame, nil) {
		return errors.New().New(ErrQueueFull)
	}
	return nil
}

// Sent returns the outbound frames.
func (p *Pipe) Sent() <-chan []byte {
	return p.out
}

// FailSends makes every following Send return err; nil restores delivery.
func (p *Pipe) FailSends(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sendErr = err
}

func (p *Pipe) Receive(ctx context.Context) ([]byte, error) {
	frame, err := p.in.pop(ctx)
	if err != nil {
		return nil, err
	}
	return frame.payload, nil
}

func (p *Pipe) Send(frame []byte) error {
	errFactory := errors.New()

	p.mu.Lock()
	sendErr := p.sendErr
	p.mu.Unlock()

	if sendErr != nil {
		return errFactory.Wrap(ErrSendFailed, sendErr)
	}
	if p.in.closed() {
		return errFactory.New(ErrClosed)
	}

	buf := make([]byte, len(frame))
	copy(buf, frame)

	select {
	case p.out <- buf:
		return nil
	default:
		return errFactory.New(ErrQueueFull)
	}
}

func (p *Pipe) Close() error {
	p.in.close()
	return nil
}
