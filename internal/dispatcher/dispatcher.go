package dispatcher

import (
	"context"

	"codeberg.org/mutker/eelnode/internal/errors"
	"codeberg.org/mutker/eelnode/internal/logger"
	"codeberg.org/mutker/eelnode/internal/protocol"
	"codeberg.org/mutker/eelnode/internal/telemetry"
	"codeberg.org/mutker/eelnode/internal/transport"
)

// Dispatcher answers inbound command frames one at a time.
type Dispatcher struct {
	store     *telemetry.Store
	transport transport.Transport
	log       logger.Logger
	observer  Observer

	state stateValue
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

func WithLogger(log logger.Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		d.observer = o
	}
}

// New creates a dispatcher answering frames from t with readings from store.
func New(store *telemetry.Store, t transport.Transport, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:     store,
		transport: t,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.With("dispatcher")
	return d
}

// State returns the current state. It is safe to call from any goroutine.
func (d *Dispatcher) State() State {
	return d.state.load()
}

// Serve handles frames until ctx is done, in which case it returns nil, or
// until the transport fails, in which case the fault is returned.
func (d *Dispatcher) Serve(ctx context.Context) error {
	d.log.Info().Msg("dispatcher started")
	defer d.log.Info().Msg("dispatcher stopped")

	for {
		if ctx.Err() != nil {
			return nil
		}

		if err := d.Step(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// Step waits for one frame and answers it. An elapsed frame wait is not an
// error.
func (d *Dispatcher) Step(ctx context.Context) error {
	errFactory := errors.New()

	frame, err := d.transport.Receive(ctx)
	if err != nil {
		if errors.HasCode(err, transport.ErrNoFrame) {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errFactory.Wrap(ErrReceiveFrame, err)
	}

	d.state.store(Processing)
	defer d.state.store(Idle)

	response, command := d.handle(frame)
	if d.observer != nil {
		d.observer.ObserveCommand(command)
	}

	if err := d.transport.Send(response); err != nil {
		d.log.Error().Err(err).Str("command", command).Msg("failed to send response")
		if d.observer != nil {
			d.observer.ObserveSendError(err)
		}
		return errFactory.Wrap(ErrSendFrame, err)
	}

	return nil
}

// Handle maps one inbound frame to its response frame.
func (d *Dispatcher) Handle(frame []byte) []byte {
	response, _ := d.handle(frame)
	return response
}

func (d *Dispatcher) handle(frame []byte) ([]byte, string) {
	cmd, err := protocol.Decode(frame)
	if err != nil {
		d.log.Debug().Int("size", len(frame)).Msg("frame is not JSON, looping back")
		out := make([]byte, len(frame))
		copy(out, frame)
		return out, CommandLoopback
	}

	var response *protocol.Response
	switch cmd.Kind {
	case protocol.KindAck:
		response = protocol.Status(protocol.StatusOK)
	case protocol.KindReportAll:
		response = protocol.Report(d.store.ReadAll())
	default:
		d.log.Debug().Int64("code", cmd.Code).Bool("present", cmd.Present).Msg("unknown command")
		response = protocol.Status(protocol.StatusRejected)
	}

	out, err := protocol.Encode(response)
	if err != nil {
		d.log.Warn().Err(err).Str("command", cmd.Kind.String()).Msg("failed to encode response")
		out, _ = protocol.Encode(protocol.Status(protocol.StatusRejected))
	}

	return out, cmd.Kind.String()
}
