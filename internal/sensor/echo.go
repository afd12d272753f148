package sensor

import (
	"context"
	"time"

	"codeberg.org/mutker/eelnode/internal/errors"
)

const (
	// speedOfSound in metres per second at roughly 20°C.
	speedOfSound = 340.29

	defaultTriggerPulse = 100 * time.Microsecond
	defaultEchoTimeout  = 500 * time.Millisecond
)

// EchoRanger measures distance with an HC-SR04 style ultrasonic module:
// a trigger pulse starts a ping and the echo pin stays high for the round
// trip time.
type EchoRanger struct {
	trigger OutputPin
	echo    InputPin

	pulse   time.Duration
	timeout time.Duration
	now     func() time.Time
	sleep   func(time.Duration)
}

var _ Sensor = (*EchoRanger)(nil)

// EchoOption customises an EchoRanger.
type EchoOption func(*EchoRanger)

// WithEchoTimeout bounds both the wait for the echo to start and its length.
func WithEchoTimeout(d time.Duration) EchoOption {
	return func(e *EchoRanger) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithClock replaces the monotonic clock and sleep used for pulse timing.
func WithClock(now func() time.Time, sleep func(time.Duration)) EchoOption {
	return func(e *EchoRanger) {
		e.now = now
		e.sleep = sleep
	}
}

// NewEchoRanger creates a ranger on the given pins.
func NewEchoRanger(trigger OutputPin, echo InputPin, opts ...EchoOption) *EchoRanger {
	e := &EchoRanger{
		trigger: trigger,
		echo:    echo,
		pulse:   defaultTriggerPulse,
		timeout: defaultEchoTimeout,
		now:     time.Now,
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sample returns the distance to the target in centimetres.
func (e *EchoRanger) Sample(ctx context.Context) (float64, error) {
	errFactory := errors.New()

	if e.trigger == nil || e.echo == nil {
		return 0, errFactory.New(ErrNotInitialized)
	}

	if err := e.trigger.Set(true); err != nil {
		return 0, errFactory.Wrap(ErrReadFailed, err)
	}
	e.sleep(e.pulse)
	if err := e.trigger.Set(false); err != nil {
		return 0, errFactory.Wrap(ErrReadFailed, err)
	}

	if _, err := e.waitFor(ctx, true, e.now().Add(e.timeout)); err != nil {
		return 0, err
	}

	start := e.now()
	end, err := e.waitFor(ctx, false, start.Add(e.timeout))
	if err != nil {
		return 0, err
	}

	width := end.Sub(start)
	return width.Seconds() * speedOfSound / 2 * 100, nil
}

// waitFor polls the echo pin until it reads level or the deadline passes.
func (e *EchoRanger) waitFor(ctx context.Context, level bool, deadline time.Time) (time.Time, error) {
	errFactory := errors.New()

	for {
		if err := ctx.Err(); err != nil {
			return time.Time{}, err
		}

		high, err := e.echo.Get()
		if err != nil {
			return time.Time{}, errFactory.Wrap(ErrReadFailed, err)
		}

		now := e.now()
		if high == level {
			return now, nil
		}
		if now.After(deadline) {
			return time.Time{}, errFactory.Wrap(ErrNoReading, errFactory.WithData(ErrEchoTimeout, struct {
				Level   bool
				Timeout time.Duration
			}{
				Level:   level,
				Timeout: e.timeout,
			}))
		}
	}
}
