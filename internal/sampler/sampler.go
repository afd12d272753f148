package sampler

import (
	"context"
	"math"
	"time"

	"codeberg.org/mutker/eelnode/internal/errors"
	"codeberg.org/mutker/eelnode/internal/logger"
	"codeberg.org/mutker/eelnode/internal/sensor"
	"codeberg.org/mutker/eelnode/internal/telemetry"
)

// DefaultPeriod is the time between two samples of the same metric.
const DefaultPeriod = time.Second

// Observer is told about the outcome of every sampling cycle. err is nil
// for a successful cycle. Implementations must be safe for concurrent use.
type Observer interface {
	ObserveSample(metric telemetry.Metric, err error)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(metric telemetry.Metric, err error)

func (f ObserverFunc) ObserveSample(metric telemetry.Metric, err error) {
	f(metric, err)
}

// Task periodically samples one sensor and publishes the value of its
// metric to the store.
type Task struct {
	metric   telemetry.Metric
	sensor   sensor.Sensor
	store    *telemetry.Store
	period   time.Duration
	log      logger.Logger
	observer Observer
}

// Option configures a Task.
type Option func(*Task)

// WithPeriod sets the sampling period. Non-positive values are ignored.
func WithPeriod(d time.Duration) Option {
	return func(t *Task) {
		if d > 0 {
			t.period = d
		}
	}
}

func WithLogger(log logger.Logger) Option {
	return func(t *Task) {
		if log != nil {
			t.log = log
		}
	}
}

func WithObserver(o Observer) Option {
	return func(t *Task) {
		t.observer = o
	}
}

// New creates a sampling task for metric.
func New(metric telemetry.Metric, s sensor.Sensor, store *telemetry.Store, opts ...Option) *Task {
	t := &Task{
		metric: metric,
		sensor: s,
		store:  store,
		period: DefaultPeriod,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.log = t.log.With("sampler/" + metric.Field())
	return t
}

// Metric returns the metric this task publishes.
func (t *Task) Metric() telemetry.Metric {
	return t.metric
}

// Period returns the sampling period.
func (t *Task) Period() time.Duration {
	return t.period
}

// Run samples immediately and then once per period until ctx is cancelled.
func (t *Task) Run(ctx context.Context) {
	t.log.Debug().Dur("period", t.period).Msg("sampling started")
	defer t.log.Debug().Msg("sampling stopped")

	ticker := time.NewTicker(t.period)
	defer ticker.Stop()

	for {
		_ = t.Cycle(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Cycle performs one sample and publishes it. A failed sample leaves the
// previously published reading untouched.
func (t *Task) Cycle(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	value, err := t.sample(ctx)
	if err == nil && (math.IsNaN(value) || math.IsInf(value, 0)) {
		err = errors.New().WithData(ErrNonFinite, value)
	}

	if err != nil {
		// Interrupted by shutdown, not a sensor fault.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		t.log.Warn().Err(err).Msg("sample failed")
		t.notify(err)
		return err
	}

	t.store.Write(t.metric, value)
	t.notify(nil)
	return nil
}

func (t *Task) sample(ctx context.Context) (value float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New().WithData(ErrSensorPanic, r)
		}
	}()

	return t.sensor.Sample(ctx)
}

func (t *Task) notify(err error) {
	if t.observer != nil {
		t.observer.ObserveSample(t.metric, err)
	}
}
