package sensor

import "context"

// Sensor acquires one value in engineering units. Failures and timeouts
// are reported as errors; the caller decides whether to retry.
type Sensor interface {
	Sample(ctx context.Context) (float64, error)
}

// Func adapts a plain function to the Sensor interface.
type Func func(ctx context.Context) (float64, error)

func (f Func) Sample(ctx context.Context) (float64, error) {
	return f(ctx)
}

// ADCChannel returns raw, unitless analog readings.
type ADCChannel interface {
	RawValue() (int, error)
}

// OutputPin drives a digital output.
type OutputPin interface {
	Set(high bool) error
}

// InputPin reads a digital input.
type InputPin interface {
	Get() (bool, error)
}
