package sampler

import "codeberg.org/mutker/eelnode/internal/errors"

const (
	ErrSensorPanic = errors.ErrorCode("sampler_sensor_panic")
	ErrNonFinite   = errors.ErrorCode("sampler_non_finite_value")
)
