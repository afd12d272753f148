package sensor

import "codeberg.org/mutker/eelnode/internal/errors"

const (
	// ErrNoReading means the sensor produced nothing usable this cycle.
	ErrNoReading = errors.ErrorCode("sensor_no_reading")

	ErrNotInitialized = errors.ErrorCode("sensor_not_initialized")
	ErrReadFailed     = errors.ErrorCode("sensor_read_failed")
	ErrCRCMismatch    = errors.ErrorCode("sensor_crc_mismatch")
	ErrEchoTimeout    = errors.ErrorCode("sensor_echo_timeout")
)
