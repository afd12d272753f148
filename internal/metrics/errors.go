package metrics

import "codeberg.org/mutker/eelnode/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrInvalidAddr   = errors.ErrorCode("metrics_invalid_addr")
	ErrInvalidPath   = errors.ErrorCode("metrics_invalid_path")

	// Registry Errors
	ErrRegisterFailed = errors.ErrorCode("metrics_register_failed")

	// Server Errors
	ErrServeFailed     = errors.ErrorCode("metrics_serve_failed")
	ErrServiceShutdown = errors.ErrShutdownFailed
)
