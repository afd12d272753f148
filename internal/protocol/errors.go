package protocol

import "codeberg.org/mutker/eelnode/internal/errors"

const (
	ErrMalformedFrame = errors.ErrorCode("protocol_malformed_frame")
	ErrEncodeResponse = errors.ErrorCode("protocol_encode_response_failed")
)
