package dispatcher

import "codeberg.org/mutker/eelnode/internal/errors"

const (
	ErrReceiveFrame = errors.ErrorCode("dispatcher_receive_frame")
	ErrSendFrame    = errors.ErrorCode("dispatcher_send_frame")
)
