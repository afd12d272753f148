package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"codeberg.org/mutker/eelnode/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	f := errors.New()

	assert.Equal(t, "Invalid interval value", f.New(errors.ErrInvalidInterval).Error())
	assert.Equal(t, "custom", f.WithMessage(errors.ErrInternal, "custom").Error())
	assert.Equal(t, "Invalid argument provided: bad", f.WithData(errors.ErrInvalidArgument, "bad").Error())
	assert.Equal(t, "unregistered_code", f.New(errors.ErrorCode("unregistered_code")).Error())

	wrapped := f.Wrap(errors.ErrOperationFailed, stderrors.New("boom"))
	assert.Equal(t, "Operation failed: boom", wrapped.Error())
}

func TestWrapUnwrap(t *testing.T) {
	f := errors.New()
	cause := stderrors.New("cause")
	err := f.Wrap(errors.ErrTimeout, cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.Equal(t, errors.ErrTimeout, err.Code())
}

func TestIsMatchesByCode(t *testing.T) {
	f := errors.New()
	sentinel := f.New(errors.ErrUnavailable)
	err := fmt.Errorf("context: %w", f.Wrap(errors.ErrUnavailable, stderrors.New("down")))

	assert.True(t, errors.Is(err, sentinel))
	assert.False(t, errors.Is(err, f.New(errors.ErrInternal)))
}

func TestHasCode(t *testing.T) {
	f := errors.New()
	inner := f.New(errors.ErrInvalidLogLevel)
	outer := f.Wrap(errors.ErrInvalidConfig, inner)

	assert.True(t, errors.HasCode(outer, errors.ErrInvalidConfig))
	assert.True(t, errors.HasCode(outer, errors.ErrInvalidLogLevel))
	assert.False(t, errors.HasCode(outer, errors.ErrTimeout))
	assert.False(t, errors.HasCode(stderrors.New("plain"), errors.ErrInternal))
	assert.False(t, errors.HasCode(nil, errors.ErrInternal))
}

func TestWithDataKeepsCode(t *testing.T) {
	f := errors.New()
	err := f.New(errors.ErrInvalidConfig).WithData("interval")

	assert.Equal(t, errors.ErrInvalidConfig, err.Code())
	assert.Equal(t, "interval", err.GetData())
}
