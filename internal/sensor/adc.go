package sensor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"codeberg.org/mutker/eelnode/internal/errors"
)

const iioRoot = "/sys/bus/iio/devices"

// ADCProbe samples an analog probe through its own channel and calibration.
type ADCProbe struct {
	channel   ADCChannel
	calibrate Calibration
}

var _ Sensor = (*ADCProbe)(nil)

// NewADCProbe binds a channel to a calibration curve.
func NewADCProbe(channel ADCChannel, calibrate Calibration) *ADCProbe {
	if calibrate == nil {
		calibrate = func(raw int) float64 { return float64(raw) }
	}
	return &ADCProbe{channel: channel, calibrate: calibrate}
}

// NewPH20 returns a pH probe on channel.
func NewPH20(channel ADCChannel) *ADCProbe {
	return NewADCProbe(channel, StepCalibration)
}

// NewDO37 returns a dissolved oxygen probe on channel.
func NewDO37(channel ADCChannel) *ADCProbe {
	return NewADCProbe(channel, StepCalibration)
}

func (p *ADCProbe) Sample(ctx context.Context) (float64, error) {
	errFactory := errors.New()

	if p.channel == nil {
		return 0, errFactory.New(ErrNotInitialized)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	raw, err := p.channel.RawValue()
	if err != nil {
		return 0, errFactory.Wrap(ErrReadFailed, err)
	}

	return p.calibrate(raw), nil
}

// IIOChannel reads a raw count from a Linux industrial I/O voltage channel.
type IIOChannel struct {
	path string
}

var _ ADCChannel = (*IIOChannel)(nil)

// NewIIOChannel addresses in_voltage<channel>_raw of the given IIO device.
func NewIIOChannel(device string, channel int) *IIOChannel {
	return &IIOChannel{
		path: filepath.Join(iioRoot, device, fmt.Sprintf("in_voltage%d_raw", channel)),
	}
}

// NewIIOChannelPath reads from an explicit sysfs path.
func NewIIOChannelPath(path string) *IIOChannel {
	return &IIOChannel{path: path}
}

func (c *IIOChannel) RawValue() (int, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return 0, err
	}

	raw, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid raw value in %s: %w", c.path, err)
	}

	return raw, nil
}
