package sensor

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"codeberg.org/mutker/eelnode/internal/errors"
)

const w1Root = "/sys/bus/w1/devices"

// DS18B20 reads a 1-wire digital thermometer through the Linux w1 driver.
type DS18B20 struct {
	path string
}

var _ Sensor = (*DS18B20)(nil)

// NewDS18B20 addresses the thermometer with the given 1-wire id
// (for example "28-000005e2fdc3").
func NewDS18B20(id string) *DS18B20 {
	return &DS18B20{path: filepath.Join(w1Root, id, "w1_slave")}
}

// NewDS18B20Path reads from an explicit w1_slave file.
func NewDS18B20Path(path string) *DS18B20 {
	return &DS18B20{path: path}
}

// Sample returns the temperature in degrees Celsius.
func (d *DS18B20) Sample(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	data, err := os.ReadFile(d.path)
	if err != nil {
		return 0, errors.New().Wrap(ErrReadFailed, err)
	}

	return parseW1Slave(data)
}

// parseW1Slave decodes the two-line w1_slave format:
//
//	72 01 4b 46 7f ff 0e 10 57 : crc=57 YES
//	72 01 4b 46 7f ff 0e 10 57 t=23125
func parseW1Slave(data []byte) (float64, error) {
	errFactory := errors.New()

	scanner := bufio.NewScanner(bytes.NewReader(data))
	var lines []string
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) < 2 {
		return 0, errFactory.WithData(ErrNoReading, "short w1_slave output")
	}
	if !strings.HasSuffix(lines[0], "YES") {
		return 0, errFactory.Wrap(ErrNoReading, errFactory.New(ErrCRCMismatch))
	}

	idx := strings.LastIndex(lines[1], "t=")
	if idx < 0 {
		return 0, errFactory.WithData(ErrNoReading, "missing temperature field")
	}

	milli, err := strconv.Atoi(lines[1][idx+2:])
	if err != nil {
		return 0, errFactory.Wrap(ErrNoReading, err)
	}

	return float64(milli) / 1000, nil
}
