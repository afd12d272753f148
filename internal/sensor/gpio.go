package sensor

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

const gpioRoot = "/sys/class/gpio"

// SysfsPin drives or reads a GPIO line exported through /sys/class/gpio.
// The line must already be exported and its direction configured.
type SysfsPin struct {
	path string
}

var (
	_ OutputPin = (*SysfsPin)(nil)
	_ InputPin  = (*SysfsPin)(nil)
)

// NewSysfsPin addresses gpio<number>.
func NewSysfsPin(number int) *SysfsPin {
	return &SysfsPin{path: filepath.Join(gpioRoot, fmt.Sprintf("gpio%d", number), "value")}
}

// NewSysfsPinPath uses an explicit value file.
func NewSysfsPinPath(path string) *SysfsPin {
	return &SysfsPin{path: path}
}

func (p *SysfsPin) Set(high bool) error {
	value := []byte("0")
	if high {
		value = []byte("1")
	}
	return os.WriteFile(p.path, value, 0o644)
}

func (p *SysfsPin) Get() (bool, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return false, err
	}
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte("1")), nil
}
