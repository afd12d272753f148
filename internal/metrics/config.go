package metrics

import (
	"strings"
	"time"

	"codeberg.org/mutker/eelnode/internal/errors"
)

const (
	defaultAddr            = ":2112"
	defaultPath            = "/metrics"
	defaultShutdownTimeout = 5 * time.Second
)

type Config struct {
	Addr            string
	Path            string
	ShutdownTimeout time.Duration
	Enabled         bool
}

func DefaultConfig() Config {
	return Config{
		Addr:            defaultAddr,
		Path:            defaultPath,
		ShutdownTimeout: defaultShutdownTimeout,
		Enabled:         true,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	// Only validate the listener if metrics is enabled
	if !c.Enabled {
		return nil
	}
	if c.Addr == "" {
		return errFactory.New(ErrInvalidAddr)
	}
	if !strings.HasPrefix(c.Path, "/") {
		return errFactory.WithData(ErrInvalidPath, c.Path)
	}
	return nil
}
