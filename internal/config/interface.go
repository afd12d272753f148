package config

// Option defines a configuration option that can be passed to Load
type Option func(*options) error

// options holds internal configuration options
type options struct {
	configPath string
	envPrefix  string
}

// WithConfigFile specifies an explicit configuration file path
func WithConfigFile(path string) Option {
	return func(o *options) error {
		o.configPath = path
		return nil
	}
}

// WithEnvPrefix specifies a custom environment variable prefix
// Default is "EELNODE"
func WithEnvPrefix(prefix string) Option {
	return func(o *options) error {
		o.envPrefix = prefix
		return nil
	}
}

// LogLevel represents valid logging levels
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// IsValid returns whether the log level is valid
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
		return true
	default:
		return false
	}
}

// String implements the Stringer interface
func (l LogLevel) String() string {
	return string(l)
}

// TransportKind selects how command frames reach the node.
type TransportKind string

const (
	TransportWebSocket TransportKind = "websocket"
	TransportSerial    TransportKind = "serial"
)

func (k TransportKind) IsValid() bool {
	return k == TransportWebSocket || k == TransportSerial
}

func (k TransportKind) String() string {
	return string(k)
}

// SensorMode selects real probes or simulated ones.
type SensorMode string

const (
	SensorsSimulated SensorMode = "simulated"
	SensorsHardware  SensorMode = "hardware"
)

func (m SensorMode) IsValid() bool {
	return m == SensorsSimulated || m == SensorsHardware
}

func (m SensorMode) String() string {
	return string(m)
}
