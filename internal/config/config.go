package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/mutker/eelnode/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultEnvPrefix = "EELNODE"
	DefaultLogLevel  = LogLevelInfo

	configName = "eelnode"
	configType = "toml"
)

type Config struct {
	LogLevel      LogLevel       `mapstructure:"log_level"`
	Interval      time.Duration  `mapstructure:"interval"`
	FrameWait     time.Duration  `mapstructure:"frame_wait"`
	Transport     TransportKind  `mapstructure:"transport"`
	Listen        string         `mapstructure:"listen"`
	WSPath        string         `mapstructure:"ws_path"`
	SerialPort    string         `mapstructure:"serial_port"`
	BaudRate      int            `mapstructure:"baud_rate"`
	MetricsListen string         `mapstructure:"metrics_listen"`
	Sensors       SensorMode     `mapstructure:"sensors"`
	PIDFile       string         `mapstructure:"pid_file"`
	Hardware      HardwareConfig `mapstructure:"hardware"`
}

// HardwareConfig locates the physical probes when Sensors is "hardware".
type HardwareConfig struct {
	DS18B20ID  string `mapstructure:"ds18b20_id"`
	TriggerPin int    `mapstructure:"trigger_pin"`
	EchoPin    int    `mapstructure:"echo_pin"`
	IIODevice  string `mapstructure:"iio_device"`
	PHChannel  int    `mapstructure:"ph_channel"`
	DOChannel  int    `mapstructure:"do_channel"`
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"log-level":      "log_level",
	"interval":       "interval",
	"frame-wait":     "frame_wait",
	"transport":      "transport",
	"listen":         "listen",
	"ws-path":        "ws_path",
	"serial-port":    "serial_port",
	"baud-rate":      "baud_rate",
	"metrics-listen": "metrics_listen",
	"sensors":        "sensors",
	"pid-file":       "pid_file",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", string(DefaultLogLevel))
	v.SetDefault("interval", time.Second)
	v.SetDefault("frame_wait", 3*time.Second)
	v.SetDefault("transport", string(TransportWebSocket))
	v.SetDefault("listen", ":8080")
	v.SetDefault("ws_path", "/ws")
	v.SetDefault("serial_port", "/dev/ttyUSB0")
	v.SetDefault("baud_rate", 115200)
	v.SetDefault("metrics_listen", ":2112")
	v.SetDefault("sensors", string(SensorsSimulated))
	v.SetDefault("pid_file", filepath.Join(os.TempDir(), "eelnode.pid"))

	v.SetDefault("hardware.ds18b20_id", "")
	v.SetDefault("hardware.trigger_pin", 23)
	v.SetDefault("hardware.echo_pin", 24)
	v.SetDefault("hardware.iio_device", "iio:device0")
	v.SetDefault("hardware.ph_channel", 0)
	v.SetDefault("hardware.do_channel", 1)
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)

	fs.String("config", "", "Path to the configuration file")
	fs.String("log-level", string(DefaultLogLevel), "Log level (debug, info, warning, error)")
	fs.Duration("interval", time.Second, "Sampling period of every sensor")
	fs.Duration("frame-wait", 3*time.Second, "Longest wait for one inbound frame")
	fs.String("transport", string(TransportWebSocket), "Command transport (websocket, serial)")
	fs.String("listen", ":8080", "WebSocket listen address")
	fs.String("ws-path", "/ws", "WebSocket endpoint path")
	fs.String("serial-port", "/dev/ttyUSB0", "Serial device for the serial transport")
	fs.Int("baud-rate", 115200, "Serial baud rate")
	fs.String("metrics-listen", ":2112", "Prometheus listen address, empty to disable")
	fs.String("sensors", string(SensorsSimulated), "Sensor backend (simulated, hardware)")
	fs.String("pid-file", filepath.Join(os.TempDir(), "eelnode.pid"), "PID file path")

	return fs
}

// Load reads configuration from defaults, the config file, the environment
// and the given command line arguments, in increasing order of precedence.
// args excludes the program name.
func Load(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := options{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidArgument, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	fs := newFlagSet(configName)
	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}
	for flagName, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(flagName)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v, configPath(fs, o)); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// configPath picks the explicit config file: the --config flag, then the
// WithConfigFile option, then <PREFIX>_CONFIG. Empty means search.
func configPath(fs *pflag.FlagSet, o options) string {
	if path, _ := fs.GetString("config"); path != "" {
		return path
	}
	if o.configPath != "" {
		return o.configPath
	}
	return os.Getenv(o.envPrefix + "_CONFIG")
}

func readConfigFile(v *viper.Viper, path string) error {
	errFactory := errors.New()

	v.SetConfigType(configType)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath("/etc/eelnode")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errFactory.Wrap(errors.ErrReadConfig, err)
	}

	return nil
}

// Validate checks every setting and returns the first problem found.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if !c.LogLevel.IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}
	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}
	if c.FrameWait <= 0 {
		return errFactory.WithData(errors.ErrInvalidFrameWait, c.FrameWait)
	}

	switch c.Transport {
	case TransportWebSocket:
		if c.Listen == "" {
			return errFactory.WithMessage(errors.ErrInvalidConfig, "listen address is required for the websocket transport")
		}
		if !strings.HasPrefix(c.WSPath, "/") {
			return errFactory.WithData(errors.ErrInvalidConfig, "ws_path must start with /")
		}
	case TransportSerial:
		if c.SerialPort == "" {
			return errFactory.WithMessage(errors.ErrInvalidConfig, "serial_port is required for the serial transport")
		}
		if c.BaudRate <= 0 {
			return errFactory.WithData(errors.ErrInvalidConfig, c.BaudRate)
		}
	default:
		return errFactory.WithData(errors.ErrInvalidTransport, c.Transport)
	}

	switch c.Sensors {
	case SensorsSimulated:
	case SensorsHardware:
		if c.Hardware.DS18B20ID == "" {
			return errFactory.WithMessage(errors.ErrInvalidConfig, "hardware.ds18b20_id is required for hardware sensors")
		}
	default:
		return errFactory.WithData(errors.ErrInvalidSensors, c.Sensors)
	}

	return nil
}
