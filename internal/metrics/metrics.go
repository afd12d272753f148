package metrics

import (
	"time"

	"codeberg.org/mutker/eelnode/internal/dispatcher"
	"codeberg.org/mutker/eelnode/internal/errors"
	"codeberg.org/mutker/eelnode/internal/logger"
	"codeberg.org/mutker/eelnode/internal/protocol"
	"codeberg.org/mutker/eelnode/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "eelnode"

const (
	resultOK    = "ok"
	resultError = "error"
)

type service struct {
	cfg      Config
	log      logger.Logger
	registry *prometheus.Registry

	samples    *prometheus.CounterVec
	commands   *prometheus.CounterVec
	sendErrors prometheus.Counter
}

// Option configures the metrics service.
type Option func(*options)

type options struct {
	log logger.Logger
	now func() time.Time
}

func WithLogger(log logger.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithClock replaces the clock used to compute reading ages.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// NewService builds the Prometheus registry over store. A disabled config
// yields a service whose observers and server do nothing.
func NewService(cfg Config, store *telemetry.Store, opts ...Option) (Service, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	o := options{log: logger.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.log.With("metrics")

	// If metrics is disabled, return a no-op service
	if !cfg.Enabled {
		log.Debug().Msg("Metrics exposition disabled, using no-op service")
		return &noopService{}, nil
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	s := &service{
		cfg:      cfg,
		log:      log,
		registry: prometheus.NewRegistry(),
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_total",
			Help:      "Sampling cycles by metric and result.",
		}, []string{"metric", "result"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Inbound frames by command.",
		}, []string{"command"}),
		sendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_sent_errors_total",
			Help:      "Response frames the transport failed to send.",
		}),
	}

	collectors := []prometheus.Collector{
		newStoreCollector(store, o.now),
		s.samples,
		s.commands,
		s.sendErrors,
	}
	for _, c := range collectors {
		if err := s.registry.Register(c); err != nil {
			return nil, errFactory.Wrap(ErrRegisterFailed, err)
		}
	}

	// Export every series from the start, not only after its first event.
	for _, m := range telemetry.Metrics() {
		s.samples.WithLabelValues(m.Field(), resultOK)
		s.samples.WithLabelValues(m.Field(), resultError)
	}
	for _, kind := range []protocol.Kind{protocol.KindAck, protocol.KindReportAll, protocol.KindUnknown} {
		s.commands.WithLabelValues(kind.String())
	}
	s.commands.WithLabelValues(dispatcher.CommandLoopback)

	log.Debug().
		Str("addr", cfg.Addr).
		Str("path", cfg.Path).
		Msg("Metrics service initialized successfully")

	return s, nil
}

func (s *service) IsEnabled() bool {
	return true
}

func (s *service) ObserveSample(metric telemetry.Metric, err error) {
	result := resultOK
	if err != nil {
		result = resultError
	}
	s.samples.WithLabelValues(metric.Field(), result).Inc()
}

func (s *service) ObserveCommand(command string) {
	s.commands.WithLabelValues(command).Inc()
}

func (s *service) ObserveSendError(error) {
	s.sendErrors.Inc()
}
