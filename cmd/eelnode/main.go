package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"codeberg.org/mutker/eelnode/internal/config"
	"codeberg.org/mutker/eelnode/internal/dispatcher"
	"codeberg.org/mutker/eelnode/internal/errors"
	"codeberg.org/mutker/eelnode/internal/logger"
	"codeberg.org/mutker/eelnode/internal/metrics"
	"codeberg.org/mutker/eelnode/internal/pid"
	"codeberg.org/mutker/eelnode/internal/sampler"
	"codeberg.org/mutker/eelnode/internal/telemetry"
	"codeberg.org/mutker/eelnode/internal/transport"
	"github.com/spf13/pflag"
)

const (
	minRestartDelay = 500 * time.Millisecond
	maxRestartDelay = 30 * time.Second
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Printf("failed to load config: %v\n", err)
		return 1
	}

	if err := logger.Init(cfg.LogLevel.String(), logger.IsService()); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		return 1
	}
	logger.Debug().Msg("Config loaded")

	pidFile := pid.New(cfg.PIDFile)
	if err := pidFile.Write(); err != nil {
		logFault(err).Str("path", pidFile.Path()).Msg("failed to write PID file")
		return 1
	}
	defer func() {
		if err := pidFile.Remove(); err != nil {
			logFault(err).Msg("failed to remove PID file")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log := logger.Default()
	store := telemetry.NewStore()

	metricsCfg := metrics.DefaultConfig()
	metricsCfg.Addr = cfg.MetricsListen
	metricsCfg.Enabled = cfg.MetricsListen != ""
	exporter, err := metrics.NewService(metricsCfg, store, metrics.WithLogger(log))
	if err != nil {
		logFault(initFailed(err)).Msg("failed to initialize metrics")
		return 1
	}

	link, err := openLink(cfg, log)
	if err != nil {
		logFault(initFailed(err)).Str("transport", cfg.Transport.String()).Msg("failed to open transport")
		return 1
	}

	var (
		background sync.WaitGroup
		failed     bool
		failedMu   sync.Mutex
	)
	goBackground := func(name string, fn func(context.Context) error) {
		background.Add(1)
		go func() {
			defer background.Done()
			if err := fn(ctx); err != nil {
				logFault(err).Str("service", name).Msg("background service failed")
				failedMu.Lock()
				failed = true
				failedMu.Unlock()
				cancel()
			}
		}()
	}

	goBackground("metrics", exporter.Serve)
	if link.serve != nil {
		goBackground(cfg.Transport.String(), link.serve)
	}

	var tasks []*sampler.Task
	for metric, s := range buildSensors(cfg) {
		tasks = append(tasks, sampler.New(metric, s, store,
			sampler.WithPeriod(cfg.Interval),
			sampler.WithLogger(log),
			sampler.WithObserver(exporter),
		))
	}
	var group sampler.Group
	group.Go(ctx, tasks...)

	logger.Info().
		Str("transport", cfg.Transport.String()).
		Str("sensors", cfg.Sensors.String()).
		Dur("interval", cfg.Interval).
		Msg("Node started")

	dispatch(ctx, store, link, log, exporter)

	logger.Info().Msg("Shutting down")
	if err := link.current.Close(); err != nil {
		logFault(err).Msg("failed to close transport")
	}
	group.Wait()
	background.Wait()
	logger.Info().Msg("Exiting...")

	failedMu.Lock()
	defer failedMu.Unlock()
	if failed {
		return 1
	}
	return 0
}

// dispatch answers frames until ctx is done. A transport fault restarts the
// dispatcher after an increasing delay; links that can be reopened are
// reopened first. Losing a single client is not a transport fault and
// restarts immediately.
func dispatch(ctx context.Context, store *telemetry.Store, l *link, log logger.Logger, observer dispatcher.Observer) {
	delay := minRestartDelay

	for {
		d := dispatcher.New(store, l.current, dispatcher.WithLogger(log), dispatcher.WithObserver(observer))

		started := time.Now()
		err := d.Serve(ctx)
		if err == nil {
			return
		}

		if peerLost(err) {
			logger.Debug().Err(err).Msg("Client went away, restarting dispatcher")
			continue
		}

		if time.Since(started) > maxRestartDelay {
			delay = minRestartDelay
		}
		logFault(err).Dur("retry_in", delay).Msg("Dispatcher stopped on transport fault")

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay = min(delay*2, maxRestartDelay)

		if l.reopen != nil && errors.HasCode(err, transport.ErrClosed) {
			if err := l.reopenNow(); err != nil {
				logFault(err).Msg("failed to reopen transport")
			}
		}
	}
}

func peerLost(err error) bool {
	return errors.HasCode(err, transport.ErrNoPeer) || errors.HasCode(err, transport.ErrPeerGone)
}

// initFailed marks err as a bring-up failure, keeping its cause.
func initFailed(err error) error {
	return errors.New().Wrap(errors.ErrInitFailed, err)
}

// logFault starts an error entry, tagged with the error code when err
// carries one.
func logFault(err error) *logger.LogEvent {
	var coded errors.Error
	if errors.As(err, &coded) {
		return logger.ErrorWithCode(coded)
	}
	return &logger.LogEvent{Event: logger.Error().Err(err)}
}
