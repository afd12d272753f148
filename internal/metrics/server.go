package metrics

import (
	"context"
	"net/http"
	"time"

	"codeberg.org/mutker/eelnode/internal/errors"
	"codeberg.org/mutker/eelnode/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const readHeaderTimeout = 5 * time.Second

func (s *service) Handler() http.Handler {
	mux := http.NewServeMux()

	handler := promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	mux.Handle(s.cfg.Path, promhttp.InstrumentMetricHandler(s.registry, handler))

	return mux
}

func (s *service) Serve(ctx context.Context) error {
	errFactory := errors.New()

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	s.log.Info().Str("addr", s.cfg.Addr).Str("path", s.cfg.Path).Msg("Serving metrics")

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errFactory.Wrap(ErrServeFailed, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errFactory.Wrap(ErrServiceShutdown, err)
	}
	return nil
}

// No-op implementation
type noopService struct{}

func (*noopService) ObserveSample(_ telemetry.Metric, _ error) {}

func (*noopService) ObserveCommand(_ string) {}

func (*noopService) ObserveSendError(_ error) {}

func (*noopService) Handler() http.Handler {
	return http.NotFoundHandler()
}

func (*noopService) Serve(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (*noopService) IsEnabled() bool {
	return false
}
