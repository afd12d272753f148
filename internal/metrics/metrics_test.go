package metrics_test

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeberg.org/mutker/eelnode/internal/dispatcher"
	"codeberg.org/mutker/eelnode/internal/errors"
	"codeberg.org/mutker/eelnode/internal/metrics"
	"codeberg.org/mutker/eelnode/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, svc metrics.Service) string {
	t.Helper()
	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*metrics.Config)
		wantErr errors.ErrorCode
	}{
		{name: "defaults", modify: func(*metrics.Config) {}},
		{name: "disabled without addr", modify: func(c *metrics.Config) { c.Enabled = false; c.Addr = "" }},
		{name: "empty addr", modify: func(c *metrics.Config) { c.Addr = "" }, wantErr: metrics.ErrInvalidAddr},
		{name: "relative path", modify: func(c *metrics.Config) { c.Path = "metrics" }, wantErr: metrics.ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := metrics.DefaultConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.HasCode(err, tt.wantErr))
		})
	}
}

func TestNewServiceRejectsInvalidConfig(t *testing.T) {
	cfg := metrics.DefaultConfig()
	cfg.Addr = ""

	_, err := metrics.NewService(cfg, telemetry.NewStore())
	assert.True(t, errors.HasCode(err, metrics.ErrInvalidConfig))
}

func TestReadingGauges(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := telemetry.NewStore()
	store.Write(telemetry.PH, 9)

	svc, err := metrics.NewService(metrics.DefaultConfig(), store,
		metrics.WithClock(func() time.Time { return now.Add(time.Hour) }))
	require.NoError(t, err)

	body := scrape(t, svc)
	assert.Contains(t, body, `eelnode_reading{metric="ph"} 9`)
	assert.Contains(t, body, `eelnode_reading{metric="temperature"} 0`)
	assert.Contains(t, body, `eelnode_reading_valid{metric="ph"} 1`)
	assert.Contains(t, body, `eelnode_reading_valid{metric="distance"} 0`)
	assert.Contains(t, body, `eelnode_reading_age_seconds{metric="ph"}`)
	assert.NotContains(t, body, `eelnode_reading_age_seconds{metric="distance"}`)
}

func TestCounters(t *testing.T) {
	svc, err := metrics.NewService(metrics.DefaultConfig(), telemetry.NewStore())
	require.NoError(t, err)

	body := scrape(t, svc)
	assert.Contains(t, body, `eelnode_samples_total{metric="distance",result="error"} 0`)
	assert.Contains(t, body, `eelnode_commands_total{command="loopback"} 0`)

	svc.ObserveSample(telemetry.Distance, nil)
	svc.ObserveSample(telemetry.Distance, stderrors.New("no echo"))
	svc.ObserveSample(telemetry.Distance, stderrors.New("no echo"))
	svc.ObserveCommand("ack")
	svc.ObserveCommand(dispatcher.CommandLoopback)
	svc.ObserveSendError(stderrors.New("no peer"))

	body = scrape(t, svc)
	assert.Contains(t, body, `eelnode_samples_total{metric="distance",result="ok"} 1`)
	assert.Contains(t, body, `eelnode_samples_total{metric="distance",result="error"} 2`)
	assert.Contains(t, body, `eelnode_commands_total{command="ack"} 1`)
	assert.Contains(t, body, `eelnode_commands_total{command="loopback"} 1`)
	assert.Contains(t, body, `eelnode_commands_total{command="report"} 0`)
	assert.Contains(t, body, `eelnode_frames_sent_errors_total 1`)
}

func TestDisabledService(t *testing.T) {
	cfg := metrics.DefaultConfig()
	cfg.Enabled = false

	svc, err := metrics.NewService(cfg, telemetry.NewStore())
	require.NoError(t, err)
	assert.False(t, svc.IsEnabled())

	svc.ObserveSample(telemetry.PH, nil)
	svc.ObserveCommand("ack")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, svc.Serve(ctx))
}

func TestServeStopsOnCancel(t *testing.T) {
	cfg := metrics.DefaultConfig()
	cfg.Addr = "127.0.0.1:0"

	svc, err := metrics.NewService(cfg, telemetry.NewStore())
	require.NoError(t, err)
	assert.True(t, svc.IsEnabled())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServeReportsListenFailure(t *testing.T) {
	cfg := metrics.DefaultConfig()
	cfg.Addr = "256.0.0.1:bad"

	svc, err := metrics.NewService(cfg, telemetry.NewStore())
	require.NoError(t, err)

	err = svc.Serve(context.Background())
	assert.True(t, errors.HasCode(err, metrics.ErrServeFailed))
}
