package main

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"codeberg.org/mutker/eelnode/internal/config"
	"codeberg.org/mutker/eelnode/internal/errors"
	"codeberg.org/mutker/eelnode/internal/logger"
	"codeberg.org/mutker/eelnode/internal/sensor"
	"codeberg.org/mutker/eelnode/internal/telemetry"
	"codeberg.org/mutker/eelnode/internal/transport"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSensorsCoversEveryMetric(t *testing.T) {
	for _, mode := range []config.SensorMode{config.SensorsSimulated, config.SensorsHardware} {
		cfg := &config.Config{Sensors: mode, Hardware: config.HardwareConfig{DS18B20ID: "28-0000"}}

		sensors := buildSensors(cfg)
		for _, m := range telemetry.Metrics() {
			assert.Contains(t, sensors, m, "%s: %s", mode, m)
		}
	}
}

func TestSimulatedSensorsProduceReadings(t *testing.T) {
	sensors := buildSensors(&config.Config{Sensors: config.SensorsSimulated})

	for _, s := range []sensor.Sensor{sensors[telemetry.PH], sensors[telemetry.DissolvedOxygen]} {
		v, err := s.Sample(context.Background())
		require.NoError(t, err)
		assert.Contains(t, []float64{8, 9, 10}, v)
	}
}

func TestDispatchReopensClosedLink(t *testing.T) {
	dead := transport.NewPipe(10*time.Millisecond, 1)
	require.NoError(t, dead.Close())

	fresh := transport.NewPipe(10*time.Millisecond, 1)
	require.NoError(t, fresh.Deliver([]byte(`{"cmd":0}`)))

	l := &link{
		current: dead,
		reopen:  func() (transport.Transport, error) { return fresh, nil },
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		dispatch(ctx, telemetry.NewStore(), l, logger.Nop(), nil)
		close(done)
	}()

	select {
	case out := <-fresh.Sent():
		assert.Equal(t, `{"status":1}`, string(out))
	case <-time.After(3 * time.Second):
		t.Fatal("no response on reopened link")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatch did not return after cancel")
	}
}

// departingPeer fails the first response as if its client had disconnected.
type departingPeer struct {
	*transport.Pipe
	failed atomic.Bool
}

func (p *departingPeer) Send(frame []byte) error {
	if !p.failed.Swap(true) {
		return errors.New().New(transport.ErrPeerGone)
	}
	return p.Pipe.Send(frame)
}

func runDispatch(t *testing.T, l *link) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		dispatch(ctx, telemetry.NewStore(), l, logger.Nop(), nil)
		close(done)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestDispatchRestartsImmediatelyWhenPeerLeaves(t *testing.T) {
	pipe := transport.NewPipe(10*time.Millisecond, 2)
	require.NoError(t, pipe.Deliver([]byte(`{"cmd":0}`)))
	require.NoError(t, pipe.Deliver([]byte(`{"cmd":0}`)))

	runDispatch(t, &link{current: &departingPeer{Pipe: pipe}})

	select {
	case out := <-pipe.Sent():
		assert.Equal(t, `{"status":1}`, string(out))
	case <-time.After(minRestartDelay / 2):
		t.Fatal("second frame waited for a restart delay")
	}
}

func TestDispatchAnswersNextClientAfterSenderDisconnects(t *testing.T) {
	ws := transport.NewWebSocket(transport.WebSocketConfig{
		Path:      "/ws",
		FrameWait: 20 * time.Millisecond,
	}, logger.Nop())
	srv := httptest.NewServer(ws.Handler())
	t.Cleanup(func() {
		ws.Close()
		srv.Close()
	})
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	gone, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.NoError(t, gone.WriteMessage(websocket.TextMessage, []byte(`{"cmd":0}`)))
	require.NoError(t, gone.Close())
	time.Sleep(50 * time.Millisecond)

	runDispatch(t, &link{current: ws})

	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"cmd":0}`)))
	require.NoError(t, client.SetReadDeadline(time.Now().Add(minRestartDelay/2)))
	_, payload, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, `{"status":1}`, string(payload))
}

func TestInitFailedKeepsCause(t *testing.T) {
	cause := errors.New().New(transport.ErrOpenFailed)
	err := initFailed(cause)

	assert.True(t, errors.HasCode(err, errors.ErrInitFailed))
	assert.True(t, errors.HasCode(err, transport.ErrOpenFailed))
	assert.NotPanics(t, func() {
		logFault(err).Msg("failed to open transport")
		logFault(assert.AnError).Msg("uncoded")
	})
}
