package transport

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"codeberg.org/mutker/eelnode/internal/errors"
	"codeberg.org/mutker/eelnode/internal/logger"
	"github.com/gorilla/websocket"
)

const (
	defaultWriteTimeout    = 5 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// WebSocketConfig configures the websocket server transport.
type WebSocketConfig struct {
	Addr         string
	Path         string
	FrameWait    time.Duration
	QueueSize    int
	MaxFrameSize int64
	WriteTimeout time.Duration
}

// WebSocket accepts client connections on an HTTP endpoint and exchanges
// one frame per websocket message. Each response goes to the client whose
// frame was last returned by Receive.
type WebSocket struct {
	cfg      WebSocketConfig
	log      logger.Logger
	upgrader websocket.Upgrader
	queue    *queue
	server   *http.Server

	mu      sync.Mutex
	clients map[*wsClient]struct{}
	origin  *wsClient
	wg      sync.WaitGroup
}

var _ Transport = (*WebSocket)(nil)

// wsClient is one connected peer. gorilla allows a single concurrent
// writer per connection, so writes are serialized by writeMu.
type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	gone    atomic.Bool
}

// NewWebSocket creates the transport; call ListenAndServe to accept clients
// or mount Handler on an existing server.
func NewWebSocket(cfg WebSocketConfig, log logger.Logger) *WebSocket {
	if cfg.Path == "" {
		cfg.Path = "/ws"
	}
	if cfg.MaxFrameSize <= 0 {
		cfg.MaxFrameSize = DefaultMaxFrameSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}

	ws := &WebSocket{
		cfg: cfg,
		log: log.With("websocket"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		queue:   newQueue(cfg.QueueSize, cfg.FrameWait),
		clients: make(map[*wsClient]struct{}),
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, ws)
	ws.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return ws
}

// Handler returns the HTTP handler serving the websocket endpoint.
func (w *WebSocket) Handler() http.Handler {
	return w.server.Handler
}

// ListenAndServe serves until ctx is cancelled.
func (w *WebSocket) ListenAndServe(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		w.log.Info().Str("addr", w.cfg.Addr).Str("path", w.cfg.Path).Msg("Websocket transport listening")
		if err := w.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- errors.New().Wrap(ErrOpenFailed, err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		return w.server.Shutdown(shutdownCtx)
	}
}

// ServeHTTP upgrades the request and starts reading frames from the client.
func (w *WebSocket) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	if w.queue.closed() {
		http.Error(rw, "transport closed", http.StatusServiceUnavailable)
		return
	}

	conn, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		w.log.Warn().Err(err).Msg("Failed to upgrade to websocket")
		return
	}
	conn.SetReadLimit(w.cfg.MaxFrameSize)

	client := &wsClient{conn: conn}

	w.mu.Lock()
	w.clients[client] = struct{}{}
	w.mu.Unlock()

	w.log.Info().Str("remote", conn.RemoteAddr().String()).Msg("Client connected")

	w.wg.Add(1)
	go w.readPump(client)
}

func (w *WebSocket) readPump(client *wsClient) {
	defer w.wg.Done()
	defer w.drop(client)

	for {
		_, payload, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				w.log.Warn().Err(err).Msg("Websocket read error")
			}
			return
		}

		if !w.queue.push(payload, client) {
			w.log.Warn().Int("length", len(payload)).Msg("Receive queue full, dropping frame")
			continue
		}

		w.log.Debug().Int("length", len(payload)).Msg("New websocket frame")
	}
}

func (w *WebSocket) drop(client *wsClient) {
	client.gone.Store(true)

	w.mu.Lock()
	delete(w.clients, client)
	w.mu.Unlock()

	client.conn.Close()
	w.log.Info().Str("remote", client.conn.RemoteAddr().String()).Msg("Client disconnected")
}

// Receive returns the next frame from any client and remembers its sender
// as the destination of the next Send.
func (w *WebSocket) Receive(ctx context.Context) ([]byte, error) {
	frame, err := w.queue.pop(ctx)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.origin = frame.origin
	w.mu.Unlock()

	return frame.payload, nil
}

// Send writes frame as a text message to the sender of the last received
// frame. A response for a client that has since disconnected is dropped.
func (w *WebSocket) Send(frame []byte) error {
	errFactory := errors.New()

	if w.queue.closed() {
		return errFactory.New(ErrClosed)
	}

	w.mu.Lock()
	client := w.origin
	w.origin = nil
	w.mu.Unlock()

	if client == nil {
		return errFactory.New(ErrNoPeer)
	}
	if client.gone.Load() {
		w.log.Debug().Str("remote", client.conn.RemoteAddr().String()).Msg("Sender disconnected, dropping response")
		return nil
	}

	client.writeMu.Lock()
	defer client.writeMu.Unlock()

	if err := client.conn.SetWriteDeadline(time.Now().Add(w.cfg.WriteTimeout)); err != nil {
		return errFactory.Wrap(ErrPeerGone, err)
	}
	if err := client.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		// The read pump notices the broken connection and drops it.
		client.conn.Close()
		return errFactory.Wrap(ErrPeerGone, err)
	}

	return nil
}

// Close disconnects every client and stops accepting frames.
func (w *WebSocket) Close() error {
	w.queue.close()

	w.mu.Lock()
	for client := range w.clients {
		_ = client.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		client.conn.Close()
	}
	w.mu.Unlock()

	w.wg.Wait()

	return nil
}
