package main

import (
	"context"

	"codeberg.org/mutker/eelnode/internal/config"
	"codeberg.org/mutker/eelnode/internal/logger"
	"codeberg.org/mutker/eelnode/internal/transport"
)

// link is the node's command transport and how to keep it alive.
type link struct {
	current transport.Transport
	// serve runs alongside the dispatcher when the transport needs a listener.
	serve func(context.Context) error
	// reopen replaces a transport whose underlying device went away.
	reopen func() (transport.Transport, error)
}

func openLink(cfg *config.Config, log logger.Logger) (*link, error) {
	switch cfg.Transport {
	case config.TransportSerial:
		serialCfg := transport.SerialConfig{
			Port:      cfg.SerialPort,
			BaudRate:  cfg.BaudRate,
			FrameWait: cfg.FrameWait,
			QueueSize: transport.DefaultQueueSize,
		}
		open := func() (transport.Transport, error) {
			return transport.OpenSerial(serialCfg, log)
		}

		t, err := open()
		if err != nil {
			return nil, err
		}
		return &link{current: t, reopen: open}, nil

	default:
		ws := transport.NewWebSocket(transport.WebSocketConfig{
			Addr:      cfg.Listen,
			Path:      cfg.WSPath,
			FrameWait: cfg.FrameWait,
			QueueSize: transport.DefaultQueueSize,
		}, log)
		return &link{current: ws, serve: ws.ListenAndServe}, nil
	}
}

func (l *link) reopenNow() error {
	_ = l.current.Close()

	t, err := l.reopen()
	if err != nil {
		return err
	}
	l.current = t
	return nil
}
