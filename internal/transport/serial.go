package transport

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"codeberg.org/mutker/eelnode/internal/errors"
	"codeberg.org/mutker/eelnode/internal/logger"
	"go.bug.st/serial"
)

// DefaultBaudRate is the UART speed used by the node's console port.
const DefaultBaudRate = 115200

// SerialConfig configures the serial line transport.
type SerialConfig struct {
	Port         string
	BaudRate     int
	FrameWait    time.Duration
	QueueSize    int
	MaxFrameSize int
}

// Serial exchanges newline-delimited frames over a serial port.
type Serial struct {
	cfg   SerialConfig
	log   logger.Logger
	conn  io.ReadWriteCloser
	queue *queue

	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

var _ Transport = (*Serial)(nil)

// OpenSerial opens the configured port and starts reading frames.
func OpenSerial(cfg SerialConfig, log logger.Logger) (*Serial, error) {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, errors.New().WithData(ErrOpenFailed, struct {
			Port  string
			Error string
		}{
			Port:  cfg.Port,
			Error: err.Error(),
		})
	}

	return NewSerial(port, cfg, log), nil
}

// NewSerial runs the line protocol over an already opened connection.
func NewSerial(conn io.ReadWriteCloser, cfg SerialConfig, log logger.Logger) *Serial {
	if cfg.MaxFrameSize <= 0 {
		cfg.MaxFrameSize = DefaultMaxFrameSize
	}

	s := &Serial{
		cfg:   cfg,
		log:   log.With("serial"),
		conn:  conn,
		queue: newQueue(cfg.QueueSize, cfg.FrameWait),
		done:  make(chan struct{}),
	}

	go s.readLines()

	return s
}

func (s *Serial) readLines() {
	defer close(s.done)

	// One extra byte for the newline terminating a maximum-size frame.
	reader := bufio.NewReaderSize(s.conn, s.cfg.MaxFrameSize+1)

	for {
		line, err := reader.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			s.log.Warn().Int("max", s.cfg.MaxFrameSize).Msg("Frame exceeds maximum size, discarding")
			if err = discardLine(reader); err != nil {
				s.readFailed(err)
				return
			}
			continue
		}

		if line = bytes.TrimSpace(line); len(line) > 0 {
			if !s.queue.push(line, nil) {
				if s.queue.closed() {
					return
				}
				s.log.Warn().Int("length", len(line)).Msg("Receive queue full, dropping frame")
			}
		}

		if err != nil {
			s.readFailed(err)
			return
		}
	}
}

// discardLine skips input up to and including the next newline.
func discardLine(reader *bufio.Reader) error {
	for {
		_, err := reader.ReadSlice('\n')
		if !errors.Is(err, bufio.ErrBufferFull) {
			return err
		}
	}
}

func (s *Serial) readFailed(err error) {
	if err != io.EOF && !s.queue.closed() {
		s.log.Error().Err(err).Msg("Error reading from serial port")
	}
}

func (s *Serial) Receive(ctx context.Context) ([]byte, error) {
	frame, err := s.queue.pop(ctx)
	if err == nil {
		return frame.payload, nil
	}

	// A reader that hit EOF will never deliver again.
	select {
	case <-s.done:
		if errors.HasCode(err, ErrNoFrame) {
			return nil, errors.New().New(ErrClosed)
		}
	default:
	}

	return nil, err
}

// Send writes frame followed by a newline.
func (s *Serial) Send(frame []byte) error {
	errFactory := errors.New()

	if s.queue.closed() {
		return errFactory.New(ErrClosed)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	buf := make([]byte, 0, len(frame)+1)
	buf = append(buf, frame...)
	buf = append(buf, '\n')

	if _, err := s.conn.Write(buf); err != nil {
		return errFactory.Wrap(ErrSendFailed, err)
	}

	return nil
}

func (s *Serial) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.queue.close()
		err = s.conn.Close()
	})
	if err != nil {
		return errors.New().Wrap(ErrClosed, err)
	}
	return nil
}
