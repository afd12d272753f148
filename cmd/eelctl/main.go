package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"codeberg.org/mutker/eelnode/internal/errors"
	"github.com/gorilla/websocket"
	"github.com/urfave/cli/v3"
)

const (
	defaultURL     = "ws://localhost:8080/ws"
	defaultTimeout = 3 * time.Second
)

// shorthand maps command names to their request frames.
var shorthand = map[string]string{
	"ack":    `{"cmd":0}`,
	"report": `{"cmd":1}`,
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "eelctl",
		Usage:     "Send one command frame to an eelnode and print the response",
		ArgsUsage: "<ack|report|FRAME>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Aliases: []string{"u"},
				Value:   defaultURL,
				Usage:   "websocket endpoint of the node",
				Sources: cli.EnvVars("EELCTL_URL"),
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Value:   defaultTimeout,
				Usage:   "how long to wait for the connection and the response",
			},
		},
		Action: send,
	}
}

func send(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errors.New().WithMessage(errors.ErrInvalidArgument,
			fmt.Sprintf("expected exactly one command, got %d", cmd.Args().Len()))
	}

	response, err := exchange(ctx, cmd.String("url"), frameFor(cmd.Args().First()), cmd.Duration("timeout"))
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.Root().Writer, string(response))
	return nil
}

func frameFor(arg string) []byte {
	if frame, ok := shorthand[arg]; ok {
		return []byte(frame)
	}
	return []byte(arg)
}

// exchange sends frame on a fresh connection and returns the first reply.
func exchange(ctx context.Context, url string, frame []byte, timeout time.Duration) ([]byte, error) {
	errFactory := errors.New()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrUnavailable, err)
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return nil, errFactory.Wrap(errors.ErrOperationFailed, err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return nil, errFactory.Wrap(errors.ErrOperationFailed, err)
	}

	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, errFactory.Wrap(errors.ErrOperationFailed, err)
	}
	_, response, err := conn.ReadMessage()
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, errFactory.Wrap(errors.ErrTimeout, err)
		}
		return nil, errFactory.Wrap(errors.ErrOperationFailed, err)
	}

	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

	return response, nil
}
