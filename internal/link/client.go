package link

import (
	"context"
	"io"
	"log/slog"
	"net"
)

func dial(ctx context.Context, op, addr string, opts Options) (*session, error) {
	d := net.Dialer{Timeout: opts.timeout()}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		if ctx.Err() != nil {
			return nil, newError(op, CodeAborted, ctx.Err())
		}
		return nil, newError(op, CodeIO, err)
	}
	s, err := newSession(ctx, conn, opts, nil, slog.Default())
	if err != nil {
		conn.Close()
		return nil, newError(op, CodeIO, err)
	}
	return s, nil
}

// Push sends size bytes from r to the device at addr under name.
func Push(ctx context.Context, addr, name string, size int64, r io.Reader, opts Options) error {
	const op = "send"
	s, err := dial(ctx, op, addr, opts)
	if err != nil {
		return err
	}
	defer s.close()
	return s.sendFile(op, name, size, r)
}

// Pull asks the device at addr to transmit its current file and writes it
// to w. Files larger than maxBytes are refused.
func Pull(ctx context.Context, addr string, w io.Writer, maxBytes int64, opts Options) (int64, string, error) {
	const op = "receive"
	s, err := dial(ctx, op, addr, opts)
	if err != nil {
		return 0, "", err
	}
	defer s.close()

	if err := s.writeFrame(op, Frame{Type: FramePull}); err != nil {
		return 0, "", err
	}
	first, err := s.readFrame(op)
	if err != nil {
		return 0, "", err
	}
	return s.recvFile(op, first, w, maxBytes)
}
