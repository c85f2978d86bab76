package link

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/tinylib/msgp/msgp"
)

const readBufferSize = 64 * 1024

// session is one connected peer, on either end of the link.
type session struct {
	ctx     context.Context
	raw     net.Conn // carries deadlines
	conn    net.Conn // raw plus throttling and compression
	br      *bufio.Reader
	flush   func() error
	stop    func() bool
	port    *Port // nil on the client side
	logger  *slog.Logger
	id      string
	timeout time.Duration
	started bool // a frame has been read
}

func newSession(ctx context.Context, conn net.Conn, opts Options, port *Port, logger *slog.Logger) (*session, error) {
	s := &session{
		ctx:     ctx,
		raw:     conn,
		port:    port,
		id:      uuid.NewString(),
		timeout: opts.timeout(),
		flush:   func() error { return nil },
	}
	s.logger = logger.With("session", s.id)

	c := conn
	if opts.Baud > 0 {
		c = newLimitedConn(ctx, c, opts.Baud)
	}
	if opts.Compress {
		cc, err := newCompressedConn(c)
		if err != nil {
			return nil, err
		}
		c = cc
		s.flush = cc.Flush
	}
	s.conn = c
	s.br = bufio.NewReaderSize(c, readBufferSize)
	s.stop = context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })

	s.logger.Debug("link session opened", "peer", conn.RemoteAddr().String())
	return s, nil
}

func (s *session) close() {
	s.stop()
	_ = s.conn.Close()
}

func (s *session) emit(t EventType, n int) {
	if s.port != nil {
		s.port.emit(Event{Type: t, Size: n, Session: s.id})
	}
}

// arm sets an I/O deadline unless the session is already cancelled.
func (s *session) arm(set func(time.Time) error) error {
	if err := s.ctx.Err(); err != nil {
		return err
	}
	_ = set(time.Now().Add(s.timeout))
	if err := s.ctx.Err(); err != nil {
		_ = set(time.Now())
		return err
	}
	return nil
}

// classify turns a transport error into an *Error with the right code.
func (s *session) classify(op string, err error) error {
	var ne net.Error
	switch {
	case s.ctx.Err() != nil:
		return newError(op, CodeAborted, s.ctx.Err())
	case errors.Is(err, os.ErrDeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
		return newError(op, CodeTimeout, err)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE):
		s.emit(EventBreak, 0)
		return newError(op, CodeAborted, fmt.Errorf("peer dropped the link: %w", err))
	case isFramingError(err):
		s.emit(EventFrameError, 0)
		return newError(op, CodeProtocol, err)
	}
	return newError(op, CodeIO, err)
}

// readFrame reads the next frame. A pending flush request is honored only
// before the session's first frame; mid-session it would cut a frame apart.
func (s *session) readFrame(op string) (Frame, error) {
	if s.port != nil && !s.started && s.port.flushReq.Swap(false) {
		n, _ := s.br.Discard(s.br.Buffered())
		s.logger.Debug("discarded buffered input", "bytes", n)
	}
	if err := s.arm(s.raw.SetReadDeadline); err != nil {
		return Frame{}, newError(op, CodeAborted, err)
	}
	f, err := ReadFrame(s.br)
	if err != nil {
		if isFramingError(err) && s.br.Buffered() == s.br.Size() {
			s.emit(EventBufferFull, s.br.Buffered())
		}
		return Frame{}, s.classify(op, err)
	}
	s.started = true
	return f, nil
}

func isFramingError(err error) bool {
	return errors.Is(err, ErrFrameTooLarge) || errors.Is(err, ErrUnknownFrame) || errors.Is(err, ErrMalformedFrame)
}

func (s *session) writeFrame(op string, f Frame) error {
	if err := s.arm(s.raw.SetWriteDeadline); err != nil {
		return newError(op, CodeAborted, err)
	}
	if err := WriteFrame(s.conn, f); err != nil {
		return s.classify(op, err)
	}
	if err := s.flush(); err != nil {
		return s.classify(op, err)
	}
	return nil
}

func (s *session) writeMsg(op string, t FrameType, m msgp.Marshaler) error {
	payload, err := m.MarshalMsg(nil)
	if err != nil {
		return newError(op, CodeProtocol, err)
	}
	return s.writeFrame(op, Frame{Type: t, Payload: payload})
}

func (s *session) sendAck(op string, code int, msg string) error {
	return s.writeMsg(op, FrameAck, &Ack{Code: code, Msg: msg})
}

func decodeAck(op string, f Frame) (Ack, error) {
	if f.Type != FrameAck {
		return Ack{}, newError(op, CodeProtocol, fmt.Errorf("expected ack, got %s", f.Type))
	}
	var ack Ack
	if _, err := ack.UnmarshalMsg(f.Payload); err != nil {
		return Ack{}, newError(op, CodeProtocol, fmt.Errorf("decode ack: %w", err))
	}
	return ack, nil
}

// readAck waits for the peer's verdict. A negative code becomes an *Error.
func (s *session) readAck(op string) error {
	f, err := s.readFrame(op)
	if err != nil {
		return err
	}
	ack, err := decodeAck(op, f)
	if err != nil {
		return err
	}
	if ack.Code != CodeOK {
		return newError(op, ack.Code, fmt.Errorf("peer: %s", ack.Msg))
	}
	return nil
}

// recvFile runs the receiving side of a transfer, starting from the
// already-read first frame.
//
//nolint:gocyclo,revive // cyclomatic,cognitive-complexity: one case per frame type
func (s *session) recvFile(op string, first Frame, dst io.Writer, maxBytes int64) (int64, string, error) {
	switch first.Type {
	case FrameHeader:
	case FrameAck:
		ack, err := decodeAck(op, first)
		if err != nil {
			return 0, "", err
		}
		return 0, "", newError(op, ack.Code, fmt.Errorf("peer: %s", ack.Msg))
	default:
		_ = s.sendAck(op, CodeProtocol, "expected header")
		return 0, "", newError(op, CodeProtocol, fmt.Errorf("expected header, got %s", first.Type))
	}

	var h Header
	if _, err := h.UnmarshalMsg(first.Payload); err != nil {
		_ = s.sendAck(op, CodeProtocol, "bad header")
		return 0, "", newError(op, CodeProtocol, fmt.Errorf("bad header: %w", err))
	}
	if h.Size < 0 {
		_ = s.sendAck(op, CodeProtocol, "bad header")
		return 0, h.Name, newError(op, CodeProtocol, fmt.Errorf("negative size %d", h.Size))
	}
	if h.Size > maxBytes {
		_ = s.sendAck(op, CodeTooLarge, fmt.Sprintf("%d bytes exceeds limit of %d", h.Size, maxBytes))
		return 0, h.Name, newError(op, CodeTooLarge, fmt.Errorf("%s is %d bytes, limit %d", h.Name, h.Size, maxBytes))
	}
	if err := s.sendAck(op, CodeOK, "ready"); err != nil {
		return 0, h.Name, err
	}
	s.logger.Debug("receiving", "name", h.Name, "size", h.Size)

	digest := xxhash.New()
	var n int64
	for {
		f, err := s.readFrame(op)
		if err != nil {
			return n, h.Name, err
		}

		switch f.Type {
		case FrameData:
			if n+int64(len(f.Payload)) > h.Size {
				_ = s.sendAck(op, CodeProtocol, "more data than announced")
				return n, h.Name, newError(op, CodeProtocol, fmt.Errorf("sender exceeded announced size %d", h.Size))
			}
			w, err := dst.Write(f.Payload)
			n += int64(w)
			if err != nil {
				_ = s.sendAck(op, CodeIO, "write failed")
				return n, h.Name, newError(op, CodeIO, err)
			}
			_, _ = digest.Write(f.Payload)
			s.emit(EventData, len(f.Payload))

		case FrameTrailer:
			var tr Trailer
			if _, err := tr.UnmarshalMsg(f.Payload); err != nil {
				_ = s.sendAck(op, CodeProtocol, "bad trailer")
				return n, h.Name, newError(op, CodeProtocol, fmt.Errorf("bad trailer: %w", err))
			}
			if n != h.Size {
				_ = s.sendAck(op, CodeProtocol, "short transfer")
				return n, h.Name, newError(op, CodeProtocol, fmt.Errorf("got %d of %d bytes", n, h.Size))
			}
			if tr.Sum != digest.Sum64() {
				s.emit(EventParityError, 0)
				_ = s.sendAck(op, CodeChecksum, "checksum mismatch")
				return n, h.Name, newError(op, CodeChecksum, fmt.Errorf("trailer %016x, computed %016x", tr.Sum, digest.Sum64()))
			}
			return n, h.Name, s.sendAck(op, CodeOK, "received")

		case FrameAbort:
			s.emit(EventPatternDetected, 0)
			return n, h.Name, newError(op, CodeAborted, errors.New("sender aborted"))

		default:
			_ = s.sendAck(op, CodeProtocol, "unexpected frame")
			return n, h.Name, newError(op, CodeProtocol, fmt.Errorf("unexpected %s frame", f.Type))
		}
	}
}

// sendFile runs the sending side of a transfer. src must yield exactly
// size bytes.
func (s *session) sendFile(op, name string, size int64, src io.Reader) error {
	if err := s.writeMsg(op, FrameHeader, &Header{Name: name, Size: size}); err != nil {
		return err
	}
	if err := s.readAck(op); err != nil {
		return err
	}

	digest := xxhash.New()
	buf := make([]byte, DataChunkSize)
	for remaining := size; remaining > 0; {
		chunk := buf[:min(remaining, int64(len(buf)))]
		if _, err := io.ReadFull(src, chunk); err != nil {
			_ = s.writeFrame(op, Frame{Type: FrameAbort})
			return newError(op, CodeIO, fmt.Errorf("read source: %w", err))
		}
		_, _ = digest.Write(chunk)
		if err := s.writeFrame(op, Frame{Type: FrameData, Payload: chunk}); err != nil {
			return err
		}
		remaining -= int64(len(chunk))
	}

	if err := s.writeMsg(op, FrameTrailer, &Trailer{Sum: digest.Sum64()}); err != nil {
		return err
	}
	return s.readAck(op)
}
