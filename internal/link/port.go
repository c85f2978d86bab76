package link

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"
)

// acceptPoll bounds each Accept call so cancellation is noticed promptly.
const acceptPoll = 200 * time.Millisecond

var errNoPeer = errors.New("no peer connected")

type deadliner interface {
	SetDeadline(t time.Time) error
}

// Port is the device end of the link. It accepts one session at a time
// from its listener and publishes transport events on a bounded queue.
type Port struct {
	ln       net.Listener
	logger   *slog.Logger
	events   chan Event
	opts     Options
	overflow atomic.Bool
	flushReq atomic.Bool
}

// Listen opens a TCP port on addr.
func Listen(addr string, opts Options, logger *slog.Logger) (*Port, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return NewPort(ln, opts, logger), nil
}

// NewPort wraps ln. Listeners without SetDeadline cannot be cancelled while
// waiting for a peer.
func NewPort(ln net.Listener, opts Options, logger *slog.Logger) *Port {
	if logger == nil {
		logger = slog.Default()
	}
	return &Port{
		ln:     ln,
		logger: logger,
		events: make(chan Event, opts.queueSize()),
		opts:   opts,
	}
}

// Addr returns the listening address.
func (p *Port) Addr() net.Addr { return p.ln.Addr() }

// Events returns the transport event queue.
func (p *Port) Events() <-chan Event { return p.events }

// Flush asks for buffered inbound bytes to be discarded. The request is
// served at the next frame boundary that does not fall inside a transfer,
// which is the start of the next session.
func (p *Port) Flush() { p.flushReq.Store(true) }

// Close stops accepting sessions. The event queue stays open.
func (p *Port) Close() error { return p.ln.Close() }

// emit never blocks. A dropped event is reported as FIFOOverflow on the
// next emit that finds room.
func (p *Port) emit(ev Event) {
	if p.overflow.Load() {
		select {
		case p.events <- Event{Type: EventFIFOOverflow, Session: ev.Session}:
			p.overflow.Store(false)
		default:
			return
		}
	}
	select {
	case p.events <- ev:
	default:
		p.overflow.Store(true)
	}
}

// accept waits up to wait for a peer.
func (p *Port) accept(ctx context.Context, wait time.Duration) (net.Conn, error) {
	deadline := time.Now().Add(wait)
	dl, canPoll := p.ln.(deadliner)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if canPoll {
			next := time.Now().Add(acceptPoll)
			if next.After(deadline) {
				next = deadline
			}
			_ = dl.SetDeadline(next)
		}
		conn, err := p.ln.Accept()
		if err == nil {
			return conn, nil
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			if !time.Now().Before(deadline) {
				return nil, errNoPeer
			}
			continue
		}
		return nil, err
	}
}

// open accepts the next peer and starts a session with it.
func (p *Port) open(ctx context.Context, op string) (*session, error) {
	conn, err := p.accept(ctx, p.opts.wait())
	if err != nil {
		switch {
		case errors.Is(err, errNoPeer):
			return nil, newError(op, CodeTimeout, err)
		case ctx.Err() != nil:
			return nil, newError(op, CodeAborted, ctx.Err())
		}
		return nil, newError(op, CodeIO, err)
	}
	s, err := newSession(ctx, conn, p.opts, p, p.logger)
	if err != nil {
		conn.Close()
		return nil, newError(op, CodeIO, err)
	}
	return s, nil
}
