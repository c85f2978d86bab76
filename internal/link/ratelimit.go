package link

import (
	"context"
	"net"

	"golang.org/x/time/rate"
)

// NewBaudLimiter caps throughput at what a serial line of the given baud
// rate carries: ten bits on the wire per byte (8N1).
func NewBaudLimiter(baud int) *rate.Limiter {
	bytesPerSec := baud / 10
	if bytesPerSec < 1 {
		bytesPerSec = 1
	}
	burst := min(bytesPerSec, DataChunkSize)
	return rate.NewLimiter(rate.Limit(bytesPerSec), burst)
}

// limitedConn throttles reads and writes on a net.Conn. Each direction
// has its own limiter, as on a full-duplex line.
type limitedConn struct {
	net.Conn
	ctx   context.Context
	read  *rate.Limiter
	write *rate.Limiter
}

func newLimitedConn(ctx context.Context, conn net.Conn, baud int) *limitedConn {
	return &limitedConn{
		Conn:  conn,
		ctx:   ctx,
		read:  NewBaudLimiter(baud),
		write: NewBaudLimiter(baud),
	}
}

func (c *limitedConn) Read(p []byte) (int, error) {
	if b := c.read.Burst(); len(p) > b {
		p = p[:b]
	}
	n, err := c.Conn.Read(p)
	if n > 0 {
		if waitErr := c.read.WaitN(c.ctx, n); waitErr != nil {
			return n, waitErr
		}
	}
	return n, err
}

func (c *limitedConn) Write(p []byte) (int, error) {
	var written int
	for len(p) > 0 {
		chunk := min(len(p), c.write.Burst())
		if err := c.write.WaitN(c.ctx, chunk); err != nil {
			return written, err
		}
		n, err := c.Conn.Write(p[:chunk])
		written += n
		if err != nil {
			return written, err
		}
		p = p[chunk:]
	}
	return written, nil
}
