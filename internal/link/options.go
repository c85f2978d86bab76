package link

import "time"

const (
	DefaultWait      = 30 * time.Second
	DefaultTimeout   = 10 * time.Second
	DefaultQueueSize = 20
)

// Options are agreed out of band; both peers must use the same Compress
// setting.
type Options struct {
	// Wait bounds how long the device waits for a peer to connect.
	Wait time.Duration
	// Timeout is the idle limit for a single frame read or write.
	Timeout time.Duration
	// Baud throttles the link to a serial line's rate. Zero is unlimited.
	Baud int
	// Compress enables zstd stream compression.
	Compress bool
	// QueueSize bounds the port's event queue.
	QueueSize int
}

func (o Options) wait() time.Duration {
	if o.Wait > 0 {
		return o.Wait
	}
	return DefaultWait
}

func (o Options) timeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return DefaultTimeout
}

func (o Options) queueSize() int {
	if o.QueueSize > 0 {
		return o.QueueSize
	}
	return DefaultQueueSize
}
