package stats

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Collector tracks transfer loop statistics using lock-free atomic counters.
type Collector struct {
	startTime       time.Time
	cycles          atomic.Int64
	slotsReceived   atomic.Int64
	bytesReceived   atomic.Int64
	receiveFailures atomic.Int64
	sendsCompleted  atomic.Int64
	sendsFailed     atomic.Int64
	bytesSent       atomic.Int64
	storageFull     atomic.Int64
	slotsSwept      atomic.Int64
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	Cycles          int64
	SlotsReceived   int64
	BytesReceived   int64
	ReceiveFailures int64
	SendsCompleted  int64
	SendsFailed     int64
	BytesSent       int64
	StorageFull     int64
	SlotsSwept      int64
	Elapsed         time.Duration
}

func (c *Collector) AddCycles(n int64)          { c.cycles.Add(n) }
func (c *Collector) AddSlotsReceived(n int64)   { c.slotsReceived.Add(n) }
func (c *Collector) AddBytesReceived(n int64)   { c.bytesReceived.Add(n) }
func (c *Collector) AddReceiveFailures(n int64) { c.receiveFailures.Add(n) }
func (c *Collector) AddSendsCompleted(n int64)  { c.sendsCompleted.Add(n) }
func (c *Collector) AddSendsFailed(n int64)     { c.sendsFailed.Add(n) }
func (c *Collector) AddBytesSent(n int64)       { c.bytesSent.Add(n) }
func (c *Collector) AddStorageFull(n int64)     { c.storageFull.Add(n) }
func (c *Collector) AddSlotsSwept(n int64)      { c.slotsSwept.Add(n) }

// Snapshot returns a point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Cycles:          c.cycles.Load(),
		SlotsReceived:   c.slotsReceived.Load(),
		BytesReceived:   c.bytesReceived.Load(),
		ReceiveFailures: c.receiveFailures.Load(),
		SendsCompleted:  c.sendsCompleted.Load(),
		SendsFailed:     c.sendsFailed.Load(),
		BytesSent:       c.bytesSent.Load(),
		StorageFull:     c.storageFull.Load(),
		SlotsSwept:      c.slotsSwept.Load(),
		Elapsed:         c.Elapsed(),
	}
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"cycles=%d received=%d bytes_in=%d recv_failed=%d sent=%d send_failed=%d bytes_out=%d full=%d swept=%d",
		s.Cycles, s.SlotsReceived, s.BytesReceived, s.ReceiveFailures,
		s.SendsCompleted, s.SendsFailed, s.BytesSent, s.StorageFull, s.SlotsSwept,
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
