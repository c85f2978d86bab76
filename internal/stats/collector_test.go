package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()
	const goroutines = 100
	const opsPerGoroutine = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			for range opsPerGoroutine {
				c.AddCycles(1)
				c.AddSlotsReceived(1)
				c.AddBytesReceived(256)
				c.AddReceiveFailures(1)
				c.AddSendsCompleted(1)
				c.AddSendsFailed(1)
				c.AddBytesSent(128)
				c.AddStorageFull(1)
				c.AddSlotsSwept(1)
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	expected := int64(goroutines * opsPerGoroutine)
	assert.Equal(t, expected, s.Cycles)
	assert.Equal(t, expected, s.SlotsReceived)
	assert.Equal(t, expected*256, s.BytesReceived)
	assert.Equal(t, expected, s.ReceiveFailures)
	assert.Equal(t, expected, s.SendsCompleted)
	assert.Equal(t, expected, s.SendsFailed)
	assert.Equal(t, expected*128, s.BytesSent)
	assert.Equal(t, expected, s.StorageFull)
	assert.Equal(t, expected, s.SlotsSwept)
}

func TestSnapshotString(t *testing.T) {
	s := Snapshot{Cycles: 3, SlotsReceived: 2, BytesReceived: 300, ReceiveFailures: 1, SendsCompleted: 2}
	assert.Equal(t,
		"cycles=3 received=2 bytes_in=300 recv_failed=1 sent=2 send_failed=0 bytes_out=0 full=0 swept=0",
		s.String())
}

func TestElapsed(t *testing.T) {
	c := NewCollector()
	time.Sleep(10 * time.Millisecond)
	assert.GreaterOrEqual(t, c.Snapshot().Elapsed, 10*time.Millisecond)
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		want  string
		bytes int64
	}{
		{"0 B", 0},
		{"1023 B", 1023},
		{"1.0 KiB", 1024},
		{"1.5 KiB", 1536},
		{"1.0 MiB", 1 << 20},
		{"1.0 GiB", 1 << 30},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.bytes))
	}
}
