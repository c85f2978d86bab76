package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/flashdrop/internal/link"
	"github.com/bamsammich/flashdrop/internal/stats"
)

func runPlain(t *testing.T, verbose bool, evs ...Event) string {
	t.Helper()
	var out bytes.Buffer
	p := &plainPresenter{w: &out, stats: stats.NewCollector(), verbose: verbose}

	events := make(chan Event, len(evs))
	for _, ev := range evs {
		events <- ev
	}
	close(events)

	require.NoError(t, p.Run(events))
	return out.String()
}

func TestPlainPresenterReceiveCompleted(t *testing.T) {
	ts := time.Date(2024, 3, 1, 9, 30, 15, 0, time.Local)
	out := runPlain(t, false,
		Event{Type: ReceiveStarted, Timestamp: ts, Path: "/yfile-1.bin", Limit: 1032192},
		Event{Type: ReceiveCompleted, Timestamp: ts, Path: "/yfile-1.bin", Name: "fw.bin", Size: 2048},
	)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "09:30:15  waiting for /yfile-1.bin (max 1008.0 KiB)", lines[0])
	assert.Equal(t, "09:30:15  ✓ received /yfile-1.bin  fw.bin  2.0 KiB", lines[1])
}

func TestPlainPresenterReceiveFailed(t *testing.T) {
	out := runPlain(t, false,
		Event{Type: ReceiveFailed, Path: "/yfile-2.bin", Code: link.CodeTimeout},
		Event{Type: SendFailed, Path: "/yfile-3.bin", Code: link.CodeIO, Error: assert.AnError},
	)

	assert.Contains(t, out, "✗ receive /yfile-2.bin  [-1] timeout")
	assert.Contains(t, out, "✗ send /yfile-3.bin  [-6] "+assert.AnError.Error())
}

func TestPlainPresenterUnnamedReceive(t *testing.T) {
	out := runPlain(t, false, Event{Type: ReceiveCompleted, Path: "/yfile-1.bin", Size: 5})
	assert.Contains(t, out, "(unnamed)")
}

func TestPlainPresenterStorageFull(t *testing.T) {
	out := runPlain(t, false, Event{Type: StorageFull, Limit: 100})
	assert.Contains(t, out, "storage full usable 100 B")
}

func TestPlainPresenterSendAndSweep(t *testing.T) {
	out := runPlain(t, false,
		Event{Type: SlotRemoved, Path: "/yfile-9.bin"},
		Event{Type: SendStarted, Path: "/yfile-1.bin"},
		Event{Type: SendCompleted, Path: "/yfile-1.bin", Size: 10},
	)

	assert.Contains(t, out, "removed /yfile-9.bin")
	assert.Contains(t, out, "echoing /yfile-1.bin")
	assert.Contains(t, out, "✓ sent /yfile-1.bin  10 B")
}

func TestPlainPresenterVerboseOnly(t *testing.T) {
	evs := []Event{
		{Type: CycleStarted, Slot: 4},
		{Type: SlotVerified, Path: "/yfile-4.bin", Digest: "abc123"},
	}

	assert.Empty(t, runPlain(t, false, evs...))

	out := runPlain(t, true, evs...)
	assert.Contains(t, out, "cycle slot 4")
	assert.Contains(t, out, "verified /yfile-4.bin  blake3 abc123")
}

func TestPlainPresenterNoColor(t *testing.T) {
	p := &plainPresenter{color: false}
	assert.Equal(t, "text", p.paint(styleOK, "text"))
}

func TestPlainPresenterSummary(t *testing.T) {
	collector := stats.NewCollector()
	collector.AddSlotsReceived(3)
	collector.AddBytesReceived(3 * 1024)
	collector.AddSendsCompleted(2)
	collector.AddBytesSent(2048)

	p := &plainPresenter{stats: collector}
	s := p.Summary()
	assert.True(t, strings.HasPrefix(s, "done ✓"))
	assert.Contains(t, s, "received 3")
	assert.Contains(t, s, "in 3.0 KiB")
	assert.Contains(t, s, "sent 2")
	assert.Contains(t, s, "errors 0")
	assert.NotContains(t, s, "full")
}

func TestPlainPresenterSummaryErrors(t *testing.T) {
	collector := stats.NewCollector()
	collector.AddReceiveFailures(2)
	collector.AddSendsFailed(1)
	collector.AddStorageFull(4)

	s := completionSummary(collector.Snapshot())
	assert.True(t, strings.HasPrefix(s, "done ✗"))
	assert.Contains(t, s, "full 4")
	assert.Contains(t, s, "errors 3")
}

func TestNewPresenter(t *testing.T) {
	assert.IsType(t, &quietPresenter{}, NewPresenter(Config{Quiet: true}))
	assert.IsType(t, &plainPresenter{}, NewPresenter(Config{Writer: &bytes.Buffer{}}))

	q := NewPresenter(Config{Quiet: true})
	events := make(chan Event, 1)
	events <- Event{Type: ReceiveCompleted}
	close(events)
	require.NoError(t, q.Run(events))
	assert.Empty(t, q.Summary())
}
