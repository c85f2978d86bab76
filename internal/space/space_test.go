package space

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeSource struct {
	total, used uint64
	err         error
	calls       int
}

func (f *fakeSource) SpaceInfo() (uint64, uint64, error) {
	f.calls++
	return f.total, f.used, f.err
}

func TestUsableFree(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name               string
		total, used, margin uint64
		want               uint64
	}{
		{"plenty", 100000, 50000, 16384, 33616},
		{"below margin", 100000, 90000, 16384, 0},
		{"exactly margin", 100000, 83616, 16384, 0},
		{"no margin", 100, 40, 0, 60},
		{"full", 100, 100, 0, 0},
		{"used exceeds total", 100, 200, 0, 0},
		{"empty", 0, 0, 16384, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := Snapshot{Total: tt.total, Used: tt.used}
			assert.Equal(t, tt.want, s.UsableFree(tt.margin))
		})
	}
}

func TestFree(t *testing.T) {
	t.Parallel()
	assert.Equal(t, uint64(60), Snapshot{Total: 100, Used: 40}.Free())
	assert.Equal(t, uint64(0), Snapshot{Total: 100, Used: 140}.Free())
}

func TestTrackerQueriesEveryTime(t *testing.T) {
	t.Parallel()
	src := &fakeSource{total: 1000, used: 100}
	tr := NewTracker(src, nil)

	assert.Equal(t, Snapshot{Total: 1000, Used: 100}, tr.Capacity())
	src.used = 900
	assert.Equal(t, uint64(100), tr.UsableFree(0))
	assert.Equal(t, 2, src.calls)
}

func TestTrackerDegradesToZero(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	src := &fakeSource{total: 1000, used: 100, err: errors.New("partition missing")}
	tr := NewTracker(src, logger)

	assert.Equal(t, Snapshot{}, tr.Capacity())
	assert.Equal(t, uint64(0), tr.UsableFree(0))
	assert.Contains(t, buf.String(), "partition missing")
}
