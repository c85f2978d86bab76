// Package space computes how much of a store can still be written.
package space

import (
	"log/slog"
)

// Snapshot is a point-in-time capacity reading. Values are never cached
// between calls to Tracker.Capacity.
type Snapshot struct {
	Total uint64
	Used  uint64
}

// Free returns the raw free byte count, or 0 when Used exceeds Total.
func (s Snapshot) Free() uint64 {
	if s.Used >= s.Total {
		return 0
	}
	return s.Total - s.Used
}

// UsableFree returns Total-Used-margin clamped to zero.
func (s Snapshot) UsableFree(margin uint64) uint64 {
	free := s.Free()
	if free <= margin {
		return 0
	}
	return free - margin
}

// Source reports total and used bytes of a store.
type Source interface {
	SpaceInfo() (total, used uint64, err error)
}

// Tracker reads capacity from a Source on every call.
type Tracker struct {
	src    Source
	logger *slog.Logger
}

// NewTracker creates a tracker over src. A nil logger uses slog.Default.
func NewTracker(src Source, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{src: src, logger: logger}
}

// Capacity queries the source. A failed query is logged and reported as an
// empty snapshot, which callers treat as "no space".
func (t *Tracker) Capacity() Snapshot {
	total, used, err := t.src.SpaceInfo()
	if err != nil {
		t.logger.Warn("space query failed", "error", err)
		return Snapshot{}
	}
	return Snapshot{Total: total, Used: used}
}

// UsableFree is Capacity().UsableFree(margin).
func (t *Tracker) UsableFree(margin uint64) uint64 {
	return t.Capacity().UsableFree(margin)
}
