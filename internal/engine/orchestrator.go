package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sync/atomic"
	"time"

	"github.com/bamsammich/flashdrop/internal/event"
	"github.com/bamsammich/flashdrop/internal/filter"
	"github.com/bamsammich/flashdrop/internal/link"
	"github.com/bamsammich/flashdrop/internal/listing"
	"github.com/bamsammich/flashdrop/internal/space"
	"github.com/bamsammich/flashdrop/internal/stats"
	"github.com/bamsammich/flashdrop/internal/store"
)

// Transfer moves whole files over the link.
type Transfer interface {
	// Receive writes one incoming file to dst, refusing anything larger than
	// maxBytes. n <= 0 or a non-nil error is a failed receive.
	Receive(ctx context.Context, dst io.Writer, maxBytes int64) (n int64, name string, err error)

	// Transmit sends size bytes from src under name.
	Transmit(ctx context.Context, name string, size int64, src io.Reader) error
}

// Config describes the transfer loop.
type Config struct {
	Out          io.Writer // post-receive listings; nil discards them
	Events       chan<- event.Event
	Stats        *stats.Collector
	Logger       *slog.Logger
	OnTransition func(from, to State)

	BasePath string // slot directory inside the store

	// MaxFileSize caps a single file. Zero means the store's total size
	// minus 8 KiB, read fresh every cycle.
	MaxFileSize uint64
	SpaceMargin uint64 // bytes never handed to a transfer
	MinFree     uint64 // usable bytes required to attempt a receive

	CycleDelay    time.Duration
	LowSpaceDelay time.Duration
	EchoDelay     time.Duration

	FirstSlot int
	Echo      bool
	Verify    bool
}

// DefaultConfig returns the settings of a stock device.
func DefaultConfig() Config {
	return Config{
		BasePath:      "/",
		SpaceMargin:   16384,
		MinFree:       16384,
		CycleDelay:    5 * time.Second,
		LowSpaceDelay: 30 * time.Second,
		EchoDelay:     5 * time.Second,
		FirstSlot:     1,
		Echo:          true,
	}
}

// Orchestrator runs the receive/echo cycle against a store.
type Orchestrator struct {
	fs      store.FS
	xfer    Transfer
	tracker *space.Tracker
	lister  *listing.Lister
	logger  *slog.Logger
	cfg     Config
	slot    atomic.Int64
	state   atomic.Int32
}

// New creates an orchestrator. Zero-valued BasePath, Out, Stats, Logger and
// FirstSlot fall back to defaults.
func New(fsys store.FS, xfer Transfer, cfg Config) *Orchestrator {
	if cfg.BasePath == "" {
		cfg.BasePath = "/"
	}
	if base, err := store.Clean(cfg.BasePath); err == nil {
		cfg.BasePath = base
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	if cfg.Stats == nil {
		cfg.Stats = stats.NewCollector()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.FirstSlot < 1 {
		cfg.FirstSlot = 1
	}

	o := &Orchestrator{
		fs:      fsys,
		xfer:    xfer,
		tracker: space.NewTracker(fsys, cfg.Logger),
		lister:  &listing.Lister{FS: fsys, Out: cfg.Out, Logger: cfg.Logger},
		logger:  cfg.Logger,
		cfg:     cfg,
	}
	o.slot.Store(int64(cfg.FirstSlot))
	return o
}

// Slot returns the number the next receive will use.
func (o *Orchestrator) Slot() int { return int(o.slot.Load()) }

// State returns the current state.
func (o *Orchestrator) State() State { return State(o.state.Load()) }

// Stats returns the collector the orchestrator reports into.
func (o *Orchestrator) Stats() *stats.Collector { return o.cfg.Stats }

func (o *Orchestrator) emit(e event.Event) {
	if o.cfg.Events == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case o.cfg.Events <- e:
	default:
	}
}

// transition moves to the next state unless ctx is already done.
func (o *Orchestrator) transition(ctx context.Context, to State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	from := State(o.state.Swap(int32(to)))
	o.logger.Debug("state", "from", from, "to", to)
	if o.cfg.OnTransition != nil {
		o.cfg.OnTransition(from, to)
	}
	return nil
}

// Run sweeps leftover slots, then cycles until ctx is cancelled. It only
// returns ctx's error.
func (o *Orchestrator) Run(ctx context.Context) error {
	if _, err := o.Sweep(); err != nil {
		o.logger.Warn("startup sweep failed", "error", err)
	}
	for {
		if err := o.RunCycle(ctx); err != nil {
			return err
		}
	}
}

// Sweep removes every slot file left in the base directory and returns how
// many were deleted.
func (o *Orchestrator) Sweep() (int, error) {
	entries, err := o.fs.ReadDir(o.cfg.BasePath)
	if err != nil {
		return 0, fmt.Errorf("sweep %s: %w", o.cfg.BasePath, err)
	}

	pattern := SlotPattern(o.cfg.BasePath)
	removed := 0
	for _, e := range entries {
		if e.IsDir {
			continue
		}
		full := path.Join(o.cfg.BasePath, e.Name)
		ok, _ := filter.Match(pattern, full, filter.Pathname|filter.Period)
		if !ok {
			continue
		}
		if err := o.fs.Remove(full); err != nil {
			o.logger.Warn("could not remove old slot", "path", full, "error", err)
			continue
		}
		removed++
		o.cfg.Stats.AddSlotsSwept(1)
		o.emit(event.Event{Type: event.SlotRemoved, Path: full})
	}
	return removed, nil
}

// RunCycle performs one receive attempt, the optional echo, and the pause
// that follows. It returns a non-nil error only when ctx is done.
func (o *Orchestrator) RunCycle(ctx context.Context) error {
	if err := o.transition(ctx, Sizing); err != nil {
		return err
	}

	snap := o.tracker.Capacity()
	usable := snap.UsableFree(o.cfg.SpaceMargin)
	n := o.Slot()

	if usable <= o.cfg.MinFree {
		o.logger.Warn("storage full, not receiving", "usable", usable, "min_free", o.cfg.MinFree)
		o.cfg.Stats.AddStorageFull(1)
		o.emit(event.Event{Type: event.StorageFull, Slot: n, Limit: usable})
		if err := o.transition(ctx, Idle); err != nil {
			return err
		}
		return sleep(ctx, o.cfg.LowSpaceDelay)
	}

	maxFile := o.cfg.MaxFileSize
	if maxFile == 0 {
		maxFile = partitionCeiling(snap.Total)
	}
	ceiling := min(usable, maxFile)
	slotPath := SlotPath(o.cfg.BasePath, n)

	o.cfg.Stats.AddCycles(1)
	o.emit(event.Event{Type: event.CycleStarted, Slot: n, Path: slotPath})

	size, ok, err := o.receive(ctx, n, slotPath, ceiling)
	if err != nil {
		return err
	}

	if ok && o.cfg.Echo {
		if err := sleep(ctx, o.cfg.EchoDelay); err != nil {
			return err
		}
		if err := o.send(ctx, n, slotPath, size); err != nil {
			return err
		}
	}

	if err := o.transition(ctx, Idle); err != nil {
		return err
	}
	return sleep(ctx, o.cfg.CycleDelay)
}

// receive fills slot n. A failed slot is removed before returning. The
// error is non-nil only when ctx is done. Once the slot path has been
// touched its number is spent, even if ctx ends the cycle early.
func (o *Orchestrator) receive(ctx context.Context, n int, slotPath string, ceiling uint64) (int64, bool, error) {
	if err := o.transition(ctx, Receiving); err != nil {
		return 0, false, err
	}
	defer o.slot.Add(1)
	o.logger.Info("waiting for file", "slot", n, "max_bytes", ceiling)
	o.emit(event.Event{Type: event.ReceiveStarted, Slot: n, Path: slotPath, Limit: ceiling})

	w, err := o.fs.Create(slotPath)
	if err != nil {
		o.logger.Error("cannot open slot", "path", slotPath, "error", err)
		o.failReceive(n, slotPath, "", err)
		return 0, false, o.transition(ctx, ReceiveFailed)
	}

	size, name, err := o.xfer.Receive(ctx, w, int64(ceiling)) //nolint:gosec // G115: ceiling is bounded by store size
	if closeErr := w.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close slot: %w", closeErr)
	}

	if err != nil || size <= 0 {
		if err == nil {
			err = errors.New("empty transfer")
		}
		if rmErr := o.fs.Remove(slotPath); rmErr != nil {
			o.logger.Warn("could not remove failed slot", "path", slotPath, "error", rmErr)
		}
		o.logger.Warn("receive failed", "slot", n, "code", link.Code(err), "error", err)
		o.failReceive(n, slotPath, name, err)
		return 0, false, o.transition(ctx, ReceiveFailed)
	}

	o.logger.Info("received", "slot", n, "name", name, "bytes", size)
	o.cfg.Stats.AddSlotsReceived(1)
	o.cfg.Stats.AddBytesReceived(size)
	o.emit(event.Event{Type: event.ReceiveCompleted, Slot: n, Path: slotPath, Name: name, Size: size})
	if err := o.transition(ctx, Received); err != nil {
		return 0, false, err
	}

	if _, err := o.lister.List(o.cfg.BasePath, SlotPattern(o.cfg.BasePath)); err != nil {
		o.logger.Warn("listing failed", "error", err)
	}

	if o.cfg.Verify {
		digest, err := store.Hash(o.fs, slotPath)
		if err != nil {
			o.logger.Warn("verify failed", "path", slotPath, "error", err)
		} else {
			o.emit(event.Event{Type: event.SlotVerified, Slot: n, Path: slotPath, Digest: digest})
		}
	}
	return size, true, nil
}

func (o *Orchestrator) failReceive(n int, slotPath, name string, err error) {
	o.cfg.Stats.AddReceiveFailures(1)
	o.emit(event.Event{
		Type:  event.ReceiveFailed,
		Slot:  n,
		Path:  slotPath,
		Name:  name,
		Error: err,
		Code:  link.Code(err),
	})
}

// send echoes slot n back over the link. Failures are reported and
// swallowed; the error is non-nil only when ctx is done.
func (o *Orchestrator) send(ctx context.Context, n int, slotPath string, size int64) error {
	if err := o.transition(ctx, Sending); err != nil {
		return err
	}
	o.emit(event.Event{Type: event.SendStarted, Slot: n, Path: slotPath, Size: size})

	err := o.transmit(ctx, slotPath, size)
	if err != nil {
		o.logger.Warn("send failed", "slot", n, "code", link.Code(err), "error", err)
		o.cfg.Stats.AddSendsFailed(1)
		o.emit(event.Event{Type: event.SendFailed, Slot: n, Path: slotPath, Error: err, Code: link.Code(err)})
		return o.transition(ctx, SendFailed)
	}

	o.logger.Info("sent", "slot", n, "bytes", size)
	o.cfg.Stats.AddSendsCompleted(1)
	o.cfg.Stats.AddBytesSent(size)
	o.emit(event.Event{Type: event.SendCompleted, Slot: n, Path: slotPath, Size: size})
	return o.transition(ctx, Sent)
}

func (o *Orchestrator) transmit(ctx context.Context, slotPath string, size int64) error {
	r, err := o.fs.Open(slotPath)
	if err != nil {
		return fmt.Errorf("reopen slot: %w", err)
	}
	defer r.Close()
	return o.xfer.Transmit(ctx, path.Base(slotPath), size, r)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
