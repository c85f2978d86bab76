package ui

import (
	"io"

	"github.com/bamsammich/flashdrop/internal/stats"
)

// Presenter consumes events and displays progress.
type Presenter interface {
	// Run consumes events until the channel closes. Blocks until done.
	Run(events <-chan Event) error
	// Summary returns the final summary line.
	Summary() string
}

// Config configures a Presenter.
type Config struct {
	Writer  io.Writer
	Stats   *stats.Collector
	IsTTY   bool // color output
	Quiet   bool
	Verbose bool // also report cycle starts and slot verification
}

// NewPresenter creates the appropriate presenter based on configuration.
//
//nolint:ireturn // factory function returns interface by design
func NewPresenter(cfg Config) Presenter {
	if cfg.Stats == nil {
		cfg.Stats = stats.NewCollector()
	}
	if cfg.Quiet {
		return &quietPresenter{stats: cfg.Stats}
	}
	return &plainPresenter{
		w:       cfg.Writer,
		stats:   cfg.Stats,
		color:   cfg.IsTTY,
		verbose: cfg.Verbose,
	}
}
