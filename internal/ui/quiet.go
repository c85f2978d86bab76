package ui

import "github.com/bamsammich/flashdrop/internal/stats"

// quietPresenter consumes events but produces no output.
type quietPresenter struct {
	stats *stats.Collector
}

func (p *quietPresenter) Run(events <-chan Event) error {
	for range events {
		// The orchestrator counts into the collector directly; nothing to do.
	}
	return nil
}

func (p *quietPresenter) Summary() string {
	return ""
}
