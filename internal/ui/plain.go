package ui

import (
	"fmt"
	"io"

	"github.com/bamsammich/flashdrop/internal/link"
	"github.com/bamsammich/flashdrop/internal/stats"
)

// plainPresenter prints one line per reportable event.
type plainPresenter struct {
	w       io.Writer
	stats   *stats.Collector
	color   bool
	verbose bool
}

func (p *plainPresenter) Run(events <-chan Event) error {
	for ev := range events {
		p.handleEvent(ev)
	}
	return nil
}

func (p *plainPresenter) paint(s styleKind, text string) string {
	if !p.color {
		return text
	}
	return styles[s].Render(text)
}

//nolint:revive // cyclomatic: one case per event type
func (p *plainPresenter) handleEvent(ev Event) {
	stamp := p.paint(styleMuted, ev.Timestamp.Format("15:04:05"))
	switch ev.Type {
	case SlotRemoved:
		fmt.Fprintf(p.w, "%s  %s %s\n", stamp, p.paint(styleMuted, "removed"), ev.Path)
	case CycleStarted:
		if p.verbose {
			fmt.Fprintf(p.w, "%s  cycle slot %d\n", stamp, ev.Slot)
		}
	case StorageFull:
		fmt.Fprintf(p.w, "%s  %s usable %s\n", stamp, p.paint(styleWarn, "storage full"), FormatBytes(int64(ev.Limit))) //nolint:gosec // G115: store sizes fit in int64
	case ReceiveStarted:
		fmt.Fprintf(p.w, "%s  waiting for %s (max %s)\n", stamp, ev.Path, FormatBytes(int64(ev.Limit))) //nolint:gosec // G115: store sizes fit in int64
	case ReceiveCompleted:
		fmt.Fprintf(p.w, "%s  %s %s  %s  %s\n", stamp, p.paint(styleOK, "✓ received"), ev.Path, displayName(ev.Name), FormatBytes(ev.Size))
	case ReceiveFailed:
		fmt.Fprintf(p.w, "%s  %s %s  %s\n", stamp, p.paint(styleFail, "✗ receive"), ev.Path, failure(ev))
	case SlotVerified:
		if p.verbose {
			fmt.Fprintf(p.w, "%s  verified %s  blake3 %s\n", stamp, ev.Path, ev.Digest)
		}
	case SendStarted:
		fmt.Fprintf(p.w, "%s  echoing %s\n", stamp, ev.Path)
	case SendCompleted:
		fmt.Fprintf(p.w, "%s  %s %s  %s\n", stamp, p.paint(styleOK, "✓ sent"), ev.Path, FormatBytes(ev.Size))
	case SendFailed:
		fmt.Fprintf(p.w, "%s  %s %s  %s\n", stamp, p.paint(styleFail, "✗ send"), ev.Path, failure(ev))
	}
}

func (p *plainPresenter) Summary() string {
	return completionSummary(p.stats.Snapshot())
}

func displayName(name string) string {
	if name == "" {
		return "(unnamed)"
	}
	return name
}

func failure(ev Event) string {
	msg := link.CodeText(ev.Code)
	if ev.Error != nil {
		msg = ev.Error.Error()
	}
	return fmt.Sprintf("[%d] %s", ev.Code, msg)
}
