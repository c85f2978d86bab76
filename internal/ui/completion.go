package ui

import (
	"fmt"

	"github.com/bamsammich/flashdrop/internal/stats"
)

// completionSummary builds a final summary line from a snapshot.
// Format: done ✓  received 3  in 1.2 MB  sent 3  out 1.2 MB  avg 2.0 KB/s  time 9m 30s  errors 0
func completionSummary(snap stats.Snapshot) string {
	avgSpeed := 0.0
	if snap.Elapsed.Seconds() > 0 {
		avgSpeed = float64(snap.BytesReceived+snap.BytesSent) / snap.Elapsed.Seconds()
	}

	errs := snap.ReceiveFailures + snap.SendsFailed
	icon := "✓"
	if errs > 0 {
		icon = "✗"
	}

	base := fmt.Sprintf("done %s  received %s  in %s  sent %s  out %s  avg %s  time %s",
		icon,
		FormatCount(snap.SlotsReceived),
		FormatBytes(snap.BytesReceived),
		FormatCount(snap.SendsCompleted),
		FormatBytes(snap.BytesSent),
		FormatRate(avgSpeed),
		FormatDuration(snap.Elapsed),
	)

	if snap.StorageFull > 0 {
		base += fmt.Sprintf("  full %s", FormatCount(snap.StorageFull))
	}

	return base + fmt.Sprintf("  errors %d", errs)
}
