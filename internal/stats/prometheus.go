package stats

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "flashdrop"

// Register exposes the collector's counters on reg. Values are read from
// the collector at scrape time.
func Register(reg prometheus.Registerer, c *Collector) error {
	counters := []struct {
		name string
		help string
		load func() int64
	}{
		{"cycles_total", "Transfer cycles that attempted a receive.", c.cycles.Load},
		{"slots_received_total", "Slots received successfully.", c.slotsReceived.Load},
		{"received_bytes_total", "Bytes written into received slots.", c.bytesReceived.Load},
		{"receive_failures_total", "Receives that failed or returned no data.", c.receiveFailures.Load},
		{"sends_completed_total", "Slots echoed back successfully.", c.sendsCompleted.Load},
		{"sends_failed_total", "Echo transmissions that failed.", c.sendsFailed.Load},
		{"sent_bytes_total", "Bytes echoed back.", c.bytesSent.Load},
		{"storage_full_total", "Cycles skipped because usable space was too low.", c.storageFull.Load},
		{"slots_swept_total", "Slot files removed at startup.", c.slotsSwept.Load},
	}

	for _, ctr := range counters {
		load := ctr.load
		cf := prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      ctr.name,
			Help:      ctr.help,
		}, func() float64 { return float64(load()) })
		if err := reg.Register(cf); err != nil {
			return err
		}
	}
	return nil
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
