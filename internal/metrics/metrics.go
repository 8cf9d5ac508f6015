package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	ReadingsProcessed    atomic.Int64
	StopEventsDetected   atomic.Int64
	WeightAlertsDetected atomic.Int64
	AlertsRaised         atomic.Int64
	AlertsEscalated      atomic.Int64
	AlertsResolved       atomic.Int64
	ArchiveWriteSuccess  atomic.Int64
	ArchiveWriteFailures atomic.Int64
	ArchiveChannelDrops  atomic.Int64
	StateChannelDrops    atomic.Int64
)

func HandleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "monitor_readings_processed_total %d\n", ReadingsProcessed.Load())
	fmt.Fprintf(w, "monitor_stop_events_detected_total %d\n", StopEventsDetected.Load())
	fmt.Fprintf(w, "monitor_weight_alerts_detected_total %d\n", WeightAlertsDetected.Load())
	fmt.Fprintf(w, "monitor_alerts_raised_total %d\n", AlertsRaised.Load())
	fmt.Fprintf(w, "monitor_alerts_escalated_total %d\n", AlertsEscalated.Load())
	fmt.Fprintf(w, "monitor_alerts_resolved_total %d\n", AlertsResolved.Load())
	fmt.Fprintf(w, "monitor_archive_write_success_total %d\n", ArchiveWriteSuccess.Load())
	fmt.Fprintf(w, "monitor_archive_write_failures_total %d\n", ArchiveWriteFailures.Load())
	fmt.Fprintf(w, "monitor_archive_channel_drops_total %d\n", ArchiveChannelDrops.Load())
	fmt.Fprintf(w, "monitor_state_channel_drops_total %d\n", StateChannelDrops.Load())
}
