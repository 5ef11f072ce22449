package observers

import (
	"log/slog"
	"sync"

	"github.com/mwidjaja/callscribe/pkg/metrics"
)

// LatencyObserver accumulates flush timings per call and logs a summary
// when the recording stops. Failed flushes count separately.
type LatencyObserver struct {
	mu    sync.Mutex
	calls map[string]*callStats
	log   *slog.Logger
}

type callStats struct {
	flushes    int
	failures   int
	totalSec   float64
	maxSec     float64
	totalBytes int64
}

func NewLatencyObserver(log *slog.Logger) *LatencyObserver {
	if log == nil {
		log = slog.Default()
	}
	return &LatencyObserver{
		calls: make(map[string]*callStats),
		log:   log,
	}
}

func (o *LatencyObserver) RecordEvent(ev metrics.MetricsEvent) {
	callID := ""
	if ev.Tags != nil {
		callID = ev.Tags["call_id"]
	}
	if callID == "" {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	stats := o.calls[callID]
	if stats == nil {
		stats = &callStats{}
		o.calls[callID] = stats
	}
	switch ev.Name {
	case "flush_success":
		stats.flushes++
		stats.totalSec += ev.Value
		if ev.Value > stats.maxSec {
			stats.maxSec = ev.Value
		}
		if ev.Fields != nil {
			if n, ok := ev.Fields["pcm_bytes"].(int); ok {
				stats.totalBytes += int64(n)
			}
		}
	case "flush_error":
		stats.failures++
	case "recording_stopped":
		o.logCallLocked(callID, stats)
		delete(o.calls, callID)
	}
}

func (o *LatencyObserver) logCallLocked(callID string, stats *callStats) {
	avg := 0.0
	if stats.flushes > 0 {
		avg = stats.totalSec / float64(stats.flushes)
	}
	o.log.Info("call_flush_latency",
		"call_id", callID,
		"flushes", stats.flushes,
		"failures", stats.failures,
		"avg_flush_sec", avg,
		"max_flush_sec", stats.maxSec,
		"pcm_bytes", stats.totalBytes,
	)
}

var _ metrics.Observer = (*LatencyObserver)(nil)
