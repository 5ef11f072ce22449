package observers

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mwidjaja/callscribe/pkg/audio"
	"github.com/mwidjaja/callscribe/pkg/metrics"
)

// UsageSummary records billable vendor usage accumulated over one call.
type UsageSummary struct {
	CallID        string  `json:"call_id"`
	STTAudioSec   float64 `json:"stt_audio_seconds"`
	STTRequests   int     `json:"stt_requests"`
	SummaryChars  int     `json:"summary_chars"`
	RecordedAtUTC string  `json:"recorded_at_utc"`
}

// UsageObserver tallies STT audio seconds and summary output per call and
// writes one usage JSON per call on Close.
type UsageObserver struct {
	dir        string
	sampleRate int
	mu         sync.Mutex
	stats      map[string]*UsageSummary
}

func NewUsageObserver(dir string, sampleRate int) *UsageObserver {
	if sampleRate <= 0 {
		sampleRate = audio.DefaultSampleRate
	}
	return &UsageObserver{dir: dir, sampleRate: sampleRate, stats: make(map[string]*UsageSummary)}
}

func (o *UsageObserver) RecordEvent(ev metrics.MetricsEvent) {
	if strings.TrimSpace(o.dir) == "" {
		return
	}
	callID := ""
	if ev.Tags != nil {
		callID = ev.Tags["call_id"]
	}
	if callID == "" {
		return
	}

	switch ev.Name {
	case "flush_success":
		pcmBytes := 0
		if ev.Fields != nil {
			if n, ok := ev.Fields["pcm_bytes"].(int); ok {
				pcmBytes = n
			}
		}
		o.mu.Lock()
		stat := o.statLocked(callID)
		stat.STTRequests++
		stat.STTAudioSec += float64(pcmBytes) / float64(o.sampleRate*audio.BytesPerSample)
		o.mu.Unlock()
	case "summary_generated":
		chars := 0
		if ev.Fields != nil {
			if n, ok := ev.Fields["summary_chars"].(int); ok {
				chars = n
			}
		}
		o.mu.Lock()
		o.statLocked(callID).SummaryChars += chars
		o.mu.Unlock()
	}
}

func (o *UsageObserver) statLocked(callID string) *UsageSummary {
	stat := o.stats[callID]
	if stat == nil {
		stat = &UsageSummary{CallID: callID}
		o.stats[callID] = stat
	}
	return stat
}

func (o *UsageObserver) Close() error {
	if strings.TrimSpace(o.dir) == "" {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return err
	}
	var errOut error
	for id, stat := range o.stats {
		stat.RecordedAtUTC = time.Now().UTC().Format(time.RFC3339)
		b, err := json.MarshalIndent(stat, "", "  ")
		if err != nil {
			errOut = errors.Join(errOut, err)
			continue
		}
		path := filepath.Join(o.dir, sanitizeID(id)+".usage.json")
		if err := os.WriteFile(path, b, 0o644); err != nil {
			errOut = errors.Join(errOut, err)
		}
	}
	return errOut
}

var _ metrics.Observer = (*UsageObserver)(nil)
