package observers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mwidjaja/callscribe/pkg/metrics"
)

func TestTimelineObserverWritesJSONL(t *testing.T) {
	dir := t.TempDir()
	obs := NewTimelineObserver(dir)

	ev := metrics.MetricsEvent{
		Name: "flush_success",
		Time: time.Now(),
		Tags: map[string]string{
			"call_id":    "call-1",
			"speaker_id": "s1",
		},
		Fields: map[string]any{"pcm_bytes": 9600},
	}
	obs.RecordEvent(ev)
	_ = obs.Close()

	path := filepath.Join(dir, "call-1.jsonl")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !strings.Contains(string(b), "flush_success") {
		t.Fatalf("expected flush_success event in file")
	}
}

func TestLatencyObserverSummarizesOnStop(t *testing.T) {
	obs := NewLatencyObserver(nil)
	obs.RecordEvent(metrics.MetricsEvent{
		Name:   "flush_success",
		Time:   time.Now(),
		Value:  0.25,
		Tags:   map[string]string{"call_id": "c1"},
		Fields: map[string]any{"pcm_bytes": 4800},
	})
	obs.RecordEvent(metrics.MetricsEvent{
		Name: "recording_stopped",
		Time: time.Now(),
		Tags: map[string]string{"call_id": "c1"},
	})
	obs.mu.Lock()
	defer obs.mu.Unlock()
	if len(obs.calls) != 0 {
		t.Fatalf("expected call stats to be flushed, got %d", len(obs.calls))
	}
}

func TestUsageObserverWritesSummary(t *testing.T) {
	dir := t.TempDir()
	obs := NewUsageObserver(dir, 48000)
	obs.RecordEvent(metrics.MetricsEvent{
		Name:   "flush_success",
		Time:   time.Now(),
		Tags:   map[string]string{"call_id": "c1"},
		Fields: map[string]any{"pcm_bytes": 96000}, // one second at 48kHz mono s16le
	})
	if err := obs.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "c1.usage.json"))
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if !strings.Contains(string(b), "\"stt_audio_seconds\": 1") {
		t.Fatalf("unexpected summary: %s", b)
	}
}
