package session

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mwidjaja/callscribe/pkg/metrics"
	"github.com/mwidjaja/callscribe/pkg/providers/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func TestStopRecordingDrainsAndAssembles(t *testing.T) {
	transcriber := mock.NewSTT(mock.STTConfig{Script: []string{"hello", "world"}})
	mgr := NewManager(testLogger(), ManagerConfig{
		Converter:     mock.NewConverter(),
		Transcriber:   transcriber,
		FlushInterval: 20 * time.Millisecond,
		TempDir:       t.TempDir(),
	})
	ctx := context.Background()
	mgr.Start(ctx)
	defer mgr.Stop()

	mgr.StartRecording("call-1")
	mgr.SetSpeakerName("call-1", "a", "alice")

	mgr.IngestAudioChunk("call-1", "a", []byte{1, 2, 3, 4})
	waitFor(t, time.Second, func() bool { return transcriber.Calls() == 1 })

	mgr.IngestAudioChunk("call-1", "a", []byte{5, 6})
	got := mgr.StopRecording(ctx, "call-1")

	want := "alice:\nhello\n\nalice:\nworld\n"
	if got != want {
		t.Fatalf("unexpected transcript:\n%q\nwant:\n%q", got, want)
	}
	// Transcript survives the stop and stays stable.
	if again := mgr.Transcript("call-1"); again != want {
		t.Fatalf("transcript changed after stop: %q", again)
	}
}

func TestIngestWhileNotRecordingIsDropped(t *testing.T) {
	transcriber := mock.NewSTT(mock.STTConfig{})
	mgr := NewManager(testLogger(), ManagerConfig{
		Converter:   mock.NewConverter(),
		Transcriber: transcriber,
		TempDir:     t.TempDir(),
	})

	if buffered := mgr.IngestAudioChunk("call-1", "a", []byte{1}); buffered {
		t.Fatalf("chunk buffered before StartRecording")
	}
	if got := mgr.StopRecording(context.Background(), "call-1"); got != "" {
		t.Fatalf("expected empty transcript, got %q", got)
	}
	if transcriber.Calls() != 0 {
		t.Fatalf("transcriber invoked for dropped audio")
	}
}

func TestFlushPreservesByteOrder(t *testing.T) {
	converter := mock.NewConverter()
	mgr := NewManager(testLogger(), ManagerConfig{
		Converter:   converter,
		Transcriber: mock.NewSTT(mock.STTConfig{Fallback: "text"}),
		TempDir:     t.TempDir(),
	})
	ctx := context.Background()

	mgr.StartRecording("call-1")
	var want []byte
	for i := 0; i < 50; i++ {
		chunk := []byte{byte(i), byte(i + 1), byte(i + 2)}
		want = append(want, chunk...)
		mgr.IngestAudioChunk("call-1", "a", chunk)
	}
	mgr.StopRecording(ctx, "call-1")

	var got []byte
	for _, batch := range converter.Inputs() {
		got = append(got, batch...)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("flush pipeline saw %d bytes, ingested %d; order or content differs", len(got), len(want))
	}
}

func TestConversionFailureLeavesSpeakerAbsent(t *testing.T) {
	converter := mock.NewConverter()
	converter.Err = errors.New("codec exploded")
	obs := metrics.NewMemoryObserver()
	mgr := NewManager(testLogger(), ManagerConfig{
		Converter:   converter,
		Transcriber: mock.NewSTT(mock.STTConfig{}),
		TempDir:     t.TempDir(),
		Observer:    obs,
	})

	mgr.StartRecording("call-1")
	mgr.IngestAudioChunk("call-1", "b", []byte{1, 2})
	got := mgr.StopRecording(context.Background(), "call-1")

	if got != "" {
		t.Fatalf("expected speaker absent from transcript, got %q", got)
	}
	found := false
	for _, ev := range obs.Snapshot() {
		if ev.Name == "flush_error" && ev.Tags["speaker_id"] == "b" {
			found = true
		}
	}
	if !found {
		t.Fatalf("flush failure not reported to observer")
	}
}

func TestSlowSpeakerDoesNotBlockOthers(t *testing.T) {
	slow := make(chan struct{})
	transcriber := mock.NewSTT(mock.STTConfig{})
	transcriber.TranscribeFn = func(_ context.Context, audioPath string) (string, error) {
		data, err := os.ReadFile(audioPath)
		if err != nil {
			return "", err
		}
		if data[0] == 'S' {
			<-slow
			return "slow words", nil
		}
		return "fast words", nil
	}
	mgr := NewManager(testLogger(), ManagerConfig{
		Converter:     mock.NewConverter(),
		Transcriber:   transcriber,
		FlushInterval: 10 * time.Millisecond,
		TempDir:       t.TempDir(),
	})
	ctx := context.Background()
	mgr.Start(ctx)
	defer mgr.Stop()

	mgr.StartRecording("call-1")
	mgr.IngestAudioChunk("call-1", "slow", []byte("S..."))
	mgr.IngestAudioChunk("call-1", "fast", []byte("F..."))

	// The fast speaker's result lands while the slow one is still in flight.
	waitFor(t, time.Second, func() bool {
		return strings.Contains(mgr.Transcript("call-1"), "fast words")
	})
	if strings.Contains(mgr.Transcript("call-1"), "slow words") {
		t.Fatalf("slow flush completed unexpectedly early")
	}

	close(slow)
	got := mgr.StopRecording(ctx, "call-1")
	if !strings.Contains(got, "slow words") || !strings.Contains(got, "fast words") {
		t.Fatalf("final transcript missing segments: %q", got)
	}
}

func TestRemoveSessionYieldsFreshState(t *testing.T) {
	mgr := NewManager(testLogger(), ManagerConfig{
		Converter:   mock.NewConverter(),
		Transcriber: mock.NewSTT(mock.STTConfig{Fallback: "remembered"}),
		TempDir:     t.TempDir(),
	})
	ctx := context.Background()

	mgr.StartRecording("call-1")
	mgr.IngestAudioChunk("call-1", "a", []byte{1})
	mgr.SetSpeakerName("call-1", "a", "alice")
	if got := mgr.StopRecording(ctx, "call-1"); got == "" {
		t.Fatalf("expected transcript before removal")
	}

	mgr.RemoveSession("call-1")
	if got := mgr.Transcript("call-1"); got != "" {
		t.Fatalf("removed session resurrected transcript: %q", got)
	}
	// The fresh session starts with the gate closed again.
	if buffered := mgr.IngestAudioChunk("call-1", "a", []byte{1}); buffered {
		t.Fatalf("fresh session accepted audio without StartRecording")
	}
}

func TestRemoveSessionIsNoOpWhenAbsent(t *testing.T) {
	mgr := NewManager(testLogger(), ManagerConfig{
		Converter:   mock.NewConverter(),
		Transcriber: mock.NewSTT(mock.STTConfig{}),
		TempDir:     t.TempDir(),
	})
	mgr.RemoveSession("never-seen")
	if mgr.Sessions() != 0 {
		t.Fatalf("expected no sessions, got %d", mgr.Sessions())
	}
}

func TestSchedulerSkipsStoppedSessions(t *testing.T) {
	transcriber := mock.NewSTT(mock.STTConfig{Fallback: "text"})
	mgr := NewManager(testLogger(), ManagerConfig{
		Converter:     mock.NewConverter(),
		Transcriber:   transcriber,
		FlushInterval: 10 * time.Millisecond,
		TempDir:       t.TempDir(),
	})
	ctx := context.Background()
	mgr.Start(ctx)
	defer mgr.Stop()

	mgr.StartRecording("call-1")
	mgr.IngestAudioChunk("call-1", "a", []byte{1, 2})
	mgr.StopRecording(ctx, "call-1")
	calls := transcriber.Calls()

	// Audio after stop is dropped and the scheduler leaves the session alone.
	mgr.IngestAudioChunk("call-1", "a", []byte{3, 4})
	time.Sleep(50 * time.Millisecond)
	if transcriber.Calls() != calls {
		t.Fatalf("scheduler flushed a stopped session")
	}
}

func TestStartRecordingIdempotent(t *testing.T) {
	mgr := NewManager(testLogger(), ManagerConfig{
		Converter:   mock.NewConverter(),
		Transcriber: mock.NewSTT(mock.STTConfig{}),
		TempDir:     t.TempDir(),
	})
	mgr.StartRecording("call-1")
	mgr.StartRecording("call-1")
	if !mgr.IngestAudioChunk("call-1", "a", []byte{1}) {
		t.Fatalf("recording gate closed after repeated start")
	}
	if mgr.Sessions() != 1 {
		t.Fatalf("repeated start created extra sessions: %d", mgr.Sessions())
	}
}
