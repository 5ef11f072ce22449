package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mwidjaja/callscribe/pkg/adapters/stt"
	"github.com/mwidjaja/callscribe/pkg/audio"
	"github.com/mwidjaja/callscribe/pkg/logging"
	"github.com/mwidjaja/callscribe/pkg/metrics"
)

// ManagerConfig contains configuration for the session manager.
type ManagerConfig struct {
	Converter     audio.Converter
	Transcriber   stt.FileTranscriber
	FlushInterval time.Duration
	TempDir       string
	Observer      metrics.Observer
}

// Manager composes the registry and the flush scheduler and exposes the
// operations consumed by the calling layer. Operations on an absent call
// implicitly create its session; no "not found" error ever surfaces.
type Manager struct {
	registry *Registry
	pipe     *pipeline
	flusher  *Flusher
	logger   *slog.Logger
}

func NewManager(logger *slog.Logger, cfg ManagerConfig) *Manager {
	logger = logging.NewComponentLogger(logger, "session_manager")
	registry := NewRegistry()
	pipe := newPipeline(cfg.Converter, cfg.Transcriber, cfg.TempDir, logger, cfg.Observer)
	return &Manager{
		registry: registry,
		pipe:     pipe,
		flusher:  newFlusher(registry, pipe, cfg.FlushInterval, logger),
		logger:   logger,
	}
}

// Start launches the background flush scheduler.
func (m *Manager) Start(ctx context.Context) {
	m.flusher.Start(ctx)
}

// Stop halts the scheduler. Sessions and their state stay intact.
func (m *Manager) Stop() {
	m.flusher.Stop()
}

// StartRecording opens the audio gate for a call. Idempotent.
func (m *Manager) StartRecording(callID string) {
	sess := m.registry.GetOrCreate(callID)
	sess.SetRecording(true)
	m.logger.Info("recording_started", "call_id", callID)
}

// StopRecording closes the audio gate, synchronously drains every speaker's
// buffer, and returns the combined transcript. Speakers drain in parallel
// and failures stay isolated: one speaker's failed final flush never blocks
// another's, and the transcript is returned with whatever transcribed.
// The session itself survives for later transcript retrieval.
func (m *Manager) StopRecording(ctx context.Context, callID string) string {
	sess := m.registry.GetOrCreate(callID)
	sess.SetRecording(false)

	var wg sync.WaitGroup
	for _, speakerID := range sess.BufferSpeakers() {
		wg.Add(1)
		go func(speakerID string) {
			defer wg.Done()
			_ = m.pipe.FlushSpeaker(ctx, callID, sess, speakerID)
		}(speakerID)
	}
	wg.Wait()

	m.logger.Info("recording_stopped", "call_id", callID)
	return sess.Combined()
}

// IngestAudioChunk buffers a raw PCM chunk for a speaker. Chunks arriving
// while the session is not recording are silently dropped; the returned bool
// reports whether the chunk was buffered.
func (m *Manager) IngestAudioChunk(callID, speakerID string, data []byte) bool {
	sess := m.registry.GetOrCreate(callID)
	buffered := sess.AppendAudio(speakerID, data)
	if !buffered {
		m.logger.Debug("chunk_dropped_not_recording", "call_id", callID, "speaker_id", speakerID, "bytes", len(data))
	}
	return buffered
}

// SetSpeakerName upserts a speaker display name; it affects future
// transcript renders only.
func (m *Manager) SetSpeakerName(callID, speakerID, name string) {
	m.registry.GetOrCreate(callID).SetName(speakerID, name)
}

// RemoveSession drops a call's session and all its state. Buffered but
// unflushed audio is discarded; removal implies the call ended and the
// transcript was already retrieved via StopRecording.
func (m *Manager) RemoveSession(callID string) {
	m.registry.Remove(callID)
	m.logger.Info("session_removed", "call_id", callID)
}

// Transcript renders the combined transcript without mutating the session.
func (m *Manager) Transcript(callID string) string {
	return m.registry.GetOrCreate(callID).Combined()
}

// Sessions reports the number of live sessions, for monitoring.
func (m *Manager) Sessions() int {
	return m.registry.Len()
}
