package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mwidjaja/callscribe/pkg/adapters/stt"
	"github.com/mwidjaja/callscribe/pkg/audio"
	"github.com/mwidjaja/callscribe/pkg/errorsx"
	"github.com/mwidjaja/callscribe/pkg/metrics"
)

// pipeline drains one speaker's buffer through conversion and transcription
// and appends the result to the session transcript. It holds no shared lock
// while the converter or transcriber runs; only the buffer swap is
// synchronized, so one slow transcription never stalls ingestion or other
// speakers.
type pipeline struct {
	converter audio.Converter
	stt       stt.FileTranscriber
	tempDir   string
	logger    *slog.Logger
	obs       metrics.Observer
}

func newPipeline(converter audio.Converter, transcriber stt.FileTranscriber, tempDir string, logger *slog.Logger, obs metrics.Observer) *pipeline {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if obs == nil {
		obs = metrics.NoopObserver{}
	}
	return &pipeline{
		converter: converter,
		stt:       transcriber,
		tempDir:   tempDir,
		logger:    logger,
		obs:       obs,
	}
}

// FlushSpeaker drains the speaker's buffer, waiting behind any flush already
// in flight for the same speaker. Errors are reported here and returned for
// tests; callers on the hot path ignore them.
func (p *pipeline) FlushSpeaker(ctx context.Context, callID string, sess *Session, speakerID string) error {
	fl := sess.flight(speakerID)
	fl.Lock()
	defer fl.Unlock()
	return p.flushLocked(ctx, callID, sess, speakerID)
}

// TryFlushSpeaker is the scheduler entry point: when a flush for this
// speaker is already in flight it does nothing instead of queueing up.
func (p *pipeline) TryFlushSpeaker(ctx context.Context, callID string, sess *Session, speakerID string) error {
	fl := sess.flight(speakerID)
	if !fl.TryLock() {
		return nil
	}
	defer fl.Unlock()
	return p.flushLocked(ctx, callID, sess, speakerID)
}

func (p *pipeline) flushLocked(ctx context.Context, callID string, sess *Session, speakerID string) error {
	pcm := sess.TakeBuffer(speakerID)
	if len(pcm) == 0 {
		return nil
	}
	start := time.Now()

	playable, err := p.converter.Convert(ctx, pcm)
	if err != nil {
		p.report(callID, speakerID, len(pcm), err)
		return err
	}

	wavPath := filepath.Join(p.tempDir, uuid.NewString()+".wav")
	if err := os.WriteFile(wavPath, playable, 0o600); err != nil {
		err = errorsx.Wrap(fmt.Errorf("write audio artifact: %w", err), errorsx.ReasonArtifactIO)
		p.report(callID, speakerID, len(pcm), err)
		return err
	}
	defer os.Remove(wavPath)

	text, err := p.stt.Transcribe(ctx, wavPath)
	if err != nil {
		err = errorsx.Wrap(err, errorsx.ReasonTranscribe)
		p.report(callID, speakerID, len(pcm), err)
		return err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	sess.AppendSegment(speakerID, text)

	p.obs.RecordEvent(metrics.MetricsEvent{
		Name:  "flush_success",
		Time:  time.Now(),
		Value: time.Since(start).Seconds(),
		Tags:  map[string]string{"call_id": callID, "speaker_id": speakerID},
		Fields: map[string]any{
			"pcm_bytes": len(pcm),
			"text_len":  len(text),
		},
	})
	return nil
}

// report logs a flush failure and discards the swapped-out audio. The buffer
// is never re-merged: the segment is lost for this cycle rather than risking
// retry storms or duplicate transcription.
func (p *pipeline) report(callID, speakerID string, pcmBytes int, err error) {
	p.logger.Error("flush_failed",
		"call_id", callID,
		"speaker_id", speakerID,
		"pcm_bytes", pcmBytes,
		"reason", string(errorsx.Reason(err)),
		"error", err.Error(),
	)
	p.obs.RecordEvent(metrics.MetricsEvent{
		Name: "flush_error",
		Time: time.Now(),
		Tags: map[string]string{
			"call_id":    callID,
			"speaker_id": speakerID,
			"reason":     string(errorsx.Reason(err)),
		},
		Fields: map[string]any{"pcm_bytes": pcmBytes},
	})
}
