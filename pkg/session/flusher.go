package session

import (
	"context"
	"log/slog"
	"time"
)

// DefaultFlushInterval is the period between scheduled buffer flushes. It is
// a tunable, not a correctness constant.
const DefaultFlushInterval = 2 * time.Second

// Flusher periodically drains every recording session's speaker buffers.
// Each speaker flush runs in its own goroutine so a slow transcription for
// one speaker never blocks the rest of the tick; TryFlushSpeaker skips
// speakers whose previous flush is still in flight.
type Flusher struct {
	registry *Registry
	pipe     *pipeline
	interval time.Duration
	logger   *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func newFlusher(registry *Registry, pipe *pipeline, interval time.Duration, logger *slog.Logger) *Flusher {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Flusher{
		registry: registry,
		pipe:     pipe,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the flush loop. It runs until the context is cancelled or
// Stop is called.
func (f *Flusher) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, f.cancel = context.WithCancel(ctx)
	f.done = make(chan struct{})
	go f.run(ctx)
}

// Stop halts the flush loop and waits for it to exit. In-flight speaker
// flushes are not cancelled; they complete on their own.
func (f *Flusher) Stop() {
	if f.cancel == nil {
		return
	}
	f.cancel()
	<-f.done
}

func (f *Flusher) run(ctx context.Context) {
	defer close(f.done)
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	f.logger.Info("flush_scheduler_started", "interval", f.interval.String())
	for {
		select {
		case <-ctx.Done():
			f.logger.Info("flush_scheduler_stopped")
			return
		case <-ticker.C:
			f.tick(ctx)
		}
	}
}

// tick flushes every buffered speaker of every recording session. Sessions
// not recording are skipped entirely; their buffers stay put until recording
// resumes or the session is removed.
func (f *Flusher) tick(ctx context.Context) {
	for callID, sess := range f.registry.Snapshot() {
		if !sess.Recording() {
			continue
		}
		for _, speakerID := range sess.BufferedSpeakers() {
			go func(callID string, sess *Session, speakerID string) {
				_ = f.pipe.TryFlushSpeaker(ctx, callID, sess, speakerID)
			}(callID, sess, speakerID)
		}
	}
}
