package mock

import (
	"context"
	"sync/atomic"

	"github.com/mwidjaja/callscribe/pkg/transports"
)

// Transport is an in-memory capture integration for local testing. Callers
// drive it directly through the Push* methods; there is no network.
type Transport struct {
	sink    transports.Sink
	started atomic.Bool
	stopped atomic.Bool
}

func New(sink transports.Sink) *Transport {
	return &Transport{sink: sink}
}

func (t *Transport) Name() string { return "mock" }

func (t *Transport) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	t.started.Store(true)
	go func() {
		<-ctx.Done()
		_ = t.Stop()
	}()
	return nil
}

func (t *Transport) Stop() error {
	t.stopped.Store(true)
	return nil
}

// Started reports whether Start has run.
func (t *Transport) Started() bool { return t.started.Load() }

// Stopped reports whether Stop has run.
func (t *Transport) Stopped() bool { return t.stopped.Load() }

// PushStart begins recording for a call.
func (t *Transport) PushStart(callID string) { t.sink.StartRecording(callID) }

// PushChunk injects a PCM chunk for a speaker.
func (t *Transport) PushChunk(callID, speakerID string, data []byte) bool {
	return t.sink.IngestAudioChunk(callID, speakerID, data)
}

// PushName sets a speaker display name.
func (t *Transport) PushName(callID, speakerID, name string) {
	t.sink.SetSpeakerName(callID, speakerID, name)
}

// PushStop ends recording and returns the final transcript.
func (t *Transport) PushStop(ctx context.Context, callID string) string {
	return t.sink.StopRecording(ctx, callID)
}

// PushLeave removes the call's session.
func (t *Transport) PushLeave(callID string) { t.sink.RemoveSession(callID) }

var _ transports.Transport = (*Transport)(nil)
