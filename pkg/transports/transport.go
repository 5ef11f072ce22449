// Package transports defines the boundary between audio-capture integrations
// and the session core.
package transports

import "context"

// Sink is the session-manager surface a transport feeds. Implementations
// treat call and speaker identifiers as opaque keys supplied by the platform.
type Sink interface {
	StartRecording(callID string)
	StopRecording(ctx context.Context, callID string) string
	IngestAudioChunk(callID, speakerID string, data []byte) bool
	SetSpeakerName(callID, speakerID, name string)
	RemoveSession(callID string)
}

// Transport is a vendor-agnostic capture integration. Implementations are
// responsible for their own network lifecycle.
type Transport interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
}
