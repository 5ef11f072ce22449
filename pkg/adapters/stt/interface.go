package stt

import "context"

// FileTranscriber defines the contract for any STT vendor implementation.
// Transcription is single-shot per invocation; there are no streaming or
// partial results.
type FileTranscriber interface {
	// Name returns adapter name for logging/metrics.
	Name() string
	// Transcribe converts a playable audio file into text.
	Transcribe(ctx context.Context, audioPath string) (string, error)
	// Close releases any resources held by the adapter.
	Close() error
}
