// Package audio converts raw PCM capture buffers into playable audio containers.
package audio

import "context"

// Default capture format delivered by the voice transport: mono 16-bit
// signed little-endian at 48 kHz. Converters assume this format and do not
// negotiate it with the caller.
const (
	DefaultSampleRate = 48000
	DefaultChannels   = 1
	BytesPerSample    = 2
)

// Converter turns a raw PCM byte block into a playable audio container.
type Converter interface {
	// Name returns converter name for logging/metrics.
	Name() string
	// Convert wraps raw PCM bytes into a playable container (WAV).
	Convert(ctx context.Context, pcm []byte) ([]byte, error)
}
