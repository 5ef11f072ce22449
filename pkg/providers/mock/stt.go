package mock

import (
	"context"
	"os"
	"sync"

	"github.com/mwidjaja/callscribe/pkg/adapters/stt"
)

// STTConfig scripts the mock transcriber. Script entries are consumed one
// per Transcribe call; when the script runs out, Fallback is returned.
type STTConfig struct {
	Script   []string
	Fallback string
	Err      error
}

// FileTranscriber is an in-memory STT implementation for tests. It records
// the payload size of every audio file it is handed.
type FileTranscriber struct {
	mu     sync.Mutex
	cfg    STTConfig
	next   int
	sizes  []int
	closed bool

	// TranscribeFn overrides the scripted behavior entirely when set.
	TranscribeFn func(ctx context.Context, audioPath string) (string, error)
}

func NewSTT(cfg STTConfig) *FileTranscriber {
	if cfg.Fallback == "" && len(cfg.Script) == 0 {
		cfg.Fallback = "mock transcript"
	}
	return &FileTranscriber{cfg: cfg}
}

func (m *FileTranscriber) Name() string { return "mock_stt" }

func (m *FileTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if m.TranscribeFn != nil {
		return m.TranscribeFn(ctx, audioPath)
	}
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sizes = append(m.sizes, len(data))
	if m.cfg.Err != nil {
		return "", m.cfg.Err
	}
	if m.next < len(m.cfg.Script) {
		text := m.cfg.Script[m.next]
		m.next++
		return text, nil
	}
	return m.cfg.Fallback, nil
}

func (m *FileTranscriber) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Calls reports how many transcriptions ran.
func (m *FileTranscriber) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sizes)
}

// PayloadSizes returns the byte size of each audio file received, in order.
func (m *FileTranscriber) PayloadSizes() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.sizes))
	copy(out, m.sizes)
	return out
}

var _ stt.FileTranscriber = (*FileTranscriber)(nil)
