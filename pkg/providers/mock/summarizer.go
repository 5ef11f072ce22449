package mock

import (
	"context"
	"sync"

	"github.com/mwidjaja/callscribe/pkg/adapters/summary"
)

// Summarizer is an in-memory summarizer for tests.
type Summarizer struct {
	mu    sync.Mutex
	seen  []string
	Reply string
	Err   error
}

func NewSummarizer(reply string) *Summarizer {
	if reply == "" {
		reply = "mock summary"
	}
	return &Summarizer{Reply: reply}
}

func (m *Summarizer) Name() string { return "mock_summarizer" }

func (m *Summarizer) Summarize(_ context.Context, transcript string) (string, error) {
	m.mu.Lock()
	m.seen = append(m.seen, transcript)
	m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	return m.Reply, nil
}

// Transcripts returns every transcript handed to the summarizer.
func (m *Summarizer) Transcripts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.seen))
	copy(out, m.seen)
	return out
}

var _ summary.Summarizer = (*Summarizer)(nil)
