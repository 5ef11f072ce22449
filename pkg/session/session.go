// Package session tracks live call recording state: per-speaker audio
// buffers, transcript segments, and display names, plus the registry and
// flush machinery that turns buffered audio into text.
package session

import (
	"bytes"
	"sync"

	"github.com/mwidjaja/callscribe/pkg/transcript"
)

// Session is the mutable state tracked for one call. Two actors touch it
// concurrently: the ingest path and the flush path. All map access goes
// through mu; flush execution itself is serialized per speaker by flight
// locks so conversion/transcription never runs under mu.
type Session struct {
	mu        sync.Mutex
	recording bool

	// segments is append-only per speaker; order records speakers by first
	// successful segment, which drives transcript block order.
	segments map[string][]string
	order    []string

	names   map[string]string
	buffers map[string]*bytes.Buffer
	flights map[string]*sync.Mutex
}

func New() *Session {
	return &Session{
		segments: make(map[string][]string),
		names:    make(map[string]string),
		buffers:  make(map[string]*bytes.Buffer),
		flights:  make(map[string]*sync.Mutex),
	}
}

// SetRecording toggles the gate on incoming audio.
func (s *Session) SetRecording(v bool) {
	s.mu.Lock()
	s.recording = v
	s.mu.Unlock()
}

// Recording reports whether incoming audio is currently buffered.
func (s *Session) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

// AppendAudio buffers a raw PCM chunk for a speaker. Chunks arriving while
// the session is not recording are dropped; the returned bool reports
// whether the chunk was buffered. Buffers are created lazily on first use.
func (s *Session) AppendAudio(speakerID string, data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recording {
		return false
	}
	buf, ok := s.buffers[speakerID]
	if !ok {
		buf = &bytes.Buffer{}
		s.buffers[speakerID] = buf
	}
	buf.Write(data)
	return true
}

// TakeBuffer atomically swaps out the speaker's buffer for an empty one and
// returns the accumulated bytes. Concurrent appends land either in the
// returned batch or in the fresh buffer, never lost. Returns nil when there
// is nothing buffered.
func (s *Session) TakeBuffer(speakerID string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf, ok := s.buffers[speakerID]
	if !ok || buf.Len() == 0 {
		return nil
	}
	s.buffers[speakerID] = &bytes.Buffer{}
	return buf.Bytes()
}

// BufferedSpeakers returns speakers with non-empty buffers.
func (s *Session) BufferedSpeakers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.buffers))
	for id, buf := range s.buffers {
		if buf.Len() > 0 {
			out = append(out, id)
		}
	}
	return out
}

// BufferSpeakers returns every speaker that ever buffered audio, including
// speakers whose buffer is currently empty. Used by the stop drain so it
// also waits behind in-flight flushes.
func (s *Session) BufferSpeakers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.buffers))
	for id := range s.buffers {
		out = append(out, id)
	}
	return out
}

// BufferedBytes reports the current buffer size for a speaker.
func (s *Session) BufferedBytes(speakerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf, ok := s.buffers[speakerID]
	if !ok {
		return 0
	}
	return buf.Len()
}

// AppendSegment appends transcribed text to a speaker's transcript.
func (s *Session) AppendSegment(speakerID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.segments[speakerID]; !seen {
		s.order = append(s.order, speakerID)
	}
	s.segments[speakerID] = append(s.segments[speakerID], text)
}

// SetName upserts a speaker display name. Last write wins.
func (s *Session) SetName(speakerID, name string) {
	s.mu.Lock()
	s.names[speakerID] = name
	s.mu.Unlock()
}

// Combined renders the full transcript: speakers in first-seen order, each
// segment under the speaker's display name or fallback label.
func (s *Session) Combined() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b transcript.Builder
	for _, id := range s.order {
		b.AddSpeaker(id, s.names[id], s.segments[id])
	}
	return b.String()
}

// flight returns the per-speaker mutex serializing flush execution.
func (s *Session) flight(speakerID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	fl, ok := s.flights[speakerID]
	if !ok {
		fl = &sync.Mutex{}
		s.flights[speakerID] = fl
	}
	return fl
}
