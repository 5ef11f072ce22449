package wsingest

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// recordingSink captures everything the transport forwards.
type recordingSink struct {
	mu         sync.Mutex
	started    []string
	stopped    []string
	removed    []string
	names      map[string]string
	chunks     map[string][]byte
	transcript string
}

func newRecordingSink(transcript string) *recordingSink {
	return &recordingSink{
		names:      make(map[string]string),
		chunks:     make(map[string][]byte),
		transcript: transcript,
	}
}

func (s *recordingSink) StartRecording(callID string) {
	s.mu.Lock()
	s.started = append(s.started, callID)
	s.mu.Unlock()
}

func (s *recordingSink) StopRecording(_ context.Context, callID string) string {
	s.mu.Lock()
	s.stopped = append(s.stopped, callID)
	s.mu.Unlock()
	return s.transcript
}

func (s *recordingSink) IngestAudioChunk(callID, speakerID string, data []byte) bool {
	s.mu.Lock()
	s.chunks[callID+"/"+speakerID] = append(s.chunks[callID+"/"+speakerID], data...)
	s.mu.Unlock()
	return true
}

func (s *recordingSink) SetSpeakerName(callID, speakerID, name string) {
	s.mu.Lock()
	s.names[callID+"/"+speakerID] = name
	s.mu.Unlock()
}

func (s *recordingSink) RemoveSession(callID string) {
	s.mu.Lock()
	s.removed = append(s.removed, callID)
	s.mu.Unlock()
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "?" + query
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestIngestFlow(t *testing.T) {
	sink := newRecordingSink("alice:\nhello\n")
	tr := New(Config{}, sink)
	srv := httptest.NewServer(tr)
	defer srv.Close()

	conn := dial(t, srv, "call=c1&speaker=s1")
	defer conn.Close()

	if err := conn.WriteJSON(control{Type: "start"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := conn.WriteJSON(control{Type: "name", Name: "alice"}); err != nil {
		t.Fatalf("name: %v", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3}); err != nil {
		t.Fatalf("chunk: %v", err)
	}
	if err := conn.WriteJSON(control{Type: "stop"}); err != nil {
		t.Fatalf("stop: %v", err)
	}

	// The stop reply carries the final transcript.
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	var rep reply
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatalf("unmarshal reply: %v", err)
	}
	if rep.Type != "transcript" || rep.Transcript != "alice:\nhello\n" {
		t.Fatalf("unexpected reply: %+v", rep)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.started) != 1 || sink.started[0] != "c1" {
		t.Fatalf("start not forwarded: %v", sink.started)
	}
	if got := sink.names["c1/s1"]; got != "alice" {
		t.Fatalf("name not forwarded: %q", got)
	}
	if got := sink.chunks["c1/s1"]; len(got) != 3 {
		t.Fatalf("chunk not forwarded: %v", got)
	}
}

func TestIngestRequiresIdentifiers(t *testing.T) {
	tr := New(Config{}, newRecordingSink(""))
	srv := httptest.NewServer(tr)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "?call=c1"
	if _, _, err := websocket.DefaultDialer.Dial(wsURL, nil); err == nil {
		t.Fatalf("expected dial rejection without speaker id")
	}
}

func TestLeaveRemovesSession(t *testing.T) {
	sink := newRecordingSink("")
	tr := New(Config{}, sink)
	srv := httptest.NewServer(tr)
	defer srv.Close()

	conn := dial(t, srv, "call=c9&speaker=s1")
	defer conn.Close()
	if err := conn.WriteJSON(control{Type: "leave"}); err != nil {
		t.Fatalf("leave: %v", err)
	}
	// The server closes the loop after leave; reading surfaces the close.
	_, _, _ = conn.ReadMessage()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.removed) != 1 || sink.removed[0] != "c9" {
		t.Fatalf("leave not forwarded: %v", sink.removed)
	}
}
