package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mwidjaja/callscribe/pkg/errorsx"
)

func TestSummarizeEmptyTranscriptShortCircuits(t *testing.T) {
	s := NewSummarizer("key", "")
	s.BaseURL = "http://127.0.0.1:1" // must never be hit
	got, err := s.Summarize(context.Background(), "   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != emptySummary {
		t.Fatalf("expected %q, got %q", emptySummary, got)
	}
}

func TestSummarizeParsesResponse(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "  a short summary  "}},
			},
		})
	}))
	defer srv.Close()

	s := NewSummarizer("key", "test-model")
	s.BaseURL = srv.URL
	got, err := s.Summarize(context.Background(), "alice:\nhello\n")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if got != "a short summary" {
		t.Fatalf("expected trimmed summary, got %q", got)
	}
	if gotReq.Model != "test-model" {
		t.Fatalf("expected model forwarded, got %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Fatalf("unexpected messages: %+v", gotReq.Messages)
	}
}

func TestSummarizeReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limited"},
		})
	}))
	defer srv.Close()

	s := NewSummarizer("key", "")
	s.BaseURL = srv.URL
	_, err := s.Summarize(context.Background(), "something")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errorsx.HasReason(err, errorsx.ReasonSummarize) {
		t.Fatalf("expected summary_generate reason, got %s", errorsx.Reason(err))
	}
}

func TestSummarizeOpensBreakerAfterRepeatedRateLimits(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limited"},
		})
	}))
	defer srv.Close()

	s := NewSummarizer("key", "")
	s.BaseURL = srv.URL
	for i := 0; i < 3; i++ {
		if _, err := s.Summarize(context.Background(), "something"); err == nil {
			t.Fatalf("expected rate limit error on call %d", i)
		}
	}
	if _, err := s.Summarize(context.Background(), "something"); err == nil {
		t.Fatalf("expected circuit-open error")
	}
	if hits != 3 {
		t.Fatalf("expected 3 upstream hits before the circuit opened, got %d", hits)
	}
}
