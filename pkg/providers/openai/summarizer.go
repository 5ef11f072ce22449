// Package openai provides transcript summarization via the chat completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mwidjaja/callscribe/pkg/adapters/summary"
	"github.com/mwidjaja/callscribe/pkg/errorsx"
	"github.com/mwidjaja/callscribe/pkg/resilience"
)

const (
	defaultModel     = "gpt-4o-mini"
	systemPrompt     = "You are a helpful assistant that summarizes conversations."
	summaryMaxTokens = 150
	emptySummary     = "No conversation to summarize."
)

type Summarizer struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client

	breaker *resilience.CircuitBreaker
}

func NewSummarizer(apiKey, model string) *Summarizer {
	if model == "" {
		model = defaultModel
	}
	return &Summarizer{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: "https://api.openai.com/v1",
		Client:  &http.Client{Timeout: 60 * time.Second},
		breaker: resilience.NewCircuitBreaker(3, 30*time.Second),
	}
}

func (s *Summarizer) Name() string { return "openai" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Summarize condenses a finished call transcript. An empty transcript
// short-circuits without an API call.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return emptySummary, nil
	}
	if !s.breaker.Allow() {
		return "", errorsx.Wrap(fmt.Errorf("chat completions: circuit open after repeated rate limits"), errorsx.ReasonSummarize)
	}

	payload, err := json.Marshal(chatRequest{
		Model: s.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "Summarize the following conversation:\n" + transcript},
		},
		Temperature: 0.5,
		MaxTokens:   summaryMaxTokens,
	})
	if err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonSummarize)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonSummarize)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", errorsx.Wrap(fmt.Errorf("chat completions request: %w", err), errorsx.ReasonSummarize)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonSummarize)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", errorsx.Wrap(fmt.Errorf("decode response: %w", err), errorsx.ReasonSummarize)
	}
	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		err := fmt.Errorf("chat completions: %s", msg)
		if resp.StatusCode == http.StatusTooManyRequests {
			s.breaker.OnError(resilience.RateLimitError{Provider: "openai", Message: msg})
		}
		return "", errorsx.Wrap(err, errorsx.ReasonSummarize)
	}
	if len(parsed.Choices) == 0 {
		return "", errorsx.Wrap(fmt.Errorf("chat completions: no choices"), errorsx.ReasonSummarize)
	}
	s.breaker.OnSuccess()
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

var _ summary.Summarizer = (*Summarizer)(nil)
