// Package deepgram provides speech-to-text via the Deepgram prerecorded API.
package deepgram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	client "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
	"github.com/mwidjaja/callscribe/pkg/adapters/stt"
	"github.com/mwidjaja/callscribe/pkg/errorsx"
	"github.com/mwidjaja/callscribe/pkg/logging"
	"github.com/mwidjaja/callscribe/pkg/resilience"
)

type Config struct {
	APIKey   string
	Model    string
	Language string
}

// FileTranscriber sends finished audio files to Deepgram's prerecorded
// endpoint. Single-shot per invocation; no streaming.
type FileTranscriber struct {
	cfg    Config
	dg     *api.Client
	retry  resilience.RetryPolicy
	logger *slog.Logger
}

func New(cfg Config) (*FileTranscriber, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errorsx.Wrap(fmt.Errorf("deepgram api key not configured"), errorsx.ReasonSTTInit)
	}
	if cfg.Model == "" {
		cfg.Model = "nova-3"
	}
	restClient := client.NewREST(cfg.APIKey, &interfaces.ClientOptions{})
	return &FileTranscriber{
		cfg:    cfg,
		dg:     api.New(restClient),
		retry:  resilience.NewRetryPolicy(2, 250*time.Millisecond),
		logger: logging.NewComponentLogger(slog.Default(), "deepgram_stt"),
	}, nil
}

func (t *FileTranscriber) Name() string { return "deepgram" }

func (t *FileTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:       t.cfg.Model,
		Language:    t.cfg.Language,
		SmartFormat: true,
		Punctuate:   true,
	}

	var transcript string
	err := t.retry.Do(func() error {
		res, err := t.dg.FromFile(ctx, audioPath, options)
		if err != nil {
			return err
		}
		if res == nil || res.Results == nil || len(res.Results.Channels) == 0 {
			return fmt.Errorf("empty transcription response")
		}
		alts := res.Results.Channels[0].Alternatives
		if len(alts) == 0 {
			return fmt.Errorf("transcription response has no alternatives")
		}
		transcript = alts[0].Transcript
		return nil
	})
	if err != nil {
		return "", errorsx.Wrap(fmt.Errorf("deepgram transcribe: %w", err), errorsx.ReasonTranscribe)
	}

	t.logger.Debug("transcription_completed", "file", audioPath, "text_len", len(transcript))
	return transcript, nil
}

func (t *FileTranscriber) Close() error { return nil }

var _ stt.FileTranscriber = (*FileTranscriber)(nil)
