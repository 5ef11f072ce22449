// Package whisper provides local speech-to-text via whisper.cpp bindings.
package whisper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	whispercpp "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/mwidjaja/callscribe/pkg/adapters/stt"
	"github.com/mwidjaja/callscribe/pkg/errorsx"
	"github.com/mwidjaja/callscribe/pkg/logging"
)

// whisper.cpp consumes mono float32 at 16 kHz regardless of capture rate.
const modelSampleRate = 16000

type Config struct {
	ModelPath string
	Language  string
	Threads   uint
}

// FileTranscriber runs whisper.cpp against WAV files on disk. The model is
// loaded once; contexts are created per transcription. Process calls are
// serialized: the bindings do not support concurrent contexts on one model.
type FileTranscriber struct {
	cfg    Config
	model  whispercpp.Model
	logger *slog.Logger
	mu     sync.Mutex
}

func New(cfg Config) (*FileTranscriber, error) {
	if cfg.ModelPath == "" {
		return nil, errorsx.Wrap(fmt.Errorf("whisper model path not configured"), errorsx.ReasonSTTInit)
	}
	logger := logging.NewComponentLogger(slog.Default(), "whisper_stt")
	logger.Info("loading_whisper_model", "path", cfg.ModelPath)

	model, err := whispercpp.New(cfg.ModelPath)
	if err != nil {
		return nil, errorsx.Wrap(fmt.Errorf("load whisper model: %w", err), errorsx.ReasonSTTInit)
	}
	return &FileTranscriber{cfg: cfg, model: model, logger: logger}, nil
}

func (t *FileTranscriber) Name() string { return "whisper_cpp" }

func (t *FileTranscriber) Transcribe(_ context.Context, audioPath string) (string, error) {
	samples, err := loadSamples(audioPath)
	if err != nil {
		return "", err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	wctx, err := t.model.NewContext()
	if err != nil {
		return "", errorsx.Wrap(fmt.Errorf("create whisper context: %w", err), errorsx.ReasonTranscribe)
	}
	if lang := strings.TrimSpace(t.cfg.Language); lang != "" {
		if err := wctx.SetLanguage(lang); err != nil {
			t.logger.Warn("set_language_failed", "language", lang, "error", err.Error())
		}
	}
	if t.cfg.Threads > 0 {
		wctx.SetThreads(t.cfg.Threads)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", errorsx.Wrap(fmt.Errorf("whisper process: %w", err), errorsx.ReasonTranscribe)
	}

	var text strings.Builder
	for {
		segment, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errorsx.Wrap(fmt.Errorf("next segment: %w", err), errorsx.ReasonTranscribe)
		}
		text.WriteString(segment.Text)
		text.WriteString(" ")
	}
	return strings.TrimSpace(text.String()), nil
}

func (t *FileTranscriber) Close() error {
	if t.model != nil {
		return t.model.Close()
	}
	return nil
}

// loadSamples reads a mono 16-bit WAV file and returns normalized float32
// samples at the model rate.
func loadSamples(audioPath string) ([]float32, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, errorsx.Wrap(fmt.Errorf("read audio file: %w", err), errorsx.ReasonArtifactIO)
	}
	samples, rate, err := decodeWAV(data)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonSTTDecode)
	}
	if rate != modelSampleRate {
		samples = resample(samples, rate, modelSampleRate)
	}
	if len(samples) == 0 {
		return nil, errorsx.Wrap(fmt.Errorf("no audio samples decoded from %s", audioPath), errorsx.ReasonSTTDecode)
	}
	return toFloat32(samples), nil
}

var _ stt.FileTranscriber = (*FileTranscriber)(nil)
