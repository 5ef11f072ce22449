// Package callscribe wires configuration, providers, the session core, and a
// transport into a runnable transcription engine.
package callscribe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/mwidjaja/callscribe/pkg/adapters/stt"
	"github.com/mwidjaja/callscribe/pkg/adapters/summary"
	"github.com/mwidjaja/callscribe/pkg/errorsx"
	"github.com/mwidjaja/callscribe/pkg/logging"
	"github.com/mwidjaja/callscribe/pkg/metrics"
	"github.com/mwidjaja/callscribe/pkg/observers"
	"github.com/mwidjaja/callscribe/pkg/redact"
	"github.com/mwidjaja/callscribe/pkg/runner"
	"github.com/mwidjaja/callscribe/pkg/session"
	"github.com/mwidjaja/callscribe/pkg/transports"
)

type Engine struct {
	cfg        Config
	manager    *session.Manager
	transcribe stt.FileTranscriber
	summarizer summary.Summarizer
	transport  transports.Transport
	providers  *ProviderRegistry
	runner     *runner.LifecycleRunner
	asyncObs   *metrics.AsyncObserver
	logger     *slog.Logger
	ctx        context.Context
	cancel     context.CancelFunc
}

type EngineOptions struct {
	Config    Config
	Providers *ProviderRegistry
	// Transport overrides the configured transport provider when set.
	Transport transports.Transport
	// ExtraObservers receive every metrics event alongside the built-ins.
	ExtraObservers []metrics.Observer
}

func NewEngine(opts EngineOptions) (*Engine, error) {
	cfg := opts.Config
	logging.SetDefault(cfg.LogLevel, cfg.LogFormat)
	redact.SetEnabled(cfg.Privacy.RedactPII)

	slog.Info("callscribe_init",
		"environment", cfg.Environment,
		"stt_provider", cfg.Vendors.STT.Provider,
		"summary_provider", cfg.Vendors.Summary.Provider,
		"converter", cfg.Vendors.Converter.Provider,
		"transport", cfg.Transport.Provider,
	)

	var logObs metrics.Observer = observers.NewLoggerObserver(slog.Default())
	if rate := cfg.Observability.LogSampleRate; rate > 0 && rate < 1 {
		logObs = metrics.NewSamplingObserver(logObs, rate)
	}
	latencyObs := observers.NewLatencyObserver(slog.Default())
	obsList := []metrics.Observer{logObs, latencyObs}
	var timelineObs *observers.TimelineObserver
	var usageObs *observers.UsageObserver
	var metricsFile *os.File
	if dir := strings.TrimSpace(cfg.Observability.ArtifactsDir); dir != "" {
		if cfg.Observability.RetentionDays > 0 {
			_, _ = observers.PurgeArtifacts(dir, time.Duration(cfg.Observability.RetentionDays)*24*time.Hour)
		}
		timelineObs = observers.NewTimelineObserver(dir)
		usageObs = observers.NewUsageObserver(dir, cfg.Audio.SampleRate)
		obsList = append(obsList, timelineObs, usageObs)
		if err := os.MkdirAll(dir, 0o755); err == nil {
			metricsFile, err = os.OpenFile(filepath.Join(dir, "metrics.jsonl"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err == nil {
				obsList = append(obsList, metrics.NewJSONLObserver(metricsFile))
			}
		}
	}
	obsList = append(obsList, opts.ExtraObservers...)
	buffer := cfg.Observability.MetricsBuffer
	if buffer <= 0 {
		buffer = 2048
	}
	asyncObs := metrics.NewAsyncObserver(observers.NewMultiObserver(obsList...), buffer)

	providers := opts.Providers
	if providers == nil {
		providers = DefaultProviderRegistry()
	}

	converter, err := providers.BuildConverter(cfg.Vendors.Converter.Provider, cfg, cfg.Vendors.Converter.Settings)
	if err != nil {
		return nil, fmt.Errorf("build converter: %w", err)
	}
	transcriber, err := providers.BuildSTT(cfg.Vendors.STT.Provider, cfg, cfg.Vendors.STT.Settings)
	if err != nil {
		return nil, fmt.Errorf("build stt: %w", err)
	}
	var summarizer summary.Summarizer
	if cfg.Summary.Enabled {
		summarizer, err = providers.BuildSummarizer(cfg.Vendors.Summary.Provider, cfg, cfg.Vendors.Summary.Settings)
		if err != nil {
			return nil, fmt.Errorf("build summarizer: %w", err)
		}
	}

	logger := logging.NewComponentLogger(slog.Default(), "engine")
	manager := session.NewManager(slog.Default(), session.ManagerConfig{
		Converter:     converter,
		Transcriber:   transcriber,
		FlushInterval: cfg.Flush.Interval(),
		TempDir:       cfg.Audio.TempDir,
		Observer:      asyncObs,
	})

	e := &Engine{
		cfg:        cfg,
		manager:    manager,
		transcribe: transcriber,
		summarizer: summarizer,
		providers:  providers,
		asyncObs:   asyncObs,
		logger:     logger,
	}

	transport := opts.Transport
	if transport == nil && strings.TrimSpace(cfg.Transport.Provider) != "" {
		transport, err = providers.BuildTransport(cfg.Transport.Provider, cfg, cfg.Transport.Settings, e)
		if err != nil {
			return nil, fmt.Errorf("build transport: %w", err)
		}
	}
	e.transport = transport

	hooks := runner.Hooks{
		OnStart: func() {
			slog.Info("engine_ready", "flush_interval_ms", cfg.Flush.IntervalMS)
		},
		OnStop: func() {
			asyncObs.Close()
			if timelineObs != nil {
				_ = timelineObs.Close()
			}
			if usageObs != nil {
				_ = usageObs.Close()
			}
			if metricsFile != nil {
				_ = metricsFile.Close()
			}
			_ = transcriber.Close()
			slog.Info("shutdown", "goroutines", runtime.NumGoroutine(), "active_calls", manager.Sessions())
		},
	}
	drainer := runner.DrainerFunc(func() error {
		if e.transport != nil {
			_ = e.transport.Stop()
		}
		manager.Stop()
		return nil
	})
	e.runner = runner.NewLifecycleRunner(drainer, hooks, 30*time.Second)
	e.ctx, e.cancel = context.WithCancel(context.Background())
	return e, nil
}

func (e *Engine) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	e.manager.Start(ctx)
	if e.transport != nil {
		if err := e.transport.Start(ctx); err != nil {
			return err
		}
	}
	go func() {
		_ = e.runner.Run(ctx)
	}()
	return nil
}

func (e *Engine) Stop() error {
	if e.cancel != nil {
		e.cancel()
	}
	return e.runner.Stop()
}

// StartRecording opens the capture gate for a call.
func (e *Engine) StartRecording(callID string) {
	e.manager.StartRecording(callID)
	e.record("recording_started", callID, 0, nil)
}

// StopRecording closes the gate, drains pending audio, and returns the final
// combined transcript.
func (e *Engine) StopRecording(ctx context.Context, callID string) string {
	transcript := e.manager.StopRecording(ctx, callID)
	e.record("recording_stopped", callID, 0, map[string]any{"transcript_chars": len(transcript)})
	return transcript
}

func (e *Engine) IngestAudioChunk(callID, speakerID string, data []byte) bool {
	return e.manager.IngestAudioChunk(callID, speakerID, data)
}

func (e *Engine) SetSpeakerName(callID, speakerID, name string) {
	e.manager.SetSpeakerName(callID, speakerID, name)
}

func (e *Engine) RemoveSession(callID string) {
	e.manager.RemoveSession(callID)
	e.record("session_removed", callID, 0, nil)
}

// Transcript returns the transcript assembled so far without stopping.
func (e *Engine) Transcript(callID string) string {
	return e.manager.Transcript(callID)
}

// Summarize condenses a finished transcript through the configured
// summarizer. Requires summary.enabled.
func (e *Engine) Summarize(ctx context.Context, callID, transcript string) (string, error) {
	if e.summarizer == nil {
		return "", errorsx.Wrap(fmt.Errorf("no summarizer configured"), errorsx.ReasonSummarize)
	}
	start := time.Now()
	text, err := e.summarizer.Summarize(ctx, transcript)
	if err != nil {
		return "", err
	}
	e.record("summary_generated", callID, time.Since(start).Seconds(), map[string]any{
		"transcript_chars": len(transcript),
		"summary_chars":    len(text),
	})
	return text, nil
}

func (e *Engine) record(name, callID string, value float64, fields map[string]any) {
	e.asyncObs.RecordEvent(metrics.MetricsEvent{
		Name:   name,
		Time:   time.Now(),
		Value:  value,
		Tags:   map[string]string{"call_id": callID},
		Fields: fields,
	})
}

func (e *Engine) Transport() transports.Transport { return e.transport }

func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) ProviderRegistry() *ProviderRegistry { return e.providers }

func (e *Engine) Health() error {
	if e.transcribe == nil {
		return fmt.Errorf("missing transcriber")
	}
	return nil
}

var _ transports.Sink = (*Engine)(nil)
