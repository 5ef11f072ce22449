package callscribe

import (
	"fmt"
	"strings"

	"github.com/mwidjaja/callscribe/pkg/adapters/stt"
	"github.com/mwidjaja/callscribe/pkg/adapters/summary"
	"github.com/mwidjaja/callscribe/pkg/audio"
	"github.com/mwidjaja/callscribe/pkg/configutil"
	"github.com/mwidjaja/callscribe/pkg/providers/deepgram"
	"github.com/mwidjaja/callscribe/pkg/providers/mock"
	"github.com/mwidjaja/callscribe/pkg/providers/openai"
	"github.com/mwidjaja/callscribe/pkg/providers/whisper"
	"github.com/mwidjaja/callscribe/pkg/transports"
	mocktransport "github.com/mwidjaja/callscribe/pkg/transports/mock"
	"github.com/mwidjaja/callscribe/pkg/transports/wsingest"
)

type ConverterFactory func(cfg Config, settings map[string]any) (audio.Converter, error)
type STTFactory func(cfg Config, settings map[string]any) (stt.FileTranscriber, error)
type SummaryFactory func(cfg Config, settings map[string]any) (summary.Summarizer, error)
type TransportFactory func(cfg Config, settings map[string]any, sink transports.Sink) (transports.Transport, error)

type ProviderRegistry struct {
	converters  map[string]ConverterFactory
	stt         map[string]STTFactory
	summarizers map[string]SummaryFactory
	transports  map[string]TransportFactory
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		converters:  make(map[string]ConverterFactory),
		stt:         make(map[string]STTFactory),
		summarizers: make(map[string]SummaryFactory),
		transports:  make(map[string]TransportFactory),
	}
}

func (r *ProviderRegistry) RegisterConverter(name string, factory ConverterFactory) {
	r.converters[normalize(name)] = factory
}

func (r *ProviderRegistry) RegisterSTT(name string, factory STTFactory) {
	r.stt[normalize(name)] = factory
}

func (r *ProviderRegistry) RegisterSummarizer(name string, factory SummaryFactory) {
	r.summarizers[normalize(name)] = factory
}

func (r *ProviderRegistry) RegisterTransport(name string, factory TransportFactory) {
	r.transports[normalize(name)] = factory
}

func (r *ProviderRegistry) BuildConverter(provider string, cfg Config, settings map[string]any) (audio.Converter, error) {
	fn := r.converters[normalize(provider)]
	if fn == nil {
		return nil, fmt.Errorf("converter provider not registered: %s", provider)
	}
	return fn(cfg, settings)
}

func (r *ProviderRegistry) BuildSTT(provider string, cfg Config, settings map[string]any) (stt.FileTranscriber, error) {
	fn := r.stt[normalize(provider)]
	if fn == nil {
		return nil, fmt.Errorf("stt provider not registered: %s", provider)
	}
	return fn(cfg, settings)
}

func (r *ProviderRegistry) BuildSummarizer(provider string, cfg Config, settings map[string]any) (summary.Summarizer, error) {
	fn := r.summarizers[normalize(provider)]
	if fn == nil {
		return nil, fmt.Errorf("summary provider not registered: %s", provider)
	}
	return fn(cfg, settings)
}

func (r *ProviderRegistry) BuildTransport(provider string, cfg Config, settings map[string]any, sink transports.Sink) (transports.Transport, error) {
	fn := r.transports[normalize(provider)]
	if fn == nil {
		return nil, fmt.Errorf("transport provider not registered: %s", provider)
	}
	return fn(cfg, settings, sink)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// DefaultProviderRegistry returns a registry with every built-in provider.
func DefaultProviderRegistry() *ProviderRegistry {
	r := NewProviderRegistry()

	r.RegisterConverter("wav", func(cfg Config, settings map[string]any) (audio.Converter, error) {
		return audio.NewWAVEncoder(cfg.Audio.SampleRate, cfg.Audio.Channels), nil
	})
	r.RegisterConverter("ffmpeg", func(cfg Config, settings map[string]any) (audio.Converter, error) {
		conv := audio.NewFFmpegConverter(cfg.Audio.SampleRate, cfg.Audio.Channels, cfg.Audio.TempDir)
		if !conv.Available() {
			return nil, fmt.Errorf("ffmpeg binary not found in PATH")
		}
		return conv, nil
	})
	r.RegisterConverter("mock", func(cfg Config, settings map[string]any) (audio.Converter, error) {
		return mock.NewConverter(), nil
	})

	r.RegisterSTT("whisper", func(cfg Config, settings map[string]any) (stt.FileTranscriber, error) {
		if err := configutil.ValidateSettings(settings, configutil.Schema{
			Required: []string{"model_path"},
			Optional: []string{"language", "threads"},
		}); err != nil {
			return nil, fmt.Errorf("whisper settings: %w", err)
		}
		var opts struct {
			ModelPath string `mapstructure:"model_path"`
			Language  string `mapstructure:"language"`
			Threads   uint   `mapstructure:"threads"`
		}
		if err := configutil.DecodeSettings(settings, &opts); err != nil {
			return nil, fmt.Errorf("whisper settings: %w", err)
		}
		return whisper.New(whisper.Config{
			ModelPath: opts.ModelPath,
			Language:  opts.Language,
			Threads:   opts.Threads,
		})
	})
	r.RegisterSTT("deepgram", func(cfg Config, settings map[string]any) (stt.FileTranscriber, error) {
		if err := configutil.ValidateSettings(settings, configutil.Schema{
			Required: []string{"api_key"},
			Optional: []string{"model", "language"},
		}); err != nil {
			return nil, fmt.Errorf("deepgram settings: %w", err)
		}
		var opts struct {
			APIKey   string `mapstructure:"api_key"`
			Model    string `mapstructure:"model"`
			Language string `mapstructure:"language"`
		}
		if err := configutil.DecodeSettings(settings, &opts); err != nil {
			return nil, fmt.Errorf("deepgram settings: %w", err)
		}
		return deepgram.New(deepgram.Config{
			APIKey:   opts.APIKey,
			Model:    opts.Model,
			Language: opts.Language,
		})
	})
	r.RegisterSTT("mock", func(cfg Config, settings map[string]any) (stt.FileTranscriber, error) {
		var opts struct {
			Script   []string `mapstructure:"script"`
			Fallback string   `mapstructure:"fallback"`
		}
		if err := configutil.DecodeSettings(settings, &opts); err != nil {
			return nil, fmt.Errorf("mock stt settings: %w", err)
		}
		return mock.NewSTT(mock.STTConfig{Script: opts.Script, Fallback: opts.Fallback}), nil
	})

	r.RegisterSummarizer("openai", func(cfg Config, settings map[string]any) (summary.Summarizer, error) {
		if err := configutil.ValidateSettings(settings, configutil.Schema{
			Required: []string{"api_key"},
			Optional: []string{"model", "base_url"},
		}); err != nil {
			return nil, fmt.Errorf("openai settings: %w", err)
		}
		var opts struct {
			APIKey  string `mapstructure:"api_key"`
			Model   string `mapstructure:"model"`
			BaseURL string `mapstructure:"base_url"`
		}
		if err := configutil.DecodeSettings(settings, &opts); err != nil {
			return nil, fmt.Errorf("openai settings: %w", err)
		}
		s := openai.NewSummarizer(opts.APIKey, opts.Model)
		if opts.BaseURL != "" {
			s.BaseURL = opts.BaseURL
		}
		return s, nil
	})
	r.RegisterSummarizer("mock", func(cfg Config, settings map[string]any) (summary.Summarizer, error) {
		var opts struct {
			Reply string `mapstructure:"reply"`
		}
		if err := configutil.DecodeSettings(settings, &opts); err != nil {
			return nil, fmt.Errorf("mock summarizer settings: %w", err)
		}
		return mock.NewSummarizer(opts.Reply), nil
	})

	r.RegisterTransport("wsingest", func(cfg Config, settings map[string]any, sink transports.Sink) (transports.Transport, error) {
		var opts wsingest.Config
		if err := configutil.DecodeSettings(settings, &opts); err != nil {
			return nil, fmt.Errorf("wsingest settings: %w", err)
		}
		return wsingest.New(opts, sink), nil
	})
	r.RegisterTransport("mock", func(cfg Config, settings map[string]any, sink transports.Sink) (transports.Transport, error) {
		return mocktransport.New(sink), nil
	})

	return r
}
