package callscribe

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
vendors:
  stt:
    provider: mock
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Flush.Interval() != 2*time.Second {
		t.Fatalf("expected 2s default flush interval, got %v", cfg.Flush.Interval())
	}
	if cfg.Audio.SampleRate != 48000 || cfg.Audio.Channels != 1 {
		t.Fatalf("unexpected audio defaults: %+v", cfg.Audio)
	}
	if cfg.Vendors.Converter.Provider != "wav" {
		t.Fatalf("expected wav converter default, got %q", cfg.Vendors.Converter.Provider)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Fatalf("unexpected logging defaults: %q %q", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	t.Setenv("TEST_STT_KEY", "secret-key")
	path := writeConfig(t, `
vendors:
  stt:
    provider: deepgram
    settings:
      api_key: ${TEST_STT_KEY}
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.Vendors.STT.Settings["api_key"]; got != "secret-key" {
		t.Fatalf("env not expanded: %v", got)
	}
}

func TestLoadConfigRequiresSTTProvider(t *testing.T) {
	path := writeConfig(t, `
flush:
  interval_ms: 500
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected validation error for missing stt provider")
	}
}

func TestLoadConfigRejectsNonPositiveInterval(t *testing.T) {
	path := writeConfig(t, `
vendors:
  stt:
    provider: mock
flush:
  interval_ms: 0
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected validation error for zero interval")
	}
}

func TestLoadConfigRequiresSummarizerWhenEnabled(t *testing.T) {
	path := writeConfig(t, `
vendors:
  stt:
    provider: mock
summary:
  enabled: true
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected validation error for missing summary provider")
	}
}
