package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/driftos/driftd/pkg/provider/encoder"
	"github.com/driftos/driftd/pkg/provider/encoder/mock"
)

func TestLoadFromReader_AppliesDefaults(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != LogInfo {
		t.Errorf("LogLevel = %q, want info", cfg.Server.LogLevel)
	}
	if cfg.Scoring.DriftThreshold != 0.15 {
		t.Errorf("DriftThreshold = %v, want 0.15", cfg.Scoring.DriftThreshold)
	}
	if cfg.Scoring.ContinueThreshold != 0.38 {
		t.Errorf("ContinueThreshold = %v, want 0.38", cfg.Scoring.ContinueThreshold)
	}
}

func TestLoadFromReader_RespectsExplicitValues(t *testing.T) {
	yaml := `
server:
  listen_addr: ":9090"
  log_level: debug
providers:
  encoder:
    name: ollama
    base_url: "http://localhost:11434"
  analyzer:
    name: heuristic
scoring:
  drift_threshold: 0.2
  continue_threshold: 0.5
`
	cfg, err := LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q, want :9090", cfg.Server.ListenAddr)
	}
	if cfg.Providers.Encoder.Name != "ollama" || cfg.Providers.Encoder.BaseURL != "http://localhost:11434" {
		t.Errorf("Providers.Encoder = %+v", cfg.Providers.Encoder)
	}
	if cfg.Scoring.DriftThreshold != 0.2 || cfg.Scoring.ContinueThreshold != 0.5 {
		t.Errorf("Scoring = %+v, want {0.2 0.5}", cfg.Scoring)
	}
}

func TestLoadFromReader_RejectsUnknownFields(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("bogus_top_level_field: true\n"))
	if err == nil {
		t.Fatal("LoadFromReader: err = nil, want error for unknown field")
	}
}

func TestValidate_RejectsInvertedThresholds(t *testing.T) {
	cfg := &Config{
		Scoring: ScoringConfig{DriftThreshold: 0.5, ContinueThreshold: 0.2},
	}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate: err = nil, want error for continue_threshold < drift_threshold")
	}
}

func TestLoadFromReader_EnvOverrides(t *testing.T) {
	t.Setenv("EMBEDDING_MODEL", "nomic-embed-text")
	t.Setenv("LOG_LEVEL", "debug")

	yaml := `
server:
  log_level: warn
providers:
  encoder:
    name: ollama
    model: all-minilm
`
	cfg, err := LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Providers.Encoder.Model != "nomic-embed-text" {
		t.Errorf("Encoder.Model = %q, want EMBEDDING_MODEL to win over the file", cfg.Providers.Encoder.Model)
	}
	if cfg.Server.LogLevel != LogDebug {
		t.Errorf("LogLevel = %q, want LOG_LEVEL to win over the file", cfg.Server.LogLevel)
	}
}

func TestLoadFromReader_InvalidEnvLogLevelIsRejected(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")
	_, err := LoadFromReader(strings.NewReader(""))
	if err == nil {
		t.Fatal("LoadFromReader: err = nil, want validation error for invalid LOG_LEVEL")
	}
}

func TestValidate_RejectsOutOfRangeThresholds(t *testing.T) {
	cfg := &Config{
		Scoring: ScoringConfig{DriftThreshold: -0.1, ContinueThreshold: 1.5},
	}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate: err = nil, want error for out-of-range thresholds")
	}
}

func TestValidate_RejectsInvalidLogLevel(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{LogLevel: "verbose"},
		Scoring: ScoringConfig{DriftThreshold: 0.15, ContinueThreshold: 0.38},
	}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate: err = nil, want error for invalid log level")
	}
}

func TestValidate_AcceptsDefaultedConfig(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate(defaulted config) = %v, want nil", err)
	}
}

func TestRegistry_CreateEncoder_NotRegistered(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.CreateEncoder(ProviderEntry{Name: "nonexistent"})
	if !errors.Is(err, ErrProviderNotRegistered) {
		t.Errorf("err = %v, want ErrProviderNotRegistered", err)
	}
}

func TestRegistry_RegisterAndCreateEncoder(t *testing.T) {
	reg := NewRegistry()
	want := &mock.Provider{ModelIDValue: "fake-model"}
	reg.RegisterEncoder("fake", func(entry ProviderEntry) (encoder.Provider, error) {
		return want, nil
	})

	got, err := reg.CreateEncoder(ProviderEntry{Name: "fake"})
	if err != nil {
		t.Fatalf("CreateEncoder: %v", err)
	}
	if got != want {
		t.Errorf("CreateEncoder returned a different provider than registered")
	}
}
