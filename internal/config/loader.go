package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"encoder":  {"openai", "ollama", "mock"},
	"analyzer": {"heuristic", "corenlp", "mock"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets the operator override select config values through
// the environment, matching the variables the original embedding server
// honoured: EMBEDDING_MODEL picks the encoder model, LOG_LEVEL the logging
// verbosity. (NODE_ENV is consumed by the logging layer directly.)
func applyEnvOverrides(cfg *Config) {
	if model := os.Getenv("EMBEDDING_MODEL"); model != "" {
		cfg.Providers.Encoder.Model = model
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Server.LogLevel = LogLevel(level)
	}
}

// applyDefaults fills in zero-value fields with the service's defaults so a
// minimal config file (or an empty one, for tests) still produces a usable
// [Config].
func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Scoring.DriftThreshold == 0 {
		cfg.Scoring.DriftThreshold = 0.15
	}
	if cfg.Scoring.ContinueThreshold == 0 {
		cfg.Scoring.ContinueThreshold = 0.38
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	validateProviderName("encoder", cfg.Providers.Encoder.Name)
	validateProviderName("analyzer", cfg.Providers.Analyzer.Name)

	if cfg.Providers.Encoder.Name == "" {
		slog.Warn("no providers.encoder configured — /embed and every endpoint that embeds text will return 503")
	}
	if cfg.Providers.Analyzer.Name == "" {
		slog.Warn("no providers.analyzer configured — /preprocess, /drift, /analyze-message and related endpoints will return 503")
	}

	if cfg.Scoring.DriftThreshold < 0 || cfg.Scoring.DriftThreshold > 1 {
		errs = append(errs, fmt.Errorf("scoring.drift_threshold %.2f must be in [0, 1]", cfg.Scoring.DriftThreshold))
	}
	if cfg.Scoring.ContinueThreshold < 0 || cfg.Scoring.ContinueThreshold > 1 {
		errs = append(errs, fmt.Errorf("scoring.continue_threshold %.2f must be in [0, 1]", cfg.Scoring.ContinueThreshold))
	}
	if cfg.Scoring.ContinueThreshold < cfg.Scoring.DriftThreshold {
		errs = append(errs, fmt.Errorf("scoring.continue_threshold %.2f must be >= scoring.drift_threshold %.2f", cfg.Scoring.ContinueThreshold, cfg.Scoring.DriftThreshold))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
