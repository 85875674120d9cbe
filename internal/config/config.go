// Package config provides the configuration schema, loader, and provider
// registry for the drift analysis server.
package config

// Config is the root configuration structure for driftd.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Scoring   ScoringConfig   `yaml:"scoring"`
}

// ServerConfig holds network and logging settings for the HTTP server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity. Valid values: "debug", "info", "warn", "error".
	LogLevel LogLevel `yaml:"log_level"`
}

// LogLevel is a validated logging verbosity setting.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is one of the recognised log levels.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	default:
		return false
	}
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline stage. Each field selects a named provider registered in the
// [Registry].
type ProvidersConfig struct {
	Encoder  ProviderEntry `yaml:"encoder"`
	Analyzer ProviderEntry `yaml:"analyzer"`
}

// ProviderEntry is the common configuration block shared by all provider types.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "openai", "ollama", "corenlp").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API, when required.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "text-embedding-3-small").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above. Values may be strings, numbers, booleans, or nested maps.
	Options map[string]any `yaml:"options"`
}

// ScoringConfig holds tunables for the /drift endpoint's action mapping.
// These are the operator-configurable defaults used when a /drift request
// omits its own stay_threshold/branch_threshold.
type ScoringConfig struct {
	// DriftThreshold is the default branch_threshold: the similarity value
	// at or below which /drift maps to "BRANCH_NEW_CLUSTER".
	DriftThreshold float64 `yaml:"drift_threshold"`

	// ContinueThreshold is the default stay_threshold: the similarity
	// value above which /drift maps to "STAY". Values above DriftThreshold
	// and at or below ContinueThreshold map to "BRANCH_SAME_CLUSTER".
	ContinueThreshold float64 `yaml:"continue_threshold"`
}
