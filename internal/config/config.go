// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package config

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	apperr "github.com/JNalv/interview-agent/pkg/errors"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "INTERVIEW"

// Config is the top-level interview-agent configuration.
type Config struct {
	DataDir    string                    `mapstructure:"data_dir" yaml:"data_dir"`
	Providers  map[string]ProviderConfig `mapstructure:"providers" yaml:"providers"`
	Models     ModelsConfig              `mapstructure:"models" yaml:"models"`
	Budget     BudgetConfig              `mapstructure:"budget" yaml:"budget"`
	Speech     SpeechConfig              `mapstructure:"speech" yaml:"speech"`
	Documents  DocumentsConfig           `mapstructure:"documents" yaml:"documents"`
	Prompt     PromptConfig              `mapstructure:"prompt" yaml:"prompt"`
	Transcript TranscriptConfig          `mapstructure:"transcript" yaml:"transcript"`
	Storage    StorageConfig             `mapstructure:"storage" yaml:"storage"`
	Logging    LoggingConfig             `mapstructure:"logging" yaml:"logging"`
}

// ProviderConfig holds credentials and endpoint for an LLM provider.
// APIKey may be a keyring:// reference.
type ProviderConfig struct {
	APIKey   string `mapstructure:"api_key" yaml:"api_key"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
}

// ModelsConfig controls model selection and retry behaviour.
type ModelsConfig struct {
	Default           string   `mapstructure:"default" yaml:"default"`
	Failover          []string `mapstructure:"failover" yaml:"failover"`
	MaxResponseTokens int      `mapstructure:"max_response_tokens" yaml:"max_response_tokens"`
	CleanupMaxTokens  int      `mapstructure:"cleanup_max_tokens" yaml:"cleanup_max_tokens"`
	MaxAttempts       int      `mapstructure:"max_attempts" yaml:"max_attempts"`
	BackoffSeconds    float64  `mapstructure:"backoff_seconds" yaml:"backoff_seconds"`
}

// BudgetConfig sets the context window and warning thresholds.
type BudgetConfig struct {
	CapacityTokens    int     `mapstructure:"capacity_tokens" yaml:"capacity_tokens"`
	WarningThreshold  float64 `mapstructure:"warning_threshold" yaml:"warning_threshold"`
	CriticalThreshold float64 `mapstructure:"critical_threshold" yaml:"critical_threshold"`
	CharsPerToken     int     `mapstructure:"chars_per_token" yaml:"chars_per_token"`
}

// SpeechConfig selects and tunes the transcription backend.
type SpeechConfig struct {
	Backend    string `mapstructure:"backend" yaml:"backend"`
	Model      string `mapstructure:"model" yaml:"model"`
	BinaryPath string `mapstructure:"binary_path" yaml:"binary_path"`
	ModelPath  string `mapstructure:"model_path" yaml:"model_path"`
	Language   string `mapstructure:"language" yaml:"language"`
	Threads    int    `mapstructure:"threads" yaml:"threads"`
	UseGPU     bool   `mapstructure:"use_gpu" yaml:"use_gpu"`
	SampleRate int    `mapstructure:"sample_rate" yaml:"sample_rate"`
	Channels   int    `mapstructure:"channels" yaml:"channels"`
}

// DocumentsConfig controls which files are loaded as context.
type DocumentsConfig struct {
	Dir        string   `mapstructure:"dir" yaml:"dir"`
	Extensions []string `mapstructure:"extensions" yaml:"extensions"`
}

// PromptConfig points at the interviewer persona file.
type PromptConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// TranscriptConfig controls export.
type TranscriptConfig struct {
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	Clean     string `mapstructure:"clean" yaml:"clean"`
	Docx      bool   `mapstructure:"docx" yaml:"docx"`
}

// StorageConfig controls the interview archive.
type StorageConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Backend string `mapstructure:"backend" yaml:"backend"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", defaultDataDir())

	v.SetDefault("models.default", "anthropic/claude-sonnet-4-20250514")
	v.SetDefault("models.failover", []string{})
	v.SetDefault("models.max_response_tokens", 1024)
	v.SetDefault("models.cleanup_max_tokens", 8000)
	v.SetDefault("models.max_attempts", 3)
	v.SetDefault("models.backoff_seconds", 1.0)

	v.SetDefault("budget.capacity_tokens", 200000)
	v.SetDefault("budget.warning_threshold", 0.75)
	v.SetDefault("budget.critical_threshold", 0.90)
	v.SetDefault("budget.chars_per_token", 4)

	v.SetDefault("speech.backend", "whisper-cli")
	v.SetDefault("speech.model", "base")
	v.SetDefault("speech.binary_path", "whisper-cli")
	v.SetDefault("speech.model_path", "")
	v.SetDefault("speech.language", "en")
	v.SetDefault("speech.threads", 4)
	v.SetDefault("speech.use_gpu", true)
	v.SetDefault("speech.sample_rate", 16000)
	v.SetDefault("speech.channels", 1)

	v.SetDefault("documents.dir", "")
	v.SetDefault("documents.extensions", []string{".txt", ".md", ".pdf", ".docx"})

	v.SetDefault("prompt.path", "")

	v.SetDefault("transcript.output_dir", ".")
	v.SetDefault("transcript.clean", "filler")
	v.SetDefault("transcript.docx", false)

	v.SetDefault("storage.enabled", true)
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.path", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// SetupEnv enables INTERVIEW_* environment overrides.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperr.Errorf(apperr.CodeConfigParseInvalidFormat, "unmarshalling config: %w", err)
	}

	if cfg.Storage.Path == "" && cfg.DataDir != "" {
		cfg.Storage.Path = filepath.Join(cfg.DataDir, "interviews.db")
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, apperr.Errorf(apperr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix INTERVIEW_).
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	SetupEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, apperr.Errorf(apperr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	return FromViper(v)
}

// Validate checks the configuration for logical errors, collecting all of
// them rather than stopping at the first.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateModels()...)
	errs = append(errs, c.validateBudget()...)
	errs = append(errs, c.validateSpeech()...)
	errs = append(errs, c.validateTranscript()...)
	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateLogging()...)

	return errs
}

func (c *Config) validateModels() []error {
	var errs []error

	refs := append([]string{c.Models.Default}, c.Models.Failover...)
	for i, model := range refs {
		field := "models.default"
		if i > 0 {
			field = "models.failover"
		}
		if model == "" {
			errs = append(errs, invalid("config: %s must not be empty", field))
			continue
		}
		if !strings.Contains(model, "/") {
			errs = append(errs, invalid("config: %s must be in \"provider/model\" format, got %q", field, model))
			continue
		}
		// A nil map means no providers section was configured; keys may
		// still arrive through the environment or the keyring.
		if c.Providers != nil {
			name := ProviderFromModel(model)
			if _, ok := c.Providers[name]; !ok {
				errs = append(errs, invalid("config: %s %q references provider %q which is not configured", field, model, name))
			}
		}
	}

	if c.Models.MaxResponseTokens <= 0 {
		errs = append(errs, invalid("config: models.max_response_tokens must be greater than 0, got %d", c.Models.MaxResponseTokens))
	}
	if c.Models.MaxAttempts <= 0 {
		errs = append(errs, invalid("config: models.max_attempts must be greater than 0, got %d", c.Models.MaxAttempts))
	}
	if c.Models.BackoffSeconds < 0 {
		errs = append(errs, invalid("config: models.backoff_seconds must not be negative, got %g", c.Models.BackoffSeconds))
	}

	return errs
}

func (c *Config) validateBudget() []error {
	var errs []error
	b := c.Budget

	if b.CapacityTokens <= 0 {
		errs = append(errs, invalid("config: budget.capacity_tokens must be greater than 0, got %d", b.CapacityTokens))
	}
	if b.WarningThreshold <= 0 || b.WarningThreshold > 1 {
		errs = append(errs, invalid("config: budget.warning_threshold must be in (0, 1], got %g", b.WarningThreshold))
	}
	if b.CriticalThreshold <= 0 || b.CriticalThreshold > 1 {
		errs = append(errs, invalid("config: budget.critical_threshold must be in (0, 1], got %g", b.CriticalThreshold))
	}
	if b.WarningThreshold >= b.CriticalThreshold {
		errs = append(errs, invalid("config: budget.warning_threshold (%g) must be below budget.critical_threshold (%g)",
			b.WarningThreshold, b.CriticalThreshold))
	}
	if b.CharsPerToken < 1 {
		errs = append(errs, invalid("config: budget.chars_per_token must be at least 1, got %d", b.CharsPerToken))
	}

	return errs
}

func (c *Config) validateSpeech() []error {
	var errs []error
	s := c.Speech

	validBackends := map[string]bool{"whisper-cli": true, "openai": true}
	if !validBackends[s.Backend] {
		errs = append(errs, invalid("config: speech.backend must be one of [whisper-cli, openai], got %q", s.Backend))
	}
	if s.SampleRate <= 0 {
		errs = append(errs, invalid("config: speech.sample_rate must be greater than 0, got %d", s.SampleRate))
	}
	if s.Channels != 1 && s.Channels != 2 {
		errs = append(errs, invalid("config: speech.channels must be 1 or 2, got %d", s.Channels))
	}
	if s.Threads <= 0 {
		errs = append(errs, invalid("config: speech.threads must be greater than 0, got %d", s.Threads))
	}

	return errs
}

func (c *Config) validateTranscript() []error {
	var errs []error

	validModes := map[string]bool{"none": true, "filler": true, "llm": true}
	if !validModes[c.Transcript.Clean] {
		errs = append(errs, invalid("config: transcript.clean must be one of [none, filler, llm], got %q", c.Transcript.Clean))
	}

	return errs
}

func (c *Config) validateStorage() []error {
	var errs []error

	if c.Storage.Backend != "sqlite" {
		errs = append(errs, invalid("config: storage.backend must be one of [sqlite], got %q", c.Storage.Backend))
	}

	return errs
}

func (c *Config) validateLogging() []error {
	var errs []error

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, invalid("config: logging.level must be one of [debug, info, warn, error], got %q", c.Logging.Level))
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		errs = append(errs, invalid("config: logging.format must be one of [text, json], got %q", c.Logging.Format))
	}

	return errs
}

// ProviderFromModel extracts the provider prefix from a "provider/model" string.
func ProviderFromModel(model string) string {
	if idx := strings.Index(model, "/"); idx > 0 {
		return model[:idx]
	}
	return model
}

func invalid(format string, args ...any) error {
	return apperr.Errorf(apperr.CodeConfigValidateInvalidValue, format, args...)
}
