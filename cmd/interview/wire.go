// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package main

import (
	"errors"
	"log/slog"
	"time"

	"github.com/JNalv/interview-agent/internal/agent"
	"github.com/JNalv/interview-agent/internal/config"
	"github.com/JNalv/interview-agent/internal/interview"
	"github.com/JNalv/interview-agent/internal/provider"
	anthropicprov "github.com/JNalv/interview-agent/internal/provider/anthropic"
	googleprov "github.com/JNalv/interview-agent/internal/provider/google"
	openaiprov "github.com/JNalv/interview-agent/internal/provider/openai"
	"github.com/JNalv/interview-agent/internal/secrets"
	"github.com/JNalv/interview-agent/internal/speech"
	"github.com/JNalv/interview-agent/internal/store"
	_ "github.com/JNalv/interview-agent/internal/store/sqlite" // register sqlite backend
	"github.com/JNalv/interview-agent/internal/tokens"
	"github.com/JNalv/interview-agent/internal/transcript"
	"github.com/JNalv/interview-agent/pkg/executor"
	apperr "github.com/JNalv/interview-agent/pkg/errors"
)

// App holds the wired subsystems for one CLI invocation.
type App struct {
	Config      *config.Config
	Model       string
	Registry    *provider.Registry
	Driver      *agent.Driver
	Transcriber speech.Transcriber // nil when the backend could not be built
	Exporter    *transcript.Exporter
	Archive     store.Archive // nil when storage is disabled
}

// Wire builds the provider registry, driver, transcription backend,
// exporter and archive. model overrides cfg.Models.Default when set.
func Wire(cfg *config.Config, model string) (*App, error) {
	if model == "" {
		model = cfg.Models.Default
	}

	reg, err := buildRegistry(cfg, model)
	if err != nil {
		return nil, err
	}

	driver := agent.NewDriver(agent.DriverConfig{
		Router:    reg,
		Model:     model,
		MaxTokens: cfg.Models.MaxResponseTokens,
	})

	tr, err := buildTranscriber(cfg)
	if err != nil {
		slog.Warn("transcription unavailable, typed answers only", "backend", cfg.Speech.Backend, "error", err)
	}

	archive, err := buildArchive(cfg)
	if err != nil {
		_ = reg.Close()
		return nil, err
	}

	return &App{
		Config:      cfg,
		Model:       model,
		Registry:    reg,
		Driver:      driver,
		Transcriber: tr,
		Exporter:    buildExporter(cfg, driver),
		Archive:     archive,
	}, nil
}

// NewManager returns a context manager tuned from the budget config.
func (a *App) NewManager() *interview.Manager {
	return interview.NewManager(
		interview.WithEstimator(tokens.NewCharEstimator(a.Config.Budget.CharsPerToken)),
		interview.WithThresholds(interview.Thresholds{
			Warning:  a.Config.Budget.WarningThreshold,
			Critical: a.Config.Budget.CriticalThreshold,
		}),
	)
}

// NewLoop wires a Loop around m.
func (a *App) NewLoop(m *interview.Manager) *agent.Loop {
	cfg := agent.LoopConfig{
		Manager:     m,
		Asker:       a.Driver,
		Exporter:    a.Exporter,
		Model:       a.Model,
		MaxAttempts: a.Config.Models.MaxAttempts,
		Backoff:     time.Duration(a.Config.Models.BackoffSeconds * float64(time.Second)),
	}
	// Typed nils must not reach the loop's optional interfaces.
	if a.Transcriber != nil {
		cfg.Transcriber = a.Transcriber
	}
	if a.Archive != nil {
		cfg.Archiver = a.Archive
	}
	return agent.NewLoop(cfg)
}

// Close releases providers and the archive.
func (a *App) Close() error {
	var errs []error
	if a.Registry != nil {
		errs = append(errs, a.Registry.Close())
	}
	if a.Archive != nil {
		errs = append(errs, a.Archive.Close())
	}
	return errors.Join(errs...)
}

// providerFactory builds a provider.Provider from a ProviderConfig.
type providerFactory func(config.ProviderConfig) (provider.Provider, error)

// builtinProviderFactories maps provider names to their constructors.
// Declared as a variable so tests can inject fakes.
var builtinProviderFactories = map[string]providerFactory{
	"anthropic": func(pc config.ProviderConfig) (provider.Provider, error) {
		return anthropicprov.New(anthropicprov.Config{APIKey: pc.APIKey, BaseURL: pc.Endpoint})
	},
	"google": func(pc config.ProviderConfig) (provider.Provider, error) {
		return googleprov.New(googleprov.Config{APIKey: pc.APIKey, BaseURL: pc.Endpoint})
	},
	"openai": func(pc config.ProviderConfig) (provider.Provider, error) {
		return openaiprov.New(openaiprov.Config{APIKey: pc.APIKey, BaseURL: pc.Endpoint})
	},
}

// registerBuiltinProviders registers every configured provider with a usable
// key. Missing keys, unresolved keyring references and unknown names are
// logged and skipped.
func registerBuiltinProviders(cfg *config.Config, reg *provider.Registry) {
	for name, pc := range cfg.Providers {
		if pc.APIKey == "" || secrets.IsKeyringURI(pc.APIKey) {
			slog.Warn("skipping provider without an API key", "provider", name,
				"hint", "interview secret set "+name)
			continue
		}
		factory, ok := builtinProviderFactories[name]
		if !ok {
			slog.Warn("unknown provider in config, skipping", "provider", name)
			continue
		}
		p, err := factory(pc)
		if err != nil {
			slog.Warn("failed to create provider", "provider", name, "error", err)
			continue
		}
		reg.Register(name, p)
		slog.Debug("registered provider", "provider", name)
	}
}

func buildRegistry(cfg *config.Config, model string) (*provider.Registry, error) {
	reg := provider.NewRegistry()
	registerBuiltinProviders(cfg, reg)

	if err := reg.SetDefault(model); err != nil {
		_ = reg.Close()
		return nil, apperr.Wrapf(err, apperr.CodeCLISetupFailure,
			"model %s is not usable; store a key with: interview secret set %s", model, config.ProviderFromModel(model))
	}
	if len(cfg.Models.Failover) > 0 {
		if err := reg.SetFailover(cfg.Models.Failover); err != nil {
			_ = reg.Close()
			return nil, apperr.Wrapf(err, apperr.CodeCLISetupFailure, "setting failover chain")
		}
	}
	return reg, nil
}

func buildTranscriber(cfg *config.Config) (speech.Transcriber, error) {
	sc := cfg.Speech
	switch sc.Backend {
	case "openai":
		pc := cfg.Providers["openai"]
		if secrets.IsKeyringURI(pc.APIKey) {
			pc.APIKey = ""
		}
		t, err := speech.NewOpenAI(speech.OpenAIConfig{
			APIKey:   pc.APIKey,
			BaseURL:  pc.Endpoint,
			Language: sc.Language,
		})
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return speech.NewWhisperCLI(speech.WhisperConfig{
			BinaryPath: sc.BinaryPath,
			ModelPath:  sc.ModelPath,
			Model:      sc.Model,
			Language:   sc.Language,
			Threads:    sc.Threads,
			UseGPU:     sc.UseGPU,
		}, executor.New()), nil
	}
}

func buildArchive(cfg *config.Config) (store.Archive, error) {
	if !cfg.Storage.Enabled {
		return nil, nil
	}
	a, err := store.Open(store.Config{Backend: cfg.Storage.Backend, Path: cfg.Storage.Path})
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.CodeCLISetupFailure, "opening interview archive")
	}
	return a, nil
}

// buildExporter wires LLM cleaning through completer; a nil completer
// leaves llm mode falling back to filler cleaning.
func buildExporter(cfg *config.Config, completer transcript.Completer) *transcript.Exporter {
	return transcript.NewExporter(transcript.ExporterConfig{
		OutputDir: cfg.Transcript.OutputDir,
		Clean:     transcript.CleanMode(cfg.Transcript.Clean),
		Cleaner:   transcript.NewCleaner(completer, cfg.Models.CleanupMaxTokens),
		Docx:      cfg.Transcript.Docx,
	})
}

// openArchive is used by commands that only browse stored sessions.
func openArchive(cfg *config.Config) (store.Archive, error) {
	if !cfg.Storage.Enabled {
		return nil, apperr.New(apperr.CodeCLIInputInvalid, "storage is disabled (storage.enabled=false)")
	}
	return buildArchive(cfg)
}
