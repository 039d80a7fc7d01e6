// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package agent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/JNalv/interview-agent/internal/interview"
	"github.com/JNalv/interview-agent/internal/provider"
	apperr "github.com/JNalv/interview-agent/pkg/errors"
)

// Router selects a provider for a model reference, skipping excluded
// provider names.
type Router interface {
	Route(ctx context.Context, modelRef string, exclude []string) (provider.Provider, string, error)
	MaxAttempts() int
}

// DriverConfig holds dependencies for the Driver.
type DriverConfig struct {
	Router Router
	// Model is a "provider/model" reference; empty uses the router default.
	Model       string
	MaxTokens   int
	Temperature *float32
}

// Driver turns a request payload into the interviewer's next utterance.
type Driver struct {
	router      Router
	model       string
	maxTokens   int
	temperature *float32
}

// NewDriver creates a Driver.
func NewDriver(cfg DriverConfig) *Driver {
	return &Driver{
		router:      cfg.Router,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

// NextTurn sends the payload and returns the model's reply text.
// Failures are classified as rate limit, auth or upstream errors.
func (d *Driver) NextTurn(ctx context.Context, payload interview.Payload) (string, error) {
	msgs := make([]provider.Message, 0, len(payload.Messages))
	for _, m := range payload.Messages {
		msgs = append(msgs, provider.Message{Role: provider.MessageRole(m.Role), Content: m.Content})
	}
	return d.chat(ctx, provider.ChatRequest{
		Messages:     msgs,
		SystemPrompt: payload.System,
		Options:      provider.ChatOptions{MaxTokens: d.maxTokens, Temperature: d.temperature},
	})
}

// Complete runs a single-shot prompt outside the interview history.
func (d *Driver) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	return d.chat(ctx, provider.ChatRequest{
		Messages:     []provider.Message{{Role: provider.MessageRoleUser, Content: user}},
		SystemPrompt: system,
		Options:      provider.ChatOptions{MaxTokens: maxTokens, Temperature: d.temperature},
	})
}

// chat routes the request, failing over to the next provider on upstream
// failures. Rate limits and auth errors are returned to the caller at once.
func (d *Driver) chat(ctx context.Context, req provider.ChatRequest) (string, error) {
	var (
		exclude []string
		lastErr error
	)
	attempts := max(d.router.MaxAttempts(), 1)

	for range attempts {
		prov, model, err := d.router.Route(ctx, d.model, exclude)
		if err != nil {
			if lastErr != nil {
				return "", lastErr
			}
			return "", err
		}

		req.Model = model
		text, err := d.stream(ctx, prov, req)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil || apperr.IsRateLimited(err) || apperr.IsUnauthorized(err) || apperr.IsInvalidInput(err) {
			return "", err
		}

		slog.Warn("provider call failed, trying next",
			"provider", prov.Name(), "model", model, "error", err)
		if hr, ok := prov.(provider.HealthReporter); ok {
			hr.RecordFailure()
		}
		exclude = append(exclude, prov.Name())
		lastErr = err
	}
	return "", lastErr
}

func (d *Driver) stream(ctx context.Context, prov provider.Provider, req provider.ChatRequest) (string, error) {
	ch, err := prov.Chat(ctx, req)
	if err != nil {
		return "", provider.Classify(prov.Name(), 0, err)
	}

	text, usage, err := provider.Collect(ctx, ch)
	if err != nil {
		return "", err
	}
	if usage != nil {
		slog.Debug("model usage",
			"provider", prov.Name(),
			"model", req.Model,
			"input_tokens", usage.InputTokens,
			"output_tokens", usage.OutputTokens,
		)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperr.New(apperr.CodeProviderResponseInvalid, "model returned an empty response",
			apperr.FieldProvider(prov.Name()))
	}
	return text, nil
}
