// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package provider

import (
	"context"
	"net/http"
	"strings"

	apperr "github.com/JNalv/interview-agent/pkg/errors"
)

// Provider is the core interface for LLM providers.
type Provider interface {
	Name() string
	Available(ctx context.Context) bool
	Chat(ctx context.Context, req ChatRequest) (<-chan ChatEvent, error)
	Close() error
}

// HealthReporter is implemented by providers that track their own health.
// The driver reports call outcomes so failover can progress.
type HealthReporter interface {
	RecordFailure()
	RecordSuccess()
	HealthMetrics() HealthMetrics
}

// ChatRequest represents a request to the LLM.
type ChatRequest struct {
	Model        string
	Messages     []Message
	SystemPrompt string
	Options      ChatOptions
}

// ChatOptions contains model configuration.
type ChatOptions struct {
	Temperature   *float32
	MaxTokens     int
	StopSequences []string
}

// Message represents a conversation message.
type Message struct {
	Role    MessageRole
	Content string
}

// MessageRole defines the role of a message sender.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// ChatEvent is a streaming response event. Err is set on EventTypeError and
// carries a classified error (rate limit, auth or upstream failure).
type ChatEvent struct {
	Type  EventType
	Text  string
	Usage *Usage
	Err   error
}

// EventType defines the type of chat event.
type EventType string

const (
	EventTypeTextDelta EventType = "text_delta"
	EventTypeUsage     EventType = "usage"
	EventTypeDone      EventType = "done"
	EventTypeError     EventType = "error"
)

// Usage tracks token consumption as reported by the provider.
type Usage struct {
	InputTokens      int
	OutputTokens     int
	CacheReadTokens  int
	CacheWriteTokens int
}

// Classify maps an upstream HTTP status onto the error taxonomy:
// 429 is a rate limit, 401/403 an auth failure, anything else an upstream
// failure. A zero status (transport error) is an upstream failure.
func Classify(providerName string, status int, err error) error {
	if err == nil {
		return nil
	}
	code := apperr.CodeProviderUpstreamFailure
	switch status {
	case http.StatusTooManyRequests:
		code = apperr.CodeProviderRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		code = apperr.CodeProviderAuthUnauthorized
	}
	if apperr.CodeOf(err) != "" {
		// Already classified further down; keep the inner code.
		return apperr.With(err, apperr.FieldProvider(providerName))
	}
	return apperr.Wrap(err, code, providerName+" request failed",
		apperr.FieldProvider(providerName),
		apperr.Field("status", status),
	)
}

// Collect drains a chat stream and returns the concatenated text. The first
// error event aborts collection and partial text is discarded.
func Collect(ctx context.Context, ch <-chan ChatEvent) (string, *Usage, error) {
	var (
		sb    strings.Builder
		usage *Usage
	)
	for {
		select {
		case <-ctx.Done():
			return "", usage, apperr.Wrap(ctx.Err(), apperr.CodeProviderUpstreamFailure, "waiting for model response")
		case ev, ok := <-ch:
			if !ok {
				return sb.String(), usage, nil
			}
			switch ev.Type {
			case EventTypeTextDelta:
				sb.WriteString(ev.Text)
			case EventTypeUsage:
				usage = mergeUsage(usage, ev.Usage)
			case EventTypeError:
				err := ev.Err
				if err == nil {
					err = apperr.New(apperr.CodeProviderUpstreamFailure, "stream failed without detail")
				}
				return "", usage, err
			case EventTypeDone:
				return sb.String(), usage, nil
			}
		}
	}
}

// mergeUsage keeps the largest value seen per field; providers report
// input tokens at message start and output tokens at the end.
func mergeUsage(acc, next *Usage) *Usage {
	if next == nil {
		return acc
	}
	if acc == nil {
		u := *next
		return &u
	}
	acc.InputTokens = max(acc.InputTokens, next.InputTokens)
	acc.OutputTokens = max(acc.OutputTokens, next.OutputTokens)
	acc.CacheReadTokens = max(acc.CacheReadTokens, next.CacheReadTokens)
	acc.CacheWriteTokens = max(acc.CacheWriteTokens, next.CacheWriteTokens)
	return acc
}
