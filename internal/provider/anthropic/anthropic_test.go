// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package anthropic_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JNalv/interview-agent/internal/provider"
	"github.com/JNalv/interview-agent/internal/provider/anthropic"
	apperr "github.com/JNalv/interview-agent/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ provider.Provider = (*anthropic.Provider)(nil)
var _ provider.HealthReporter = (*anthropic.Provider)(nil)

func TestAnthropicProvider_MissingAPIKey(t *testing.T) {
	_, err := anthropic.New(anthropic.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")
	assert.True(t, apperr.HasCode(err, apperr.CodeProviderRequestInvalid))
}

func TestAnthropicProvider_Basics(t *testing.T) {
	p := mustNewProvider(t, "")
	assert.Equal(t, "anthropic", p.Name())
	assert.True(t, p.Available(context.Background()))
	assert.NoError(t, p.Close())
}

func TestConvertMessages(t *testing.T) {
	got, err := anthropic.ConvertMessages([]provider.Message{
		{Role: provider.MessageRoleUser, Content: "Please begin the interview."},
		{Role: provider.MessageRoleAssistant, Content: "Tell me about yourself."},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "user", string(got[0].Role))
	assert.Equal(t, "assistant", string(got[1].Role))

	_, err = anthropic.ConvertMessages([]provider.Message{{Role: "system", Content: "x"}})
	assert.True(t, apperr.IsInvalidInput(err))

	_, err = anthropic.ConvertMessages(nil)
	assert.True(t, apperr.IsInvalidInput(err))
}

func TestBuildParams(t *testing.T) {
	temp := float32(0.3)
	params, err := anthropic.BuildParams(provider.ChatRequest{
		Model:        "claude-sonnet-4-5",
		SystemPrompt: "You are an interviewer.",
		Messages:     []provider.Message{{Role: provider.MessageRoleUser, Content: "hi"}},
		Options:      provider.ChatOptions{Temperature: &temp, StopSequences: []string{"END"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-5", string(params.Model))
	assert.Equal(t, int64(4096), params.MaxTokens)
	require.Len(t, params.System, 1)
	assert.Equal(t, "You are an interviewer.", params.System[0].Text)
	assert.Equal(t, []string{"END"}, params.StopSequences)
}

func sse(w http.ResponseWriter, event string, data any) {
	b, _ := json.Marshal(data)
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, b)
}

func TestAnthropicProvider_ChatStreams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"stream":true`)
		assert.Contains(t, string(body), "You are an interviewer.")

		w.Header().Set("Content-Type", "text/event-stream")
		sse(w, "message_start", map[string]any{
			"type": "message_start",
			"message": map[string]any{
				"id": "msg_1", "type": "message", "role": "assistant", "content": []any{},
				"model": "claude-sonnet-4-5", "stop_reason": nil, "stop_sequence": nil,
				"usage": map[string]any{"input_tokens": 42, "output_tokens": 1},
			},
		})
		sse(w, "content_block_start", map[string]any{
			"type": "content_block_start", "index": 0,
			"content_block": map[string]any{"type": "text", "text": ""},
		})
		for _, part := range []string{"What drew you ", "to this role?"} {
			sse(w, "content_block_delta", map[string]any{
				"type": "content_block_delta", "index": 0,
				"delta": map[string]any{"type": "text_delta", "text": part},
			})
		}
		sse(w, "content_block_stop", map[string]any{"type": "content_block_stop", "index": 0})
		sse(w, "message_delta", map[string]any{
			"type":  "message_delta",
			"delta": map[string]any{"stop_reason": "end_turn", "stop_sequence": nil},
			"usage": map[string]any{"output_tokens": 7},
		})
		sse(w, "message_stop", map[string]any{"type": "message_stop"})
	}))
	defer srv.Close()

	p := mustNewProvider(t, srv.URL)
	ch, err := p.Chat(context.Background(), provider.ChatRequest{
		Model:        "claude-sonnet-4-5",
		SystemPrompt: "You are an interviewer.",
		Messages:     []provider.Message{{Role: provider.MessageRoleUser, Content: "Please begin."}},
	})
	require.NoError(t, err)

	text, usage, err := provider.Collect(context.Background(), ch)
	require.NoError(t, err)
	assert.Equal(t, "What drew you to this role?", text)
	require.NotNil(t, usage)
	assert.Equal(t, 42, usage.InputTokens)
	assert.Equal(t, 7, usage.OutputTokens)
	assert.True(t, p.HealthMetrics().Available)
}

func TestAnthropicProvider_ErrorClassification(t *testing.T) {
	tests := []struct {
		status      int
		want        apperr.Code
		wantHealthy bool
	}{
		{http.StatusTooManyRequests, apperr.CodeProviderRateLimited, true},
		{http.StatusUnauthorized, apperr.CodeProviderAuthUnauthorized, false},
		{http.StatusInternalServerError, apperr.CodeProviderUpstreamFailure, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.Copy(w, strings.NewReader(`{"type":"error","error":{"type":"api_error","message":"nope"}}`))
			}))
			defer srv.Close()

			p := mustNewProvider(t, srv.URL)
			ch, err := p.Chat(context.Background(), provider.ChatRequest{
				Model:    "claude-sonnet-4-5",
				Messages: []provider.Message{{Role: provider.MessageRoleUser, Content: "hi"}},
			})
			require.NoError(t, err)

			_, _, err = provider.Collect(context.Background(), ch)
			require.Error(t, err)
			assert.Equal(t, tt.want, apperr.CodeOf(err))
			assert.Equal(t, tt.wantHealthy, p.Available(context.Background()))
		})
	}
}

func mustNewProvider(t *testing.T, baseURL string) *anthropic.Provider {
	t.Helper()
	p, err := anthropic.New(anthropic.Config{APIKey: "test-key-not-real", BaseURL: baseURL})
	require.NoError(t, err)
	return p
}
