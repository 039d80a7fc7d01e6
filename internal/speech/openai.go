// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package speech

import (
	"bytes"
	"context"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	apperr "github.com/JNalv/interview-agent/pkg/errors"
)

// OpenAIConfig configures the hosted transcription backend.
type OpenAIConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
}

// OpenAITranscriber uploads recordings to the audio transcription endpoint.
type OpenAITranscriber struct {
	client openaisdk.Client
	cfg    OpenAIConfig
}

// NewOpenAI returns a hosted transcriber. The API key is required.
func NewOpenAI(cfg OpenAIConfig) (*OpenAITranscriber, error) {
	if cfg.APIKey == "" {
		return nil, apperr.New(apperr.CodeConfigValidateInvalidValue, "openai transcription: missing api_key")
	}
	if cfg.Model == "" {
		cfg.Model = string(openaisdk.AudioModelWhisper1)
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAITranscriber{client: openaisdk.NewClient(opts...), cfg: cfg}, nil
}

func (o *OpenAITranscriber) Transcribe(ctx context.Context, audio Audio) (string, error) {
	wav, err := EncodeWAV(audio)
	if err != nil {
		return "", err
	}

	params := openaisdk.AudioTranscriptionNewParams{
		File:  openaisdk.File(bytes.NewReader(wav), "answer.wav", "audio/wav"),
		Model: openaisdk.AudioModel(o.cfg.Model),
	}
	if o.cfg.Language != "" {
		params.Language = openaisdk.String(o.cfg.Language)
	}

	resp, err := o.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", apperr.Wrap(err, apperr.CodeSpeechTranscribeFailure, "openai transcription request")
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", noSpeech("openai")
	}
	return text, nil
}
