// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

// Package speech converts recorded answers into text. Backends are a local
// whisper.cpp binary or the OpenAI audio transcription API.
package speech

import (
	"context"
	"errors"
)

// Transcriber turns audio into text. Failures carry the
// speech.transcribe.failure code, or speech.audio.invalid_input for audio
// that cannot be encoded.
type Transcriber interface {
	Transcribe(ctx context.Context, audio Audio) (string, error)
}

// ErrNoSpeech is wrapped when a backend produced no text.
var ErrNoSpeech = errNoSpeech

// IsNoSpeech reports whether err means the recording held no words.
func IsNoSpeech(err error) bool {
	return errors.Is(err, errNoSpeech)
}
