// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package speech

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/JNalv/interview-agent/pkg/executor"
	apperr "github.com/JNalv/interview-agent/pkg/errors"
)

// WhisperConfig locates and tunes the whisper.cpp command line tool.
type WhisperConfig struct {
	BinaryPath string
	// ModelPath points at a ggml model file. When empty, Model names a file
	// under ./models (e.g. "base" -> models/ggml-base.bin).
	ModelPath string
	Model     string
	Language  string
	Threads   int
	UseGPU    bool
	TempDir   string
}

// WhisperCLI transcribes by shelling out to whisper.cpp.
type WhisperCLI struct {
	cfg  WhisperConfig
	exec executor.Executor
}

// NewWhisperCLI returns a transcriber using exec to run the binary.
func NewWhisperCLI(cfg WhisperConfig, exec executor.Executor) *WhisperCLI {
	if cfg.BinaryPath == "" {
		cfg.BinaryPath = "whisper-cli"
	}
	if cfg.Model == "" {
		cfg.Model = "base"
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.Threads <= 0 {
		cfg.Threads = 4
	}
	if exec == nil {
		exec = executor.New()
	}
	return &WhisperCLI{cfg: cfg, exec: exec}
}

// ModelFile returns the ggml model the binary will load.
func (w *WhisperCLI) ModelFile() string {
	if w.cfg.ModelPath != "" {
		return w.cfg.ModelPath
	}
	return filepath.Join("models", "ggml-"+w.cfg.Model+".bin")
}

// Args builds the command line for one transcription.
func (w *WhisperCLI) Args(wavPath, outPrefix string) []string {
	args := []string{
		"-m", w.ModelFile(),
		"-f", wavPath,
		"-l", w.cfg.Language,
		"-t", strconv.Itoa(w.cfg.Threads),
		"-otxt",
		"-of", outPrefix,
		"-np",
	}
	if !w.cfg.UseGPU {
		args = append(args, "-ng")
	}
	return args
}

func (w *WhisperCLI) Transcribe(ctx context.Context, audio Audio) (string, error) {
	wav, err := EncodeWAV(audio)
	if err != nil {
		return "", err
	}

	dir, err := os.MkdirTemp(w.cfg.TempDir, "interview-stt-*")
	if err != nil {
		return "", apperr.Wrap(err, apperr.CodeSpeechTranscribeFailure, "creating temp dir")
	}
	defer os.RemoveAll(dir)

	wavPath := filepath.Join(dir, "answer.wav")
	if err := os.WriteFile(wavPath, wav, 0o600); err != nil {
		return "", apperr.Wrap(err, apperr.CodeSpeechTranscribeFailure, "writing temp audio")
	}

	prefix := filepath.Join(dir, "answer")
	start := time.Now()
	if _, err := w.exec.Execute(ctx, w.cfg.BinaryPath, w.Args(wavPath, prefix)...); err != nil {
		return "", apperr.Wrap(err, apperr.CodeSpeechTranscribeFailure, "running whisper",
			apperr.Field("binary", w.cfg.BinaryPath))
	}

	out, err := os.ReadFile(prefix + ".txt")
	if err != nil {
		return "", apperr.Wrap(err, apperr.CodeSpeechTranscribeFailure, "reading whisper output")
	}

	text := joinSegments(string(out))
	slog.Debug("whisper transcription finished",
		"audio", audio.Duration().String(),
		"elapsed", time.Since(start).String(),
		"chars", len(text),
	)
	if text == "" {
		return "", noSpeech("whisper")
	}
	return text, nil
}

// joinSegments flattens whisper's one-segment-per-line output.
func joinSegments(raw string) string {
	lines := strings.Split(raw, "\n")
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			parts = append(parts, l)
		}
	}
	return strings.Join(parts, " ")
}
