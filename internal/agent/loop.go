// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package agent

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/JNalv/interview-agent/internal/interview"
	"github.com/JNalv/interview-agent/internal/speech"
	"github.com/JNalv/interview-agent/internal/store"
	"github.com/JNalv/interview-agent/internal/transcript"
	apperr "github.com/JNalv/interview-agent/pkg/errors"
)

const (
	defaultMaxAttempts = 3
	defaultBackoff     = time.Second
)

// Asker produces the interviewer's next utterance from a request payload.
type Asker interface {
	NextTurn(ctx context.Context, payload interview.Payload) (string, error)
}

// Exporter writes the finished transcript.
type Exporter interface {
	Export(ctx context.Context, snap interview.Snapshot, name string) (*transcript.Result, error)
}

// Archiver persists finished sessions.
type Archiver interface {
	Archive(ctx context.Context, rec *store.SessionRecord) error
}

// LoopHooks provides optional test hooks for each pipeline stage.
type LoopHooks struct {
	OnPrepare func()
	OnCallLLM func()
	OnAppend  func(interview.Role, interview.BudgetStatus)
	OnBackoff func(attempt int, wait time.Duration)
}

// LoopConfig holds dependencies for the Loop.
type LoopConfig struct {
	Manager     *interview.Manager
	Asker       Asker
	Transcriber speech.Transcriber // optional
	Exporter    Exporter
	Archiver    Archiver // optional
	// Model is recorded in the archive.
	Model string

	// MaxAttempts bounds rate-limit retries of a single question.
	MaxAttempts int
	// Backoff is the first wait; each retry doubles it.
	Backoff time.Duration
	Sleep   func(ctx context.Context, d time.Duration) error
	Hooks   *LoopHooks
}

// TurnResult is what the caller shows after each step.
type TurnResult struct {
	Question string
	Answer   string
	Status   interview.BudgetStatus
}

// EndResult describes a finished interview.
type EndResult struct {
	Transcript *transcript.Result
	Archived   bool
	Status     interview.BudgetStatus
}

// Loop drives one interview: ask, answer, ask again, and finally export.
// Calls are serialized; only one turn is in flight at a time.
type Loop struct {
	mu sync.Mutex

	manager     *interview.Manager
	asker       Asker
	transcriber speech.Transcriber
	exporter    Exporter
	archiver    Archiver
	model       string
	maxAttempts int
	backoff     time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	hooks       *LoopHooks

	started bool
	ended   bool
	// awaiting is set when the last driver call failed and a question is owed.
	awaiting bool
}

// NewLoop creates a Loop with the given dependencies.
func NewLoop(cfg LoopConfig) *Loop {
	l := &Loop{
		manager:     cfg.Manager,
		asker:       cfg.Asker,
		transcriber: cfg.Transcriber,
		exporter:    cfg.Exporter,
		archiver:    cfg.Archiver,
		model:       cfg.Model,
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.Backoff,
		sleep:       cfg.Sleep,
		hooks:       cfg.Hooks,
	}
	if l.maxAttempts <= 0 {
		l.maxAttempts = defaultMaxAttempts
	}
	if l.backoff <= 0 {
		l.backoff = defaultBackoff
	}
	if l.sleep == nil {
		l.sleep = sleepCtx
	}
	return l
}

// Start asks the opening question.
func (l *Loop) Start(ctx context.Context) (*TurnResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ended {
		return nil, apperr.New(apperr.CodeInterviewEnded, "interview already ended")
	}
	if l.started {
		return nil, apperr.New(apperr.CodeSessionAlreadyStarted, "interview already started")
	}
	if !l.manager.Initialized() {
		return nil, apperr.New(apperr.CodeSessionNotInitialized, "session not initialized")
	}

	l.started = true
	l.awaiting = true
	return l.ask(ctx)
}

// Answer records the interviewee's reply and asks the next question.
// If the model call fails, the answer stays recorded and Retry asks again.
func (l *Loop) Answer(ctx context.Context, text string) (*TurnResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkAnswerable(); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.New(apperr.CodeAnswerEmpty, "no speech detected")
	}
	return l.answer(ctx, text)
}

// AnswerAudio transcribes audio and records it as the answer. A failed
// transcription records nothing.
func (l *Loop) AnswerAudio(ctx context.Context, audio speech.Audio) (*TurnResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkAnswerable(); err != nil {
		return nil, err
	}
	if l.transcriber == nil {
		return nil, apperr.New(apperr.CodeTranscriberMissing, "no transcription backend configured")
	}

	text, err := l.transcriber.Transcribe(ctx, audio)
	if speech.IsNoSpeech(err) {
		return nil, apperr.New(apperr.CodeAnswerEmpty, "no speech detected")
	}
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.New(apperr.CodeAnswerEmpty, "no speech detected")
	}
	return l.answer(ctx, text)
}

// Retry re-asks the model after a failed Start or Answer.
func (l *Loop) Retry(ctx context.Context) (*TurnResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ended {
		return nil, apperr.New(apperr.CodeInterviewEnded, "interview already ended")
	}
	if !l.awaiting {
		return nil, apperr.New(apperr.CodeNothingToRetry, "no failed question to retry")
	}
	return l.ask(ctx)
}

// Pending reports whether a question is owed after a failed model call.
func (l *Loop) Pending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.awaiting
}

// End exports the transcript and archives the session. A failed export
// leaves the interview open so End can be called again.
func (l *Loop) End(ctx context.Context, name string) (*EndResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ended {
		return nil, apperr.New(apperr.CodeInterviewEnded, "interview already ended")
	}
	if !l.started {
		return nil, apperr.New(apperr.CodeInterviewNotStarted, "interview not started")
	}

	snap, err := l.manager.Snapshot()
	if err != nil {
		return nil, err
	}
	status, err := l.manager.BudgetStatus()
	if err != nil {
		return nil, err
	}

	res, err := l.exporter.Export(ctx, snap, name)
	if err != nil {
		return nil, err
	}
	l.ended = true

	out := &EndResult{Transcript: res, Status: status}
	if l.archiver != nil {
		rec := store.RecordFromSnapshot(snap, l.model, res.Path, time.Now())
		if err := l.archiver.Archive(ctx, rec); err != nil {
			// The transcript is on disk; a missing archive entry is not fatal.
			slog.Warn("archiving interview failed", "session_id", snap.ID, "error", err)
		} else {
			out.Archived = true
		}
	}

	slog.Info("interview ended",
		"session_id", snap.ID,
		"turns", len(snap.Turns),
		"tokens", snap.TotalTokens,
		"transcript", res.Path,
	)
	return out, nil
}

// caller holds l.mu
func (l *Loop) checkAnswerable() error {
	switch {
	case l.ended:
		return apperr.New(apperr.CodeInterviewEnded, "interview already ended")
	case !l.started:
		return apperr.New(apperr.CodeInterviewNotStarted, "interview not started")
	case l.awaiting:
		return apperr.New(apperr.CodeQuestionPending, "the last question failed; retry before answering")
	}
	return nil
}

// caller holds l.mu
func (l *Loop) answer(ctx context.Context, text string) (*TurnResult, error) {
	status, err := l.manager.AppendTurn(interview.RoleInterviewee, text)
	if err != nil {
		return nil, err
	}
	l.fireAppend(interview.RoleInterviewee, status)
	l.awaiting = true

	res, err := l.ask(ctx)
	if err != nil {
		return nil, err
	}
	res.Answer = text
	return res, nil
}

// ask calls the model with rate-limit backoff and appends its question.
// caller holds l.mu
func (l *Loop) ask(ctx context.Context) (*TurnResult, error) {
	payload, err := l.manager.BuildRequestPayload()
	if err != nil {
		return nil, err
	}
	if l.hooks != nil && l.hooks.OnPrepare != nil {
		l.hooks.OnPrepare()
	}

	var question string
	for attempt := 1; ; attempt++ {
		question, err = l.asker.NextTurn(ctx, payload)
		if err == nil {
			break
		}
		if !apperr.IsRateLimited(err) {
			return nil, err
		}
		if attempt >= l.maxAttempts {
			return nil, apperr.With(err, apperr.Field("attempts", attempt))
		}

		wait := l.backoff << (attempt - 1)
		slog.Warn("rate limited, backing off", "attempt", attempt, "wait", wait)
		if l.hooks != nil && l.hooks.OnBackoff != nil {
			l.hooks.OnBackoff(attempt, wait)
		}
		if serr := l.sleep(ctx, wait); serr != nil {
			return nil, apperr.Wrap(serr, apperr.CodeProviderUpstreamFailure, "waiting to retry")
		}
	}
	if l.hooks != nil && l.hooks.OnCallLLM != nil {
		l.hooks.OnCallLLM()
	}

	status, err := l.manager.AppendTurn(interview.RoleInterviewer, question)
	if err != nil {
		return nil, err
	}
	l.awaiting = false
	l.fireAppend(interview.RoleInterviewer, status)

	return &TurnResult{Question: question, Status: status}, nil
}

func (l *Loop) fireAppend(role interview.Role, status interview.BudgetStatus) {
	if l.hooks != nil && l.hooks.OnAppend != nil {
		l.hooks.OnAppend(role, status)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
