// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package agent_test

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/JNalv/interview-agent/internal/interview"
	"github.com/JNalv/interview-agent/internal/provider"
	"github.com/JNalv/interview-agent/internal/speech"
	"github.com/JNalv/interview-agent/internal/store"
	"github.com/JNalv/interview-agent/internal/transcript"
	apperr "github.com/JNalv/interview-agent/pkg/errors"
	"github.com/stretchr/testify/require"
)

// mockProvider streams a fixed reply or fails with err.
type mockProvider struct {
	name  string
	reply string
	err   error

	mu       sync.Mutex
	calls    int
	failures int
	requests []provider.ChatRequest
}

func (p *mockProvider) Name() string { return p.name }
func (p *mockProvider) Available(_ context.Context) bool { return true }
func (p *mockProvider) Close() error { return nil }
func (p *mockProvider) RecordSuccess() {}
func (p *mockProvider) HealthMetrics() provider.HealthMetrics { return provider.HealthMetrics{Provider: p.name} }

func (p *mockProvider) RecordFailure() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures++
}

func (p *mockProvider) Chat(_ context.Context, req provider.ChatRequest) (<-chan provider.ChatEvent, error) {
	p.mu.Lock()
	p.calls++
	p.requests = append(p.requests, req)
	p.mu.Unlock()

	ch := make(chan provider.ChatEvent, 3)
	if p.err != nil {
		ch <- provider.ChatEvent{Type: provider.EventTypeError, Err: p.err}
		close(ch)
		return ch, nil
	}
	ch <- provider.ChatEvent{Type: provider.EventTypeTextDelta, Text: p.reply}
	ch <- provider.ChatEvent{Type: provider.EventTypeUsage, Usage: &provider.Usage{InputTokens: 10, OutputTokens: 5}}
	ch <- provider.ChatEvent{Type: provider.EventTypeDone}
	close(ch)
	return ch, nil
}

func (p *mockProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// mockRouter hands out providers in order, skipping excluded names.
type mockRouter struct {
	providers []*mockProvider
}

func (r *mockRouter) Route(_ context.Context, modelRef string, exclude []string) (provider.Provider, string, error) {
	for _, p := range r.providers {
		if slices.Contains(exclude, p.name) {
			continue
		}
		return p, "model-" + p.name, nil
	}
	return nil, "", apperr.New(apperr.CodeProviderAllUnavailable, "no providers left")
}

func (r *mockRouter) MaxAttempts() int { return len(r.providers) }

// scriptedAsker returns queued replies and errors in order.
type scriptedAsker struct {
	mu       sync.Mutex
	steps    []askStep
	payloads []interview.Payload
}

type askStep struct {
	text string
	err  error
}

func (a *scriptedAsker) NextTurn(_ context.Context, payload interview.Payload) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.payloads = append(a.payloads, payload)
	if len(a.steps) == 0 {
		return "Anything else you would like to add?", nil
	}
	s := a.steps[0]
	a.steps = a.steps[1:]
	return s.text, s.err
}

func (a *scriptedAsker) queue(steps ...askStep) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.steps = append(a.steps, steps...)
}

func rateLimited() error {
	return apperr.New(apperr.CodeProviderRateLimited, "429 too many requests")
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ speech.Audio) (string, error) {
	return f.text, f.err
}

type fakeExporter struct {
	err   error
	snaps []interview.Snapshot
	names []string
}

func (e *fakeExporter) Export(_ context.Context, snap interview.Snapshot, name string) (*transcript.Result, error) {
	e.snaps = append(e.snaps, snap)
	e.names = append(e.names, name)
	if e.err != nil {
		return nil, e.err
	}
	return &transcript.Result{Path: "/tmp/interview_transcript.txt", Mode: transcript.CleanNone}, nil
}

type fakeArchiver struct {
	err     error
	records []*store.SessionRecord
}

func (a *fakeArchiver) Archive(_ context.Context, rec *store.SessionRecord) error {
	a.records = append(a.records, rec)
	return a.err
}

// sleepRecorder replaces real waits in backoff tests.
type sleepRecorder struct {
	waits []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return nil
}

func newManager(t *testing.T) *interview.Manager {
	t.Helper()
	m := interview.NewManager()
	require.NoError(t, m.Initialize("You are an interviewer.", "Resume: Go developer.", 10000))
	return m
}
