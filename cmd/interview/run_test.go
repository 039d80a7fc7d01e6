// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JNalv/interview-agent/internal/agent"
	"github.com/JNalv/interview-agent/internal/interview"
	"github.com/JNalv/interview-agent/internal/provider"
	"github.com/JNalv/interview-agent/internal/transcript"
	apperr "github.com/JNalv/interview-agent/pkg/errors"
)

// cannedAsker returns its questions in order, then repeats the last one.
type cannedAsker struct {
	mu        sync.Mutex
	questions []string
	fail      error
	calls     int
}

func (a *cannedAsker) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func (a *cannedAsker) NextTurn(_ context.Context, _ interview.Payload) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail != nil {
		err := a.fail
		a.fail = nil
		return "", err
	}
	q := a.questions[min(a.calls, len(a.questions)-1)]
	a.calls++
	return q, nil
}

func newTestREPL(t *testing.T, asker agent.Asker) (*repl, *bytes.Buffer, string) {
	t.Helper()
	outDir := t.TempDir()

	m := interview.NewManager()
	require.NoError(t, m.Initialize("You are a careful interviewer.", "", 10000))

	loop := agent.NewLoop(agent.LoopConfig{
		Manager: m,
		Asker:   asker,
		Exporter: transcript.NewExporter(transcript.ExporterConfig{
			OutputDir: outDir,
			Clean:     transcript.CleanFiller,
		}),
		MaxAttempts: 1,
	})

	buf := new(bytes.Buffer)
	return &repl{loop: loop, manager: m, out: buf}, buf, outDir
}

func TestREPL_Conversation(t *testing.T) {
	asker := &cannedAsker{questions: []string{"What brought you to robotics?", "Which arm came first?"}}
	r, out, dir := newTestREPL(t, asker)

	input := "I like robots, um, mostly arms.\n:status\n:bogus\n:end robotics\n"
	require.NoError(t, r.run(context.Background(), strings.NewReader(input)))

	got := out.String()
	assert.Contains(t, got, "Interviewer: What brought you to robotics?")
	assert.Contains(t, got, "You: I like robots, um, mostly arms.")
	assert.Contains(t, got, "Interviewer: Which arm came first?")
	assert.Contains(t, got, "[context ")
	assert.Contains(t, got, "unknown command :bogus")
	assert.Contains(t, got, "Interview ended.")
	assert.Contains(t, got, "Transcript (filler cleaning): "+filepath.Join(dir, "robotics.txt"))

	data, err := os.ReadFile(filepath.Join(dir, "robotics.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Answer 1:\nI like robots, mostly arms.\n")
	assert.Contains(t, string(data), "Question 2:\nWhich arm came first?\n")
	assert.True(t, r.isEnded())
}

func TestREPL_EOFExports(t *testing.T) {
	r, out, dir := newTestREPL(t, &cannedAsker{questions: []string{"Tell me about your first job."}})

	require.NoError(t, r.run(context.Background(), strings.NewReader("Bakery.\n")))

	assert.Contains(t, out.String(), "Interview ended.")
	matches, err := filepath.Glob(filepath.Join(dir, "interview_transcript_*.txt"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestREPL_InterruptWhileWaitingForInput(t *testing.T) {
	asker := &cannedAsker{questions: []string{"What brought you here?"}}
	r, out, dir := newTestREPL(t, asker)

	// Nothing is ever written, so reads block like an idle terminal.
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- r.run(ctx, pr) }()

	require.Eventually(t, func() bool { return asker.callCount() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after cancellation")
	}

	assert.True(t, r.isEnded())
	assert.Contains(t, out.String(), "Interview ended.")
	matches, err := filepath.Glob(filepath.Join(dir, "interview_transcript_*.txt"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestREPL_RetryWithNothingPending(t *testing.T) {
	r, out, _ := newTestREPL(t, &cannedAsker{questions: []string{"Opening question?"}})

	require.NoError(t, r.run(context.Background(), strings.NewReader(":retry\n")))
	assert.Contains(t, out.String(), "no failed question to retry")
}

func TestREPL_RetryAfterFailure(t *testing.T) {
	r, out, _ := newTestREPL(t, &cannedAsker{
		questions: []string{"Opening question?"},
		fail:      apperr.New(apperr.CodeProviderUpstreamFailure, "upstream exploded"),
	})

	require.NoError(t, r.run(context.Background(), strings.NewReader(":retry\n:end\n")))
	got := out.String()
	assert.Contains(t, got, "upstream exploded (type :retry to ask again)")
	assert.Contains(t, got, "Interviewer: Opening question?")
	assert.Contains(t, got, "Interview ended.")
}

func TestREPL_StatusShowsProviderHealth(t *testing.T) {
	r, out, _ := newTestREPL(t, &cannedAsker{questions: []string{"Q?"}})
	r.health = func() []provider.HealthMetrics {
		return []provider.HealthMetrics{{Provider: "anthropic", Available: true}}
	}

	_ = r.handleLine(context.Background(), ":status")
	assert.Contains(t, out.String(), "anthropic: available")
}

func TestREPL_WavUsage(t *testing.T) {
	r, out, _ := newTestREPL(t, &cannedAsker{questions: []string{"Q?"}})

	done := r.handleLine(context.Background(), ":wav")
	assert.False(t, done)
	assert.Contains(t, out.String(), "usage: :wav <path>")

	_ = r.handleLine(context.Background(), ":help")
	assert.Contains(t, out.String(), ":end [name]")
}
