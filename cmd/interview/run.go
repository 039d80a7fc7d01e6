// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/JNalv/interview-agent/internal/agent"
	"github.com/JNalv/interview-agent/internal/config"
	"github.com/JNalv/interview-agent/internal/documents"
	"github.com/JNalv/interview-agent/internal/interview"
	"github.com/JNalv/interview-agent/internal/provider"
	"github.com/JNalv/interview-agent/internal/speech"
	"github.com/JNalv/interview-agent/internal/watcher"
	apperr "github.com/JNalv/interview-agent/pkg/errors"
)

const replHelp = `Type your answer and press enter. Commands:
  :wav <path>    answer with a recorded WAV file
  :status        show context usage
  :retry         ask again after a failed model call
  :end [name]    finish and export the transcript
  :help          show this help`

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an interactive interview",
		Long: "Load context documents and a persona, then alternate model questions with your answers. " +
			"The transcript is exported when you type :end.",
		Args: cobra.NoArgs,
		RunE: runInterview,
	}

	cmd.Flags().String("docs", "", "directory of context documents")
	cmd.Flags().String("prompt", "", "persona markdown file")
	cmd.Flags().StringP("model", "m", "", "provider/model override")
	cmd.Flags().String("inbox", "", "directory watched for recorded .wav answers")

	return cmd
}

func runInterview(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if dir, _ := cmd.Flags().GetString("docs"); dir != "" {
		cfg.Documents.Dir = dir
	}
	if path, _ := cmd.Flags().GetString("prompt"); path != "" {
		cfg.Prompt.Path = path
	}
	model, _ := cmd.Flags().GetString("model")
	inbox, _ := cmd.Flags().GetString("inbox")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	// A second interrupt during the final export falls through to the default handler.
	context.AfterFunc(ctx, stop)

	out := cmd.OutOrStdout()
	p := painter{color: stdinIsTerminal()}

	persona, err := agent.LoadPersona(cfg.Prompt.Path)
	if err != nil {
		return err
	}
	if model == "" {
		model = persona.Model
	}

	corpus, err := loadDocuments(ctx, cfg, out, p)
	if err != nil {
		return err
	}

	app, err := Wire(cfg, model)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	manager := app.NewManager()
	if err := manager.Initialize(persona.Prompt, corpus.Text, cfg.Budget.CapacityTokens); err != nil {
		return err
	}
	r := &repl{
		loop:    app.NewLoop(manager),
		manager: manager,
		health:  app.Registry.Health,
		out:     out,
		paint:   p,
		prompt:  p.color,
	}

	if inbox != "" {
		in, err := watcher.New(watcher.Config{Dir: inbox}, r.handleRecording)
		if err != nil {
			return err
		}
		defer func() { _ = in.Close() }()
		go func() {
			if err := in.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Warn("inbox watcher stopped", "error", err)
			}
		}()
		r.printf("%s\n", p.paint(dimStyle, "Watching "+inbox+" for recorded answers."))
	}

	return r.run(ctx, cmd.InOrStdin())
}

func loadDocuments(ctx context.Context, cfg *config.Config, out io.Writer, p painter) (documents.Corpus, error) {
	if cfg.Documents.Dir == "" {
		return documents.Corpus{}, nil
	}
	loader := documents.NewLoader(documents.NewExtractor(cfg.Documents.Extensions))
	corpus, err := loader.LoadDirectory(ctx, cfg.Documents.Dir)
	if err != nil {
		return documents.Corpus{}, err
	}
	for _, fe := range corpus.Errors {
		_, _ = fmt.Fprintln(out, p.paint(warnStyle, "skipped "+fe.Error()))
	}
	_, _ = fmt.Fprintln(out, p.paint(dimStyle, fmt.Sprintf("Loaded %d document(s) from %s", len(corpus.Files), cfg.Documents.Dir)))
	return corpus, nil
}

// repl reads answers and commands line by line. Output is serialized so the
// inbox watcher and the terminal do not interleave.
type repl struct {
	loop    *agent.Loop
	manager *interview.Manager
	health  func() []provider.HealthMetrics // optional
	out     io.Writer
	paint   painter
	prompt  bool

	mu    sync.Mutex
	ended bool
}

func (r *repl) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintf(r.out, format, args...)
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	r.printf("%s\n\n", r.paint.paint(dimStyle, replHelp))

	res, err := r.loop.Start(ctx)
	r.showTurn(res, err)

	// The reader goroutine may stay blocked on stdin after an interrupt;
	// done only stops it from delivering further lines.
	done := make(chan struct{})
	defer close(done)
	lines, scanErr := readLines(in, done)

	for !r.isEnded() {
		if r.prompt {
			r.printf("%s", r.paint.paint(promptStyle, "> "))
		}

		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
		case line, ok = <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return apperr.Wrap(err, apperr.CodeCLIInputInvalid, "reading input")
				}
			}
		}
		if !ok || ctx.Err() != nil {
			break
		}
		if r.handleLine(ctx, line) {
			return nil
		}
	}

	// Input closed or interrupted: export what we have.
	if !r.isEnded() {
		r.printf("\n")
		r.end(context.WithoutCancel(ctx), "")
	}
	return nil
}

// readLines scans in on its own goroutine. lines is closed at EOF, after
// the scan error (possibly nil) has been sent on errc.
func readLines(in io.Reader, done <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		errc <- scanner.Err()
	}()
	return lines, errc
}

// handleLine processes one input line and reports whether the interview is over.
func (r *repl) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, ":") {
		if line == "" {
			return false
		}
		res, err := r.loop.Answer(ctx, line)
		r.showTurn(res, err)
		return false
	}

	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch command {
	case ":end", ":quit":
		return r.end(ctx, arg)
	case ":status":
		st, err := r.manager.BudgetStatus()
		if err != nil {
			r.showError(err)
			return false
		}
		r.printf("%s\n", r.paint.budgetLine(st))
		if r.health != nil {
			for _, m := range r.health() {
				r.printf("  %s\n", r.paint.paint(dimStyle, m.Summary()))
			}
		}
	case ":retry":
		res, err := r.loop.Retry(ctx)
		r.showTurn(res, err)
	case ":wav":
		if arg == "" {
			r.printf("usage: :wav <path>\n")
			return false
		}
		_ = r.handleRecording(ctx, arg)
	case ":help":
		r.printf("%s\n", replHelp)
	default:
		r.printf("unknown command %s (try :help)\n", command)
	}
	return false
}

// handleRecording transcribes a WAV file as the next answer.
func (r *repl) handleRecording(ctx context.Context, path string) error {
	audio, err := speech.ReadWAVFile(path)
	if err != nil {
		r.showError(err)
		return err
	}
	r.printf("%s\n", r.paint.paint(dimStyle, "Transcribing "+path+"..."))
	res, err := r.loop.AnswerAudio(ctx, audio)
	r.showTurn(res, err)
	return err
}

func (r *repl) end(ctx context.Context, name string) bool {
	res, err := r.loop.End(ctx, name)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeInterviewEnded) {
			r.setEnded()
			return true
		}
		r.showError(err)
		return false
	}
	r.setEnded()

	r.printf("\nInterview ended. %s\n", r.paint.budgetLine(res.Status))
	r.printf("Transcript (%s cleaning): %s\n", res.Transcript.Mode, res.Transcript.Path)
	if res.Transcript.DocxPath != "" {
		r.printf("Word document: %s\n", res.Transcript.DocxPath)
	}
	if res.Archived {
		r.printf("%s\n", r.paint.paint(dimStyle, "Session archived; see: interview sessions list"))
	}
	return true
}

func (r *repl) showTurn(res *agent.TurnResult, err error) {
	if err != nil {
		r.showError(err)
		return
	}
	if res.Answer != "" {
		r.printf("%s %s\n", r.paint.paint(dimStyle, "You:"), res.Answer)
	}
	r.printf("\n%s %s\n%s\n\n",
		r.paint.paint(questionStyle, "Interviewer:"), res.Question, r.paint.budgetLine(res.Status))
}

func (r *repl) showError(err error) {
	msg := err.Error()
	switch {
	case apperr.IsRateLimited(err):
		msg = "Rate limited by the model provider. Wait a moment, then type :retry."
	case apperr.IsUnauthorized(err):
		msg = "The model provider rejected the API key. Check it with: interview secret set --check <provider>"
	case apperr.HasCode(err, apperr.CodeAnswerEmpty):
		msg = "No speech detected. Please try again."
	case r.loop.Pending():
		msg += " (type :retry to ask again)"
	}
	r.printf("%s\n", r.paint.paint(errorStyle, msg))
}

func (r *repl) isEnded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ended
}

func (r *repl) setEnded() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ended = true
}
