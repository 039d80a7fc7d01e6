// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package transcript

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/JNalv/interview-agent/internal/interview"
	apperr "github.com/JNalv/interview-agent/pkg/errors"
)

// CleanMode selects how answers are tidied before export.
type CleanMode string

const (
	CleanNone   CleanMode = "none"
	CleanFiller CleanMode = "filler"
	CleanLLM    CleanMode = "llm"
)

// Valid reports whether m is a known mode.
func (m CleanMode) Valid() bool {
	switch m {
	case CleanNone, CleanFiller, CleanLLM:
		return true
	}
	return false
}

// Completer runs a one-off prompt against the model.
type Completer interface {
	Complete(ctx context.Context, system, user string, maxTokens int) (string, error)
}

const editorPrompt = `You are a transcript editor. Review the following interview transcript and:
1. Fix transcription errors such as homophones and misheard words.
2. Remove filler words like "um" and "uh" but keep the natural flow.
3. Fix obvious grammar errors while keeping the speaker's voice and meaning.

Keep every "Question N:" and "Answer N:" label and the "---" separators exactly as given.
Lines that start with a backslash are ordinary text; keep the backslash.
Do not add, remove, merge or reorder sections. Return only the cleaned transcript.`

var (
	reFiller     = regexp.MustCompile(`(?i)(^|[\s,.;!?])(?:um+|uh+|erm+|hmm+)(?:[,.]|\.\.\.)?(?:$|[\s])`)
	reSpaces     = regexp.MustCompile(`[ \t]{2,}`)
	reSpacePunct = regexp.MustCompile(`\s+([,.;!?])`)
	reLeadPunct  = regexp.MustCompile(`^[,;]\s*`)
)

// StripFillers removes standalone filler words and tidies spacing.
// Line breaks are kept. A line that opened with a filler is re-capitalised.
func StripFillers(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		loc := reFiller.FindStringIndex(line)
		leading := loc != nil && loc[0] == 0
		// Matches share delimiters, so repeat until stable.
		for {
			next := reFiller.ReplaceAllString(line, "$1 ")
			if next == line {
				break
			}
			line = next
		}
		line = reSpaces.ReplaceAllString(line, " ")
		line = reSpacePunct.ReplaceAllString(line, "$1")
		line = strings.TrimSpace(line)
		line = reLeadPunct.ReplaceAllString(line, "")
		if leading {
			line = capitalizeFirst(line)
		}
		lines[i] = line
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// capitalizeFirst upper-cases a leading ASCII letter unless the word is
// already mixed case ("iPhone", "eBay").
func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if len(r) > 1 && unicode.IsUpper(r[1]) {
		return s
	}
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}

// Cleaner applies a CleanMode to a copy of the turns.
type Cleaner struct {
	completer Completer
	maxTokens int
}

// NewCleaner creates a Cleaner. completer may be nil when only none and
// filler modes are used.
func NewCleaner(completer Completer, maxTokens int) *Cleaner {
	if maxTokens <= 0 {
		maxTokens = 8000
	}
	return &Cleaner{completer: completer, maxTokens: maxTokens}
}

// Clean returns cleaned copies of turns and the mode actually applied.
// The turn count and order never change; an LLM result that does not
// preserve them is discarded in favour of filler cleaning.
func (c *Cleaner) Clean(ctx context.Context, turns []interview.Turn, mode CleanMode) ([]interview.Turn, CleanMode, error) {
	out := make([]interview.Turn, len(turns))
	copy(out, turns)

	switch mode {
	case "", CleanNone:
		return out, CleanNone, nil
	case CleanFiller:
		return fillerClean(out), CleanFiller, nil
	case CleanLLM:
		cleaned, err := c.llmClean(ctx, out)
		if err != nil {
			slog.Warn("llm transcript cleanup failed, using filler cleanup", "error", err)
			return fillerClean(out), CleanFiller, nil
		}
		return cleaned, CleanLLM, nil
	}
	return nil, "", apperr.Errorf(apperr.CodeConfigValidateInvalidValue, "unknown clean mode %q", mode)
}

// fillerClean only touches interviewee turns; questions are model output.
func fillerClean(turns []interview.Turn) []interview.Turn {
	for i := range turns {
		if turns[i].Role == interview.RoleInterviewee {
			turns[i].Text = StripFillers(turns[i].Text)
		}
	}
	return turns
}

func (c *Cleaner) llmClean(ctx context.Context, turns []interview.Turn) ([]interview.Turn, error) {
	if c.completer == nil {
		return nil, apperr.New(apperr.CodeProviderRequestInvalid, "no model configured for cleanup")
	}
	if len(turns) == 0 {
		return turns, nil
	}

	want := Sections(turns)
	reply, err := c.completer.Complete(ctx, editorPrompt,
		"Please clean up this transcript:\n\n"+RenderBody(want), c.maxTokens)
	if err != nil {
		return nil, err
	}

	got, err := ParseBody(strings.TrimSpace(reply))
	if err != nil {
		return nil, err
	}
	if len(got) != len(want) {
		return nil, apperr.Errorf(apperr.CodeProviderResponseInvalid,
			"cleanup returned %d sections, expected %d", len(got), len(want))
	}
	for i := range got {
		if got[i].Role != want[i].Role {
			return nil, apperr.Errorf(apperr.CodeProviderResponseInvalid,
				"cleanup changed the role of section %d", i+1)
		}
		turns[i].Text = got[i].Text
	}
	return turns, nil
}
