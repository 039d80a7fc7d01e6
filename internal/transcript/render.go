// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

// Package transcript renders, cleans, exports and re-parses interview
// transcripts. Nothing here mutates a live session.
package transcript

import (
	"strconv"
	"strings"
	"time"

	"github.com/JNalv/interview-agent/internal/interview"
)

const (
	title      = "INTERVIEW TRANSCRIPT"
	endMarker  = "[End of Interview]"
	separator  = "---"
	escapeChar = `\`
	dateLayout = "2006-01-02 15:04:05"
)

var rule = strings.Repeat("=", 50)

// Section is one role-labelled block of a transcript.
type Section struct {
	Role   interview.Role
	Number int
	Text   string
}

// Sections labels turns in order. Interviewer turns are numbered questions;
// an interviewee turn carries the number of the question it answers.
func Sections(turns []interview.Turn) []Section {
	out := make([]Section, 0, len(turns))
	q := 0
	for _, t := range turns {
		if t.Role == interview.RoleInterviewer {
			q++
		}
		out = append(out, Section{Role: t.Role, Number: max(q, 1), Text: t.Text})
	}
	return out
}

// Label is the header line of a section, e.g. "Question 2:".
func (s Section) Label() string {
	word := "Answer"
	if s.Role == interview.RoleInterviewer {
		word = "Question"
	}
	return word + " " + strconv.Itoa(s.Number) + ":"
}

// RenderBody renders the sections without header or footer.
func RenderBody(sections []Section) string {
	var sb strings.Builder
	for i, s := range sections {
		if i > 0 && s.Role == interview.RoleInterviewer {
			sb.WriteString(separator + "\n\n")
		}
		sb.WriteString(s.Label())
		sb.WriteByte('\n')
		for _, line := range strings.Split(strings.TrimSpace(s.Text), "\n") {
			sb.WriteString(escapeLine(line))
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// escapeLine prefixes text lines that would read as structure (labels,
// separators, rules) or that already start with the escape character.
func escapeLine(line string) string {
	t := strings.TrimSpace(line)
	if strings.HasPrefix(line, escapeChar) || reLabel.MatchString(t) || t == separator || t == rule {
		return escapeChar + line
	}
	return line
}

func unescapeLine(line string) string {
	return strings.TrimPrefix(line, escapeChar)
}

// Render produces the full transcript file content.
func Render(snap interview.Snapshot, at time.Time) string {
	return render(snap.ID, at, Sections(snap.Turns))
}

func render(sessionID string, at time.Time, sections []Section) string {
	var sb strings.Builder
	sb.WriteString(title + "\n")
	sb.WriteString("Date: " + at.Format(dateLayout) + "\n")
	if sessionID != "" {
		sb.WriteString("Session: " + sessionID + "\n")
	}
	sb.WriteString("\n" + rule + "\n\n")
	sb.WriteString(RenderBody(sections))
	sb.WriteString(rule + "\n")
	sb.WriteString(endMarker + "\n")
	return sb.String()
}
