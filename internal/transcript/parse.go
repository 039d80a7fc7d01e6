// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package transcript

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/JNalv/interview-agent/internal/interview"
	apperr "github.com/JNalv/interview-agent/pkg/errors"
)

var reLabel = regexp.MustCompile(`^(Question|Answer) (\d+):$`)

// Document is a parsed transcript file.
type Document struct {
	Date      time.Time
	SessionID string
	Sections  []Section
}

// Turns returns the sections as role-tagged turns in file order.
func (d *Document) Turns() []interview.Turn {
	out := make([]interview.Turn, len(d.Sections))
	for i, s := range d.Sections {
		out[i] = interview.Turn{Role: s.Role, Text: s.Text}
	}
	return out
}

// Parse reads a rendered transcript back into ordered sections.
func Parse(text string) (*Document, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	first, last := -1, -1
	for i, l := range lines {
		if l == rule {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 || first == last {
		return nil, apperr.New(apperr.CodeTranscriptParseInvalid, "transcript rules not found")
	}
	if strings.TrimSpace(lines[0]) != title {
		return nil, apperr.New(apperr.CodeTranscriptParseInvalid, "missing transcript title")
	}

	doc := &Document{}
	for _, l := range lines[1:first] {
		switch {
		case strings.HasPrefix(l, "Date: "):
			if t, err := time.ParseInLocation(dateLayout, strings.TrimPrefix(l, "Date: "), time.Local); err == nil {
				doc.Date = t
			}
		case strings.HasPrefix(l, "Session: "):
			doc.SessionID = strings.TrimPrefix(l, "Session: ")
		}
	}

	sections, err := ParseBody(strings.Join(lines[first+1:last], "\n"))
	if err != nil {
		return nil, err
	}
	doc.Sections = sections
	return doc, nil
}

// ParseBody parses the section list produced by RenderBody. A label line
// only opens a section when it follows a blank line and is the next label
// the numbering allows. Escaped text lines are restored.
func ParseBody(body string) ([]Section, error) {
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")

	var (
		out     []Section
		cur     *Section
		buf     []string
		prevBlk = true
	)
	flush := func() {
		if cur == nil {
			return
		}
		cur.Text = trimSection(buf)
		out = append(out, *cur)
		cur, buf = nil, nil
	}

	for _, l := range lines {
		if m := reLabel.FindStringSubmatch(strings.TrimSpace(l)); m != nil && prevBlk {
			n, _ := strconv.Atoi(m[2])
			role := interview.RoleInterviewee
			if m[1] == "Question" {
				role = interview.RoleInterviewer
			}
			if cur == nil || nextLabel(cur, role, n) {
				flush()
				cur = &Section{Role: role, Number: n}
				prevBlk = false
				continue
			}
		}
		if cur == nil {
			if strings.TrimSpace(l) != "" {
				return nil, apperr.Errorf(apperr.CodeTranscriptParseInvalid, "text before first section: %q", l)
			}
			continue
		}
		buf = append(buf, l)
		prevBlk = strings.TrimSpace(l) == "" || strings.TrimSpace(l) == separator
	}
	flush()
	return out, nil
}

func nextLabel(cur *Section, role interview.Role, n int) bool {
	if role == interview.RoleInterviewer {
		return n == cur.Number+1 || (cur.Role == interview.RoleInterviewee && cur.Number == 1 && n == 1)
	}
	return n == cur.Number
}

// trimSection drops surrounding blank lines and the trailing separator,
// then unescapes the remaining lines.
func trimSection(lines []string) string {
	for len(lines) > 0 {
		last := strings.TrimSpace(lines[len(lines)-1])
		if last == "" || last == separator {
			lines = lines[:len(lines)-1]
			continue
		}
		break
	}
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for i, l := range lines {
		lines[i] = unescapeLine(l)
	}
	return strings.Join(lines, "\n")
}
