// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package transcript

import (
	"strings"
	"time"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"

	apperr "github.com/JNalv/interview-agent/pkg/errors"
)

const (
	fontName = "Times New Roman"
	fontSize = 12
)

// WriteDocx writes a Word companion of the transcript.
func WriteDocx(path, sessionID string, at time.Time, sections []Section) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return apperr.Wrap(err, apperr.CodeTranscriptWriteFailure, "creating docx document")
	}

	addRun(doc.AddParagraph(""), title, true, 16)
	addRun(doc.AddParagraph(""), "Date: "+at.Format(dateLayout), false, fontSize)
	if sessionID != "" {
		addRun(doc.AddParagraph(""), "Session: "+sessionID, false, fontSize)
	}
	doc.AddParagraph("")

	for _, s := range sections {
		addRun(doc.AddParagraph(""), s.Label(), true, fontSize)
		for _, line := range strings.Split(strings.TrimSpace(s.Text), "\n") {
			addRun(doc.AddParagraph(""), line, false, fontSize)
		}
		doc.AddParagraph("")
	}
	addRun(doc.AddParagraph(""), endMarker, false, fontSize)

	if err := doc.SaveTo(path); err != nil {
		return apperr.Wrap(err, apperr.CodeTranscriptWriteFailure, "saving docx transcript", apperr.FieldPath(path))
	}
	return nil
}

func addRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	run := p.AddText(text).Font(fontName).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}
