// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package transcript

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JNalv/interview-agent/internal/interview"
	apperr "github.com/JNalv/interview-agent/pkg/errors"
)

// ExporterConfig configures an Exporter.
type ExporterConfig struct {
	OutputDir string
	Clean     CleanMode
	Cleaner   *Cleaner
	Docx      bool
	Now       func() time.Time
}

// Exporter writes transcripts to disk.
type Exporter struct {
	dir     string
	mode    CleanMode
	cleaner *Cleaner
	docx    bool
	now     func() time.Time
}

// Result describes an exported transcript.
type Result struct {
	Path     string
	DocxPath string
	Mode     CleanMode
	Text     string
}

// NewExporter creates an Exporter.
func NewExporter(cfg ExporterConfig) *Exporter {
	e := &Exporter{
		dir:     cfg.OutputDir,
		mode:    cfg.Clean,
		cleaner: cfg.Cleaner,
		docx:    cfg.Docx,
		now:     cfg.Now,
	}
	if e.dir == "" {
		e.dir = "."
	}
	if e.cleaner == nil {
		e.cleaner = NewCleaner(nil, 0)
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// FileName returns the default transcript name for t.
func FileName(t time.Time) string {
	return "interview_transcript_" + t.Format("20060102_150405") + ".txt"
}

// Export cleans a copy of the snapshot and writes it. An empty name uses
// the timestamped default; a custom name gains ".txt" when missing.
func (e *Exporter) Export(ctx context.Context, snap interview.Snapshot, name string) (*Result, error) {
	at := e.now()

	turns, mode, err := e.cleaner.Clean(ctx, snap.Turns, e.mode)
	if err != nil {
		return nil, err
	}
	snap.Turns = turns
	text := Render(snap, at)

	if name == "" {
		name = FileName(at)
	} else if !strings.HasSuffix(name, ".txt") {
		name += ".txt"
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeTranscriptWriteFailure, "creating output directory",
			apperr.FieldPath(e.dir))
	}
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeTranscriptWriteFailure, "writing transcript",
			apperr.FieldPath(path))
	}

	res := &Result{Path: path, Mode: mode, Text: text}
	if e.docx {
		docxPath := strings.TrimSuffix(path, ".txt") + ".docx"
		if err := WriteDocx(docxPath, snap.ID, at, Sections(turns)); err != nil {
			return nil, err
		}
		res.DocxPath = docxPath
	}

	slog.Info("transcript exported",
		"session_id", snap.ID,
		"path", path,
		"clean", mode,
		"sections", len(turns),
	)
	return res, nil
}
