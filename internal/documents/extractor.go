// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

// Package documents turns reference files (plain text, markdown, PDF and
// Word documents) into plain text for the interview context.
package documents

import (
	"context"
	"path/filepath"
	"strings"

	apperr "github.com/JNalv/interview-agent/pkg/errors"
)

// DefaultExtensions lists every format the built-in readers understand.
var DefaultExtensions = []string{".txt", ".md", ".pdf", ".docx"}

// Extractor returns the plain text of a single file.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// ReadFunc reads one file format.
type ReadFunc func(path string) (string, error)

// FileExtractor dispatches on file extension.
type FileExtractor struct {
	readers map[string]ReadFunc
}

// NewExtractor returns an extractor limited to the given extensions. Unknown
// extensions in the list are ignored; an empty list enables every reader.
func NewExtractor(extensions []string) *FileExtractor {
	all := map[string]ReadFunc{
		".txt":  readText,
		".md":   readText,
		".pdf":  readPDF,
		".docx": readDocx,
	}
	if len(extensions) == 0 {
		return &FileExtractor{readers: all}
	}

	readers := make(map[string]ReadFunc, len(extensions))
	for _, ext := range extensions {
		ext = normalizeExt(ext)
		if fn, ok := all[ext]; ok {
			readers[ext] = fn
		}
	}
	return &FileExtractor{readers: readers}
}

// Supports reports whether path has an enabled extension.
func (e *FileExtractor) Supports(path string) bool {
	_, ok := e.readers[normalizeExt(filepath.Ext(path))]
	return ok
}

// Extract reads path. Unsupported extensions fail with
// document.extract.unsupported_format; I/O and parse failures with
// document.extract.read_failure.
func (e *FileExtractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperr.Wrap(err, apperr.CodeDocumentReadFailure, "extraction cancelled", apperr.FieldPath(path))
	}

	ext := normalizeExt(filepath.Ext(path))
	read, ok := e.readers[ext]
	if !ok {
		return "", apperr.New(apperr.CodeDocumentUnsupportedFormat,
			"unsupported document format "+quoteExt(ext), apperr.FieldPath(path))
	}

	text, err := read(path)
	if err != nil {
		return "", apperr.Wrap(err, apperr.CodeDocumentReadFailure, "reading document", apperr.FieldPath(path))
	}
	return text, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func quoteExt(ext string) string {
	if ext == "" {
		return "(no extension)"
	}
	return "\"" + ext + "\""
}
