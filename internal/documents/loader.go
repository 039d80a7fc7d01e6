// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package documents

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperr "github.com/JNalv/interview-agent/pkg/errors"
)

// FileError records a file that was skipped during loading.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e FileError) Unwrap() error { return e.Err }

// Corpus is the concatenated document context for one session.
type Corpus struct {
	Text   string
	Files  []string
	Errors []FileError
}

// Marker returns the boundary line written before each file's text.
func Marker(rel string) string {
	return "=== " + filepath.ToSlash(rel) + " ==="
}

// Loader collects every supported file below a directory.
type Loader struct {
	extractor Extractor
	supports  func(path string) bool
}

// NewLoader returns a Loader. When extractor is a *FileExtractor, files with
// disabled extensions are skipped silently; otherwise every file is offered
// to the extractor and unsupported ones are recorded as errors.
func NewLoader(extractor Extractor) *Loader {
	l := &Loader{extractor: extractor}
	if fe, ok := extractor.(*FileExtractor); ok {
		l.supports = fe.Supports
	}
	return l
}

// LoadDirectory walks dir recursively in lexical order. A file that fails
// to load is recorded in Corpus.Errors and skipped; only an unusable dir is
// fatal.
func (l *Loader) LoadDirectory(ctx context.Context, dir string) (Corpus, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return Corpus{}, apperr.Wrap(err, apperr.CodeDocumentReadFailure, "opening document directory", apperr.FieldPath(dir))
	}
	if !info.IsDir() {
		return Corpus{}, apperr.New(apperr.CodeDocumentReadFailure, "not a directory", apperr.FieldPath(dir))
	}

	var (
		corpus Corpus
		parts  []string
	)
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			corpus.Errors = append(corpus.Errors, FileError{Path: path, Err: err})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if l.supports != nil && !l.supports(path) {
			return nil
		}

		text, err := l.extractor.Extract(ctx, path)
		if err != nil {
			slog.Warn("skipping document", "path", path, "error", err)
			corpus.Errors = append(corpus.Errors, FileError{Path: path, Err: err})
			return nil
		}
		if strings.TrimSpace(text) == "" {
			slog.Debug("skipping empty document", "path", path)
			return nil
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = filepath.Base(path)
		}
		corpus.Files = append(corpus.Files, filepath.ToSlash(rel))
		parts = append(parts, Marker(rel)+"\n"+strings.TrimRight(text, "\n"))
		return nil
	})
	if walkErr != nil {
		return Corpus{}, apperr.Wrap(walkErr, apperr.CodeDocumentReadFailure, "walking document directory", apperr.FieldPath(dir))
	}

	corpus.Text = strings.Join(parts, "\n\n")
	slog.Info("loaded documents", "dir", dir, "files", len(corpus.Files), "errors", len(corpus.Errors))
	return corpus, nil
}
