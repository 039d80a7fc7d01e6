// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

// Package watcher feeds recorded answers from an inbox directory to a
// handler. Files are handled one at a time in the order they appeared.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	apperr "github.com/JNalv/interview-agent/pkg/errors"
)

const (
	defaultSettle    = 500 * time.Millisecond
	defaultQueueSize = 64
)

// Handler processes one inbox file. An error is logged and the next file
// is handled.
type Handler func(ctx context.Context, path string) error

// Config controls an Inbox.
type Config struct {
	Dir string
	// Extensions are matched case-insensitively. Default: .wav
	Extensions []string
	// Settle is how long a new file is left alone before it is handled,
	// giving the recorder time to finish writing it. Zero means 500ms and
	// a negative value disables the wait.
	Settle    time.Duration
	QueueSize int
}

// Inbox watches a directory for new recordings.
type Inbox struct {
	dir     string
	exts    []string
	settle  time.Duration
	handler Handler
	watcher *fsnotify.Watcher
	queue   chan string

	mu   sync.Mutex
	seen map[string]bool
}

// New starts watching cfg.Dir. Call Run to begin handling files.
func New(cfg Config, handler Handler) (*Inbox, error) {
	if handler == nil {
		return nil, apperr.New(apperr.CodeWatcherStartFailure, "inbox handler is nil")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeWatcherStartFailure, "creating watcher")
	}
	if err := fw.Add(cfg.Dir); err != nil {
		_ = fw.Close()
		return nil, apperr.Wrap(err, apperr.CodeWatcherStartFailure, "watching inbox", apperr.FieldPath(cfg.Dir))
	}

	exts := []string{".wav"}
	if len(cfg.Extensions) > 0 {
		exts = make([]string, len(cfg.Extensions))
		for i, e := range cfg.Extensions {
			exts[i] = strings.ToLower(e)
		}
	}
	settle := cfg.Settle
	if settle < 0 {
		settle = 0
	} else if settle == 0 {
		settle = defaultSettle
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}

	return &Inbox{
		dir:     cfg.Dir,
		exts:    exts,
		settle:  settle,
		handler: handler,
		watcher: fw,
		queue:   make(chan string, size),
		seen:    make(map[string]bool),
	}, nil
}

// Run dispatches new files until ctx is cancelled or the watcher is closed.
// It waits for the file being handled to finish before returning.
func (w *Inbox) Run(ctx context.Context) error {
	slog.Info("inbox watcher started", "dir", w.dir, "extensions", w.exts)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.consume(ctx)
	}()
	defer func() {
		close(w.queue)
		wg.Wait()
		slog.Info("inbox watcher stopped", "dir", w.dir)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) || !w.accepts(event.Name) || !w.markSeen(event.Name) {
				continue
			}
			slog.Debug("inbox file queued", "path", event.Name)
			select {
			case w.queue <- event.Name:
			case <-ctx.Done():
				return ctx.Err()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("inbox watcher error", "error", err)
		}
	}
}

// Close stops watching.
func (w *Inbox) Close() error {
	return w.watcher.Close()
}

func (w *Inbox) consume(ctx context.Context) {
	for path := range w.queue {
		if ctx.Err() != nil {
			continue
		}
		if w.settle > 0 {
			select {
			case <-time.After(w.settle):
			case <-ctx.Done():
				continue
			}
		}
		if err := w.handler(ctx, path); err != nil {
			slog.Error("handling inbox file", "path", path, "error", err)
		}
	}
}

func (w *Inbox) accepts(path string) bool {
	return slices.Contains(w.exts, strings.ToLower(filepath.Ext(path)))
}

// markSeen reports whether path is new; editors that re-create a file must
// not trigger a second answer.
func (w *Inbox) markSeen(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen[path] {
		return false
	}
	w.seen[path] = true
	return true
}
