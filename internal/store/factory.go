// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package store

import (
	"sync"

	apperr "github.com/JNalv/interview-agent/pkg/errors"
)

// Config controls which backend Open uses.
type Config struct {
	Backend string // "sqlite" is the only supported backend for now.
	Path    string
}

// Factory opens an archive at path.
type Factory func(path string) (Archive, error)

var (
	factories   = map[string]Factory{}
	factoriesMu sync.RWMutex
)

// RegisterBackend registers a factory for a named backend. Backend packages
// call this from init().
func RegisterBackend(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// Open creates the archive for cfg.
func Open(cfg Config) (Archive, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = "sqlite"
	}

	factoriesMu.RLock()
	f, ok := factories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, apperr.Errorf(apperr.CodeStoreBackendUnsupported, "unsupported storage backend: %q", backend)
	}
	if cfg.Path == "" {
		return nil, apperr.New(apperr.CodeStoreInvalidInput, "storage path is empty")
	}
	return f(cfg.Path)
}
