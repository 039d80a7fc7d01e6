// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package sqlite

import "github.com/JNalv/interview-agent/internal/store"

func init() {
	store.RegisterBackend("sqlite", func(path string) (store.Archive, error) {
		return NewArchiveStore(path)
	})
}
