// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

//go:build !windows

package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return &buf
}

func TestWarnInsecurePermissions(t *testing.T) {
	tests := []struct {
		name       string
		perm       os.FileMode
		expectWarn bool
	}{
		{"owner only 0600", 0o600, false},
		{"read only 0400", 0o400, false},
		{"group readable 0640", 0o640, true},
		{"other readable 0604", 0o604, true},
		{"world readable 0644", 0o644, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "interview.yaml")
			require.NoError(t, os.WriteFile(configPath, []byte("budget:\n  capacity_tokens: 1000\n"), tt.perm))
			// WriteFile honours umask; force the mode under test.
			require.NoError(t, os.Chmod(configPath, tt.perm))

			buf := captureLogs(t)
			WarnInsecurePermissions(configPath)

			if tt.expectWarn {
				assert.Contains(t, buf.String(), "insecure permissions")
				assert.Contains(t, buf.String(), configPath)
				assert.Contains(t, buf.String(), "0600")
			} else {
				assert.NotContains(t, buf.String(), "insecure permissions")
			}
		})
	}
}

func TestWarnInsecurePermissions_EmptyPath(t *testing.T) {
	buf := captureLogs(t)
	WarnInsecurePermissions("")
	assert.Empty(t, buf.String())
}

func TestWarnInsecurePermissions_MissingFile(t *testing.T) {
	buf := captureLogs(t)
	WarnInsecurePermissions("/nonexistent/path/interview.yaml")
	assert.NotContains(t, buf.String(), "insecure permissions")
}

func TestBootstrapAt(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "nested", "interview.yaml")

	assert.Equal(t, cfgPath, bootstrapAt(cfgPath))

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfigYAML, data)

	info, err := os.Stat(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// Existing files are never overwritten.
	assert.Empty(t, bootstrapAt(cfgPath))
}
