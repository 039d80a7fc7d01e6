// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Help(t *testing.T) {
	isolate(t)

	out, err := execute(t, "", "--help")
	require.NoError(t, err)
	for _, sub := range []string{"run", "docs", "transcribe", "export", "sessions", "secret", "config", "version"} {
		assert.Contains(t, out, sub)
	}
}

func TestVersionCommand(t *testing.T) {
	isolate(t)

	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "interview dev")
}

func TestConfig_MissingFileFails(t *testing.T) {
	isolate(t)

	_, err := execute(t, "", "config", "show", "--config", "/nonexistent/interview.yaml")
	assert.Error(t, err)
}

func TestConfig_BootstrapsDefault(t *testing.T) {
	home := isolate(t)
	wd := t.TempDir()
	t.Chdir(wd)

	out, err := execute(t, "", "config", "show")
	require.NoError(t, err)

	path := filepath.Join(home, ".config", "interview-agent", "interview.yaml")
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	assert.Contains(t, out, "keyring://interview-agent/anthropic-api-key")
	assert.Contains(t, out, "capacity_tokens: 200000")
}

func TestConfigShow_RedactsKeys(t *testing.T) {
	home := isolate(t)
	cfg := writeConfig(t, home,
		"models:\n  default: openai/gpt-4.1\nproviders:\n  openai:\n    api_key: sk-plain-secret\n")

	out, err := execute(t, "", "config", "show", "--config", cfg)
	require.NoError(t, err)
	assert.NotContains(t, out, "sk-plain-secret")
	assert.Contains(t, out, "<redacted>")
}

func TestConfig_EnvOverride(t *testing.T) {
	home := isolate(t)
	cfg := writeConfig(t, home, "budget:\n  capacity_tokens: 1000\n")
	t.Setenv("INTERVIEW_BUDGET_CAPACITY_TOKENS", "5000")

	out, err := execute(t, "", "config", "show", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "capacity_tokens: 5000")
}
