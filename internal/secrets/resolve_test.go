// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package secrets_test

import (
	"testing"

	"github.com/JNalv/interview-agent/internal/secrets"
	apperr "github.com/JNalv/interview-agent/pkg/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyringURI(t *testing.T) {
	tests := []struct {
		name        string
		uri         string
		wantService string
		wantKey     string
		wantErr     bool
	}{
		{"valid", "keyring://interview-agent/openai-api-key", "interview-agent", "openai-api-key", false},
		{"slashes in key", "keyring://svc/path/to/key", "svc", "path/to/key", false},
		{"other scheme", "vault://secret/key", "", "", true},
		{"literal", "sk-abc123", "", "", true},
		{"missing key", "keyring://svc/", "", "", true},
		{"missing service", "keyring:///key", "", "", true},
		{"scheme only", "keyring://", "", "", true},
		{"no slash", "keyring://svc", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, key, err := secrets.ParseKeyringURI(tt.uri)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperr.HasCode(err, apperr.CodeSecretURIInvalid))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantService, svc)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestResolve(t *testing.T) {
	ks := secrets.NewKeyringStore()
	require.NoError(t, ks.Store("resolve-test", "key", "resolved-secret"))

	val, err := secrets.Resolve(ks, "keyring://resolve-test/key")
	require.NoError(t, err)
	assert.Equal(t, "resolved-secret", val)

	val, err = secrets.Resolve(ks, "sk-literal")
	require.NoError(t, err)
	assert.Equal(t, "sk-literal", val)

	_, err = secrets.Resolve(ks, "keyring://resolve-test/missing")
	assert.True(t, apperr.IsNotFound(err))

	_, err = secrets.Resolve(ks, "keyring://bad")
	assert.True(t, apperr.IsInvalidInput(err))
}

func TestResolveViper(t *testing.T) {
	ks := secrets.NewKeyringStore()
	require.NoError(t, ks.Store("viper-test", "anthropic-api-key", "sk-ant-secret"))

	v := viper.New()
	v.Set("providers.anthropic.api_key", "keyring://viper-test/anthropic-api-key")
	v.Set("providers.openai.api_key", "keyring://viper-test/missing")
	v.Set("models.default", "anthropic/claude-sonnet-4-20250514")

	secrets.ResolveViper(v, ks)

	assert.Equal(t, "sk-ant-secret", v.GetString("providers.anthropic.api_key"))
	assert.Equal(t, "keyring://viper-test/missing", v.GetString("providers.openai.api_key"), "unresolved reference is kept")
	assert.Equal(t, "anthropic/claude-sonnet-4-20250514", v.GetString("models.default"))
}
