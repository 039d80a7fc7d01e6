// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package secrets_test

import (
	"testing"

	"github.com/JNalv/interview-agent/internal/secrets"
	apperr "github.com/JNalv/interview-agent/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func init() {
	// Never touch the real OS keyring from tests.
	keyring.MockInit()
}

func TestKeyringStore_StoreAndRetrieve(t *testing.T) {
	ks := secrets.NewKeyringStore()

	require.NoError(t, ks.Store("test-roundtrip", "anthropic-api-key", "sk-ant-123"))

	val, err := ks.Retrieve("test-roundtrip", "anthropic-api-key")
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-123", val)
}

func TestKeyringStore_NotFound(t *testing.T) {
	ks := secrets.NewKeyringStore()

	_, err := ks.Retrieve("no-such-service", "no-key")
	assert.True(t, apperr.HasCode(err, apperr.CodeSecretNotFound), "got: %v", err)

	err = ks.Delete("no-such-service", "no-key")
	assert.True(t, apperr.HasCode(err, apperr.CodeSecretNotFound), "got: %v", err)
}

func TestKeyringStore_ListTracksStoreAndDelete(t *testing.T) {
	ks := secrets.NewKeyringStore()
	svc := "test-list"

	keys, err := ks.List(svc)
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, ks.Store(svc, "openai-api-key", "a"))
	require.NoError(t, ks.Store(svc, "anthropic-api-key", "b"))
	require.NoError(t, ks.Store(svc, "anthropic-api-key", "c"))

	keys, err = ks.List(svc)
	require.NoError(t, err)
	assert.Equal(t, []string{"anthropic-api-key", "openai-api-key"}, keys, "sorted, no duplicates")

	val, err := ks.Retrieve(svc, "anthropic-api-key")
	require.NoError(t, err)
	assert.Equal(t, "c", val)

	require.NoError(t, ks.Delete(svc, "openai-api-key"))
	require.NoError(t, ks.Delete(svc, "anthropic-api-key"))
	keys, err = ks.List(svc)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestKeyringStore_InvalidInputs(t *testing.T) {
	ks := secrets.NewKeyringStore()

	tests := []struct {
		name    string
		service string
		key     string
		value   string
	}{
		{"empty service", "", "key", "val"},
		{"empty key", "svc", "", "val"},
		{"empty value", "svc", "key", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ks.Store(tt.service, tt.key, tt.value)
			require.Error(t, err)
			assert.True(t, apperr.IsInvalidInput(err))
		})
	}

	_, err := ks.List("")
	assert.True(t, apperr.IsInvalidInput(err))
}

func TestProviderURI(t *testing.T) {
	assert.Equal(t, "keyring://interview-agent/openai-api-key", secrets.ProviderURI("openai"))

	svc, key, err := secrets.ParseKeyringURI(secrets.ProviderURI("google"))
	require.NoError(t, err)
	assert.Equal(t, secrets.DefaultService, svc)
	assert.Equal(t, secrets.ProviderKey("google"), key)
}
