// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package provider_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JNalv/interview-agent/internal/provider"
	apperr "github.com/JNalv/interview-agent/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := provider.NewRegistry()
	reg.Register("anthropic", newMockProvider("anthropic", true))

	got, err := reg.Get("anthropic")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", got.Name())

	_, err = reg.Get("nonexistent")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeProviderNotFound))
	assert.True(t, apperr.IsNotFound(err))
}

func TestRegistry_Names(t *testing.T) {
	reg := provider.NewRegistry()
	reg.Register("openai", newMockProvider("openai", true))
	reg.Register("anthropic", newMockProvider("anthropic", true))
	assert.Equal(t, []string{"anthropic", "openai"}, reg.Names())
}

func TestRegistry_RouteDefault(t *testing.T) {
	reg := provider.NewRegistry()
	reg.Register("anthropic", newMockProvider("anthropic", true))
	require.NoError(t, reg.SetDefault("anthropic/claude-sonnet-4-5"))
	assert.Equal(t, "anthropic/claude-sonnet-4-5", reg.DefaultRef())

	for _, ref := range []string{"", "default"} {
		p, model, err := reg.Route(context.Background(), ref, nil)
		require.NoError(t, err)
		assert.Equal(t, "anthropic", p.Name())
		assert.Equal(t, "claude-sonnet-4-5", model)
	}
}

func TestRegistry_RouteExplicitRef(t *testing.T) {
	reg := provider.NewRegistry()
	reg.Register("anthropic", newMockProvider("anthropic", true))
	reg.Register("openai", newMockProvider("openai", true))
	require.NoError(t, reg.SetDefault("anthropic/claude-sonnet-4-5"))

	p, model, err := reg.Route(context.Background(), "openai/gpt-4.1", nil)
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
	assert.Equal(t, "gpt-4.1", model)
}

func TestRegistry_RouteRejectsUnqualifiedModel(t *testing.T) {
	reg := provider.NewRegistry()
	reg.Register("anthropic", newMockProvider("anthropic", true))

	_, _, err := reg.Route(context.Background(), "claude-sonnet-4-5", nil)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeProviderInvalidModelRef))
}

func TestRegistry_NoDefault(t *testing.T) {
	reg := provider.NewRegistry()
	_, _, err := reg.Route(context.Background(), "", nil)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeProviderNoDefault))
}

func TestRegistry_SetRefValidation(t *testing.T) {
	reg := provider.NewRegistry()
	reg.Register("anthropic", newMockProvider("anthropic", true))

	err := reg.SetDefault("openai/gpt-4.1")
	assert.True(t, apperr.HasCode(err, apperr.CodeProviderNotFound))

	err = reg.SetDefault("anthropic")
	assert.True(t, apperr.HasCode(err, apperr.CodeProviderInvalidModelRef))

	err = reg.SetFailover([]string{"anthropic/claude-haiku-4-5", "google/gemini-2.5-flash"})
	assert.True(t, apperr.HasCode(err, apperr.CodeProviderNotFound))
	assert.Equal(t, 1, reg.MaxAttempts(), "failed SetFailover leaves chain untouched")
}

func TestRegistry_Failover(t *testing.T) {
	reg := provider.NewRegistry()
	reg.Register("anthropic", newMockProvider("anthropic", false))
	reg.Register("openai", newMockProvider("openai", true))
	require.NoError(t, reg.SetDefault("anthropic/claude-sonnet-4-5"))
	require.NoError(t, reg.SetFailover([]string{"openai/gpt-4.1"}))

	p, model, err := reg.Route(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
	assert.Equal(t, "gpt-4.1", model)
}

func TestRegistry_FailoverHonoursExclude(t *testing.T) {
	reg := provider.NewRegistry()
	reg.Register("anthropic", newMockProvider("anthropic", true))
	reg.Register("openai", newMockProvider("openai", true))
	reg.Register("google", newMockProvider("google", true))
	require.NoError(t, reg.SetDefault("anthropic/claude-sonnet-4-5"))
	require.NoError(t, reg.SetFailover([]string{"openai/gpt-4.1", "google/gemini-2.5-flash"}))
	assert.Equal(t, 3, reg.MaxAttempts())

	p, _, err := reg.Route(context.Background(), "", []string{"anthropic"})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	p, model, err := reg.Route(context.Background(), "", []string{"anthropic", "openai"})
	require.NoError(t, err)
	assert.Equal(t, "google", p.Name())
	assert.Equal(t, "gemini-2.5-flash", model)

	_, _, err = reg.Route(context.Background(), "", []string{"anthropic", "openai", "google"})
	assert.True(t, apperr.HasCode(err, apperr.CodeProviderAllUnavailable))
}

func TestRegistry_HealthCooldownRoutesAround(t *testing.T) {
	now := time.Now()
	h, err := provider.NewHealthTracker("anthropic", time.Minute)
	require.NoError(t, err)
	h.SetNowFunc(func() time.Time { return now })

	primary := &mockProviderWithHealth{mockProvider: newMockProvider("anthropic", true), health: h}
	reg := provider.NewRegistry()
	reg.Register("anthropic", primary)
	reg.Register("openai", newMockProvider("openai", true))
	require.NoError(t, reg.SetDefault("anthropic/claude-sonnet-4-5"))
	require.NoError(t, reg.SetFailover([]string{"openai/gpt-4.1"}))

	primary.RecordFailure()
	p, _, err := reg.Route(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	h.SetNowFunc(func() time.Time { return now.Add(2 * time.Minute) })
	p, _, err = reg.Route(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())

	metrics := reg.Health()
	require.Len(t, metrics, 1)
	assert.Equal(t, "anthropic", metrics[0].Provider)
}

func TestRegistry_AllProvidersDown(t *testing.T) {
	reg := provider.NewRegistry()
	reg.Register("anthropic", newMockProvider("anthropic", false))
	reg.Register("openai", newMockProvider("openai", false))
	require.NoError(t, reg.SetDefault("anthropic/claude-sonnet-4-5"))
	require.NoError(t, reg.SetFailover([]string{"openai/gpt-4.1"}))

	_, _, err := reg.Route(context.Background(), "", nil)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeProviderAllUnavailable))
}

func TestRegistry_Close(t *testing.T) {
	reg := provider.NewRegistry()
	reg.Register("anthropic", newMockProvider("anthropic", true))
	assert.NoError(t, reg.Close())

	bad := newMockProvider("openai", true)
	bad.closeErr = errors.New("close failed")
	reg.Register("openai", bad)
	assert.ErrorContains(t, reg.Close(), "close failed")
}
