// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package provider_test

import (
	"context"

	"github.com/JNalv/interview-agent/internal/provider"
)

// mockProvider is a reusable provider.Provider for tests.
type mockProvider struct {
	name      string
	available bool
	closeErr  error
	events    []provider.ChatEvent
}

func newMockProvider(name string, available bool) *mockProvider {
	return &mockProvider{name: name, available: available}
}

func (m *mockProvider) Name() string                     { return m.name }
func (m *mockProvider) Available(_ context.Context) bool { return m.available }
func (m *mockProvider) Close() error                     { return m.closeErr }

func (m *mockProvider) Chat(_ context.Context, _ provider.ChatRequest) (<-chan provider.ChatEvent, error) {
	events := m.events
	if events == nil {
		events = []provider.ChatEvent{
			{Type: provider.EventTypeTextDelta, Text: "hello"},
			{Type: provider.EventTypeUsage, Usage: &provider.Usage{InputTokens: 10, OutputTokens: 5}},
			{Type: provider.EventTypeDone},
		}
	}
	ch := make(chan provider.ChatEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

// mockProviderWithHealth routes availability through a HealthTracker.
type mockProviderWithHealth struct {
	*mockProvider
	health *provider.HealthTracker
}

func (m *mockProviderWithHealth) Available(_ context.Context) bool { return m.health.IsHealthy() }
func (m *mockProviderWithHealth) RecordFailure()                   { m.health.RecordFailure() }
func (m *mockProviderWithHealth) RecordSuccess()                   { m.health.RecordSuccess() }
func (m *mockProviderWithHealth) HealthMetrics() provider.HealthMetrics {
	return m.health.HealthMetrics()
}
