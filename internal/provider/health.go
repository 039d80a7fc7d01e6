// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package provider

import (
	"sync"
	"time"

	apperr "github.com/JNalv/interview-agent/pkg/errors"
	"github.com/JNalv/interview-agent/pkg/health"
)

// HealthMetrics is the exported snapshot type.
type HealthMetrics = health.Metrics

// HealthTracker marks a provider unavailable for a cooldown after a failure
// and available again once the cooldown elapses.
type HealthTracker struct {
	mu           sync.RWMutex
	name         string
	healthy      bool
	failedAt     time.Time
	cooldown     time.Duration
	failureCount int64
	nowFunc      func() time.Time
}

// DefaultHealthCooldown is how long a failed provider is skipped.
const DefaultHealthCooldown = 30 * time.Second

// NewHealthTracker creates a tracker that starts healthy.
func NewHealthTracker(name string, cooldown time.Duration) (*HealthTracker, error) {
	if cooldown <= 0 {
		return nil, apperr.Errorf(apperr.CodeConfigValidateInvalidValue,
			"health tracker cooldown must be positive, got %s", cooldown)
	}
	return &HealthTracker{
		name:     name,
		healthy:  true,
		cooldown: cooldown,
		nowFunc:  time.Now,
	}, nil
}

// MustHealthTracker is NewHealthTracker with DefaultHealthCooldown.
func MustHealthTracker(name string) *HealthTracker {
	h, _ := NewHealthTracker(name, DefaultHealthCooldown)
	return h
}

// caller holds h.mu
func (h *HealthTracker) isHealthyLocked() bool {
	if h.healthy {
		return true
	}
	return h.nowFunc().Sub(h.failedAt) >= h.cooldown
}

func (h *HealthTracker) IsHealthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.isHealthyLocked()
}

func (h *HealthTracker) RecordSuccess() {
	h.mu.Lock()
	h.healthy = true
	h.mu.Unlock()
}

func (h *HealthTracker) RecordFailure() {
	h.mu.Lock()
	h.healthy = false
	h.failedAt = h.nowFunc()
	h.failureCount++
	h.mu.Unlock()
}

// SetNowFunc overrides the time source (for testing).
func (h *HealthTracker) SetNowFunc(fn func() time.Time) {
	h.mu.Lock()
	h.nowFunc = fn
	h.mu.Unlock()
}

// HealthMetrics returns a point-in-time snapshot.
func (h *HealthTracker) HealthMetrics() HealthMetrics {
	h.mu.RLock()
	defer h.mu.RUnlock()

	m := HealthMetrics{
		Provider:     h.name,
		FailureCount: h.failureCount,
		Available:    h.isHealthyLocked(),
	}
	if h.failureCount > 0 {
		t := h.failedAt
		m.LastFailureAt = &t
	}
	if !h.healthy {
		end := h.failedAt.Add(h.cooldown)
		m.CooldownUntil = &end
	}
	return m
}
