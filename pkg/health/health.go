// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

// Package health holds provider health snapshots shown by the CLI.
package health

import "time"

// Metrics is a point-in-time view of one provider's health.
type Metrics struct {
	Provider      string     `yaml:"provider"`
	FailureCount  int64      `yaml:"failure_count"`
	LastFailureAt *time.Time `yaml:"last_failure_at,omitempty"`
	CooldownUntil *time.Time `yaml:"cooldown_until,omitempty"`
	Available     bool       `yaml:"available"`
}

// Summary renders a one-line status.
func (m Metrics) Summary() string {
	if m.Available {
		if m.FailureCount == 0 {
			return m.Provider + ": available"
		}
		return m.Provider + ": available (recovered)"
	}
	if m.CooldownUntil != nil {
		return m.Provider + ": cooling down until " + m.CooldownUntil.Format(time.Kitchen)
	}
	return m.Provider + ": unavailable"
}
