// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package interview

// SkewTotalForTest corrupts the cached total so drift detection can be tested.
func (m *Manager) SkewTotalForTest(delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess.totalTokens += delta
}

var RemainingTurns = remainingTurns
