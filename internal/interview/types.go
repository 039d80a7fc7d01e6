// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package interview

import (
	"time"
)

// Role identifies who spoke a turn.
type Role string

const (
	RoleInterviewer Role = "interviewer"
	RoleInterviewee Role = "interviewee"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleInterviewer || r == RoleInterviewee
}

// Turn is one role-tagged utterance. TokenCount is fixed at append time.
type Turn struct {
	Role       Role
	Text       string
	TokenCount int
	At         time.Time
}

// WarningLevel is the tiered indicator of budget consumption.
type WarningLevel string

const (
	WarningNone   WarningLevel = "none"
	WarningYellow WarningLevel = "yellow"
	WarningRed    WarningLevel = "red"
)

// RemainingUnknown is reported as EstimatedRemainingTurns before any turn
// has been appended.
const RemainingUnknown = -1

// BudgetStatus is a derived, point-in-time view of token consumption.
type BudgetStatus struct {
	UsedTokens              int
	CapacityTokens          int
	PercentUsed             float64
	WarningLevel            WarningLevel
	EstimatedRemainingTurns int
}

// RemainingKnown reports whether EstimatedRemainingTurns carries an estimate.
func (b BudgetStatus) RemainingKnown() bool {
	return b.EstimatedRemainingTurns != RemainingUnknown
}

// Thresholds are fractions of capacity at which the warning level escalates.
type Thresholds struct {
	Warning  float64
	Critical float64
}

// DefaultThresholds matches the reference deployment.
var DefaultThresholds = Thresholds{Warning: 0.75, Critical: 0.90}

// MessageRole is the role name used on the wire by chat-completion APIs.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Message is one role-tagged segment of a request payload.
type Message struct {
	Role    MessageRole
	Content string
}

// Payload is the exact request handed to the LLM turn driver: a system text
// (persona plus document context) followed by the ordered messages.
type Payload struct {
	System   string
	Messages []Message
}

// Snapshot is a deep copy of a session, safe to hand to exporters.
type Snapshot struct {
	ID             string
	SystemPrompt   string
	DocumentText   string
	Turns          []Turn
	BaselineTokens int
	TotalTokens    int
	CapacityTokens int
	StartedAt      time.Time
}

// TurnTokens returns the tokens spent on turns alone.
func (s Snapshot) TurnTokens() int {
	return s.TotalTokens - s.BaselineTokens
}
