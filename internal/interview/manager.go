// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

// Package interview owns the state of a single interview session: the
// system prompt, the document context, the append-only turn history and the
// token budget derived from them.
package interview

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JNalv/interview-agent/internal/tokens"
	apperr "github.com/JNalv/interview-agent/pkg/errors"
)

// DefaultKickoff is sent as the first user message when the history does not
// open with an interviewee turn. Chat APIs require a leading user message.
const DefaultKickoff = "Please begin the interview by introducing yourself and asking your first question based on the provided context documents."

// documentHeader separates the persona from the loaded documents.
const documentHeader = "\n\nContext Documents:\n"

// defaultVerifyInterval is how many appends pass between full re-scans of
// the turn history.
const defaultVerifyInterval = 16

// Option configures a Manager.
type Option func(*Manager)

// WithEstimator replaces the default character-ratio estimator.
func WithEstimator(e tokens.Estimator) Option {
	return func(m *Manager) { m.estimator = e }
}

// WithThresholds sets the warning thresholds.
func WithThresholds(t Thresholds) Option {
	return func(m *Manager) { m.thresholds = t }
}

// WithKickoff overrides the leading user message of every payload.
func WithKickoff(text string) Option {
	return func(m *Manager) { m.kickoff = text }
}

// WithVerifyInterval sets how often AppendTurn re-checks the cached total.
// Zero or negative disables the periodic check.
func WithVerifyInterval(n int) Option {
	return func(m *Manager) { m.verifyInterval = n }
}

// WithClock overrides time.Now for turn timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.nowFunc = now }
}

// session is the live state. It is only reachable through the Manager.
type session struct {
	id             string
	systemPrompt   string
	documentText   string
	systemTokens   int
	documentTokens int
	turns          []Turn
	totalTokens    int
	capacityTokens int
	startedAt      time.Time
}

// Manager is the single source of truth for an interview session. All
// methods are safe for concurrent use; mutations are serialized.
type Manager struct {
	mu             sync.Mutex
	estimator      tokens.Estimator
	thresholds     Thresholds
	kickoff        string
	verifyInterval int
	nowFunc        func() time.Time

	sess *session
}

// NewManager returns an uninitialized Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		estimator:      tokens.NewCharEstimator(tokens.DefaultCharsPerToken),
		thresholds:     DefaultThresholds,
		kickoff:        DefaultKickoff,
		verifyInterval: defaultVerifyInterval,
		nowFunc:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize starts a new session with zero turns. A live session must be
// Reset first.
func (m *Manager) Initialize(systemPrompt, documentText string, capacityTokens int) error {
	if capacityTokens <= 0 {
		return apperr.Errorf(apperr.CodeConfigValidateInvalidValue, "capacity must be positive, got %d", capacityTokens)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess != nil {
		return apperr.New(apperr.CodeSessionAlreadyInitialized, "session already initialized; reset it first",
			apperr.FieldSessionID(m.sess.id))
	}

	sys := m.estimator.Estimate(systemPrompt)
	doc := m.estimator.Estimate(documentText)
	m.sess = &session{
		id:             uuid.New().String(),
		systemPrompt:   systemPrompt,
		documentText:   documentText,
		systemTokens:   sys,
		documentTokens: doc,
		totalTokens:    sys + doc,
		capacityTokens: capacityTokens,
		startedAt:      m.nowFunc(),
	}

	slog.Debug("interview session initialized",
		"session_id", m.sess.id,
		"baseline_tokens", m.sess.totalTokens,
		"capacity_tokens", capacityTokens,
	)
	return nil
}

// Initialized reports whether a session is live.
func (m *Manager) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess != nil
}

// SessionID returns the live session's identifier.
func (m *Manager) SessionID() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess == nil {
		return "", notInitialized()
	}
	return m.sess.id, nil
}

// SetSystemPrompt replaces the persona. Once any turn exists the prompt is
// frozen.
func (m *Manager) SetSystemPrompt(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess == nil {
		return notInitialized()
	}
	if len(m.sess.turns) > 0 {
		return apperr.New(apperr.CodeSessionAlreadyStarted, "system prompt is frozen after the first turn",
			apperr.FieldSessionID(m.sess.id))
	}

	next := m.estimator.Estimate(text)
	m.sess.totalTokens += next - m.sess.systemTokens
	m.sess.systemTokens = next
	m.sess.systemPrompt = text
	return nil
}

// AppendTurn records a fully-formed turn and returns the updated budget.
// Empty text is accepted as a zero-token turn.
func (m *Manager) AppendTurn(role Role, text string) (BudgetStatus, error) {
	if !role.Valid() {
		return BudgetStatus{}, apperr.Errorf(apperr.CodeTurnRoleInvalid, "unknown turn role %q", role)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess == nil {
		return BudgetStatus{}, notInitialized()
	}

	count := m.estimator.Estimate(text)
	if count < 0 {
		count = 0
	}

	// Verified before committing so a failed check leaves the session unchanged.
	if m.verifyInterval > 0 && (len(m.sess.turns)+1)%m.verifyInterval == 0 {
		if err := m.sess.verify(); err != nil {
			slog.Error("token accounting drift", "session_id", m.sess.id, "error", err)
			return BudgetStatus{}, err
		}
	}

	m.sess.turns = append(m.sess.turns, Turn{
		Role:       role,
		Text:       text,
		TokenCount: count,
		At:         m.nowFunc(),
	})
	m.sess.totalTokens += count

	status := m.sess.status(m.thresholds)
	slog.Debug("turn appended",
		"session_id", m.sess.id,
		"role", string(role),
		"tokens", count,
		"used_tokens", status.UsedTokens,
		"warning_level", string(status.WarningLevel),
	)
	return status, nil
}

// BudgetStatus returns the current budget without side effects.
func (m *Manager) BudgetStatus() (BudgetStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess == nil {
		return BudgetStatus{}, notInitialized()
	}
	return m.sess.status(m.thresholds), nil
}

// BuildRequestPayload assembles the request for the next LLM call. Calling
// it repeatedly without an intervening AppendTurn yields equal payloads.
func (m *Manager) BuildRequestPayload() (Payload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess == nil {
		return Payload{}, notInitialized()
	}

	msgs := make([]Message, 0, len(m.sess.turns)+1)
	if len(m.sess.turns) == 0 || m.sess.turns[0].Role != RoleInterviewee {
		msgs = append(msgs, Message{Role: MessageRoleUser, Content: m.kickoff})
	}
	for _, t := range m.sess.turns {
		msgs = append(msgs, Message{Role: messageRole(t.Role), Content: t.Text})
	}

	return Payload{
		System:   combineSystem(m.sess.systemPrompt, m.sess.documentText),
		Messages: msgs,
	}, nil
}

// Snapshot returns a deep copy of the live session.
func (m *Manager) Snapshot() (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess == nil {
		return Snapshot{}, notInitialized()
	}

	turns := make([]Turn, len(m.sess.turns))
	copy(turns, m.sess.turns)
	return Snapshot{
		ID:             m.sess.id,
		SystemPrompt:   m.sess.systemPrompt,
		DocumentText:   m.sess.documentText,
		Turns:          turns,
		BaselineTokens: m.sess.systemTokens + m.sess.documentTokens,
		TotalTokens:    m.sess.totalTokens,
		CapacityTokens: m.sess.capacityTokens,
		StartedAt:      m.sess.startedAt,
	}, nil
}

// Verify re-scans the history and confirms the cached total matches.
func (m *Manager) Verify() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess == nil {
		return notInitialized()
	}
	return m.sess.verify()
}

// Reset discards the live session, if any.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess != nil {
		slog.Debug("interview session reset", "session_id", m.sess.id, "turns", len(m.sess.turns))
	}
	m.sess = nil
}

func (s *session) verify() error {
	sum := s.systemTokens + s.documentTokens
	for _, t := range s.turns {
		sum += t.TokenCount
	}
	if sum != s.totalTokens {
		return apperr.Errorf(apperr.CodeSessionInvariantBroken,
			"cached total %d does not match history sum %d", s.totalTokens, sum)
	}
	return nil
}

func (s *session) status(th Thresholds) BudgetStatus {
	used := s.totalTokens
	capacity := s.capacityTokens
	ratio := float64(used) / float64(capacity)

	return BudgetStatus{
		UsedTokens:              used,
		CapacityTokens:          capacity,
		PercentUsed:             ratio * 100,
		WarningLevel:            levelFor(ratio, th),
		EstimatedRemainingTurns: remainingTurns(used, capacity, used-s.systemTokens-s.documentTokens, len(s.turns)),
	}
}

func levelFor(ratio float64, th Thresholds) WarningLevel {
	switch {
	case ratio >= th.Critical:
		return WarningRed
	case ratio >= th.Warning:
		return WarningYellow
	default:
		return WarningNone
	}
}

// remainingTurns computes floor((capacity-used) / (turnTokens/turns)) in
// integer arithmetic. A history of only empty turns is treated as costing one
// token per turn.
func remainingTurns(used, capacity, turnTokens, turns int) int {
	if turns == 0 {
		return RemainingUnknown
	}
	left := capacity - used
	if left <= 0 {
		return 0
	}
	if turnTokens <= 0 {
		return left
	}
	return left * turns / turnTokens
}

func messageRole(r Role) MessageRole {
	if r == RoleInterviewer {
		return MessageRoleAssistant
	}
	return MessageRoleUser
}

func combineSystem(prompt, documents string) string {
	if strings.TrimSpace(documents) == "" {
		return prompt
	}
	return prompt + documentHeader + documents
}

func notInitialized() error {
	return apperr.New(apperr.CodeSessionNotInitialized, "no interview session; call Initialize first")
}
