// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

// Package store archives finished interviews. Sessions are written only
// when a transcript is exported; live sessions are never persisted.
package store

import (
	"context"
	"time"

	"github.com/JNalv/interview-agent/internal/interview"
	apperr "github.com/JNalv/interview-agent/pkg/errors"
)

// SessionRecord is an archived interview.
type SessionRecord struct {
	ID             string
	StartedAt      time.Time
	EndedAt        time.Time
	Model          string
	CapacityTokens int
	BaselineTokens int
	TotalTokens    int
	TranscriptPath string
	Turns          []TurnRecord
}

// TurnRecord is one archived turn. Seq starts at 1.
type TurnRecord struct {
	Seq        int
	Role       interview.Role
	Text       string
	TokenCount int
	At         time.Time
}

// SessionSummary is a list row without turns.
type SessionSummary struct {
	ID             string
	StartedAt      time.Time
	EndedAt        time.Time
	Model          string
	TurnCount      int
	TotalTokens    int
	CapacityTokens int
	TranscriptPath string
}

// ListOpts pages through the archive, newest first.
type ListOpts struct {
	Limit  int
	Offset int
}

// Archive stores finished interviews.
type Archive interface {
	Archive(ctx context.Context, rec *SessionRecord) error
	GetSession(ctx context.Context, id string) (*SessionRecord, error)
	ListSessions(ctx context.Context, opts ListOpts) ([]*SessionSummary, error)
	DeleteSession(ctx context.Context, id string) error
	Close() error
}

// RecordFromSnapshot converts a session snapshot into an archive record.
func RecordFromSnapshot(snap interview.Snapshot, model, transcriptPath string, endedAt time.Time) *SessionRecord {
	rec := &SessionRecord{
		ID:             snap.ID,
		StartedAt:      snap.StartedAt,
		EndedAt:        endedAt,
		Model:          model,
		CapacityTokens: snap.CapacityTokens,
		BaselineTokens: snap.BaselineTokens,
		TotalTokens:    snap.TotalTokens,
		TranscriptPath: transcriptPath,
		Turns:          make([]TurnRecord, len(snap.Turns)),
	}
	for i, t := range snap.Turns {
		rec.Turns[i] = TurnRecord{
			Seq:        i + 1,
			Role:       t.Role,
			Text:       t.Text,
			TokenCount: t.TokenCount,
			At:         t.At,
		}
	}
	return rec
}

// Validate checks the record before it is written.
func (r *SessionRecord) Validate() error {
	if r == nil {
		return apperr.New(apperr.CodeStoreInvalidInput, "session record is nil")
	}
	if r.ID == "" {
		return apperr.New(apperr.CodeStoreInvalidInput, "session record has no id")
	}
	sum := r.BaselineTokens
	for i, t := range r.Turns {
		if !t.Role.Valid() {
			return apperr.Errorf(apperr.CodeStoreInvalidInput, "turn %d has invalid role %q", i+1, t.Role)
		}
		if t.Seq != i+1 {
			return apperr.Errorf(apperr.CodeStoreInvalidInput, "turn %d has seq %d", i+1, t.Seq)
		}
		sum += t.TokenCount
	}
	if sum != r.TotalTokens {
		return apperr.Errorf(apperr.CodeStoreInvalidInput,
			"total tokens %d do not match baseline plus turns (%d)", r.TotalTokens, sum)
	}
	return nil
}
