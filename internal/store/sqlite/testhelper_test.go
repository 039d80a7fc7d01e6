// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package sqlite_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/JNalv/interview-agent/internal/interview"
	"github.com/JNalv/interview-agent/internal/store"
	"github.com/JNalv/interview-agent/internal/store/sqlite"
	"github.com/stretchr/testify/require"
)

// testDBPath returns a temp SQLite database path.
func testDBPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name+".db")
}

func newTestStore(t *testing.T) *sqlite.ArchiveStore {
	t.Helper()
	s, err := sqlite.NewArchiveStore(testDBPath(t, "archive"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testRecord(id string, ended time.Time) *store.SessionRecord {
	started := ended.Add(-30 * time.Minute)
	return &store.SessionRecord{
		ID:             id,
		StartedAt:      started,
		EndedAt:        ended,
		Model:          "anthropic/claude-sonnet-4-20250514",
		CapacityTokens: 200000,
		BaselineTokens: 100,
		TotalTokens:    130,
		TranscriptPath: "/tmp/" + id + ".txt",
		Turns: []store.TurnRecord{
			{Seq: 1, Role: interview.RoleInterviewer, Text: "Tell me about yourself.", TokenCount: 6, At: started.Add(time.Minute)},
			{Seq: 2, Role: interview.RoleInterviewee, Text: "I run the platform team.", TokenCount: 6, At: started.Add(2 * time.Minute)},
			{Seq: 3, Role: interview.RoleInterviewer, Text: "What is the biggest challenge your team faces this year?", TokenCount: 18, At: started.Add(3 * time.Minute)},
		},
	}
}
