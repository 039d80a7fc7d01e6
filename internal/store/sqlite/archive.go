// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/JNalv/interview-agent/internal/interview"
	"github.com/JNalv/interview-agent/internal/store"
	apperr "github.com/JNalv/interview-agent/pkg/errors"
)

var _ store.Archive = (*ArchiveStore)(nil)

// ArchiveStore implements store.Archive backed by SQLite.
type ArchiveStore struct {
	db *sql.DB
}

// NewArchiveStore opens (or creates) the database at dbPath.
func NewArchiveStore(dbPath string) (*ArchiveStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, dbErr(err, "creating database directory")
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, dbErr(err, "opening sqlite db")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, dbErr(err, "pinging sqlite db")
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, dbErr(err, "migrating sqlite db")
	}
	return &ArchiveStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS sessions (
	id              TEXT PRIMARY KEY,
	started_at      TEXT NOT NULL,
	ended_at        TEXT NOT NULL,
	model           TEXT NOT NULL DEFAULT '',
	capacity_tokens INTEGER NOT NULL,
	baseline_tokens INTEGER NOT NULL,
	total_tokens    INTEGER NOT NULL,
	transcript_path TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_sessions_ended ON sessions(ended_at);

CREATE TABLE IF NOT EXISTS turns (
	session_id  TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	role        TEXT NOT NULL,
	text        TEXT NOT NULL DEFAULT '',
	token_count INTEGER NOT NULL,
	created_at  TEXT NOT NULL,
	PRIMARY KEY (session_id, seq),
	FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);
`
	_, err := db.Exec(ddl)
	return err
}

// Close closes the underlying database connection.
func (s *ArchiveStore) Close() error {
	return s.db.Close()
}

// Archive writes the session and its turns in one transaction, replacing
// any earlier archive of the same session.
func (s *ArchiveStore) Archive(ctx context.Context, rec *store.SessionRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dbErr(err, "beginning archive transaction")
	}
	defer func() { _ = tx.Rollback() }()

	const upsert = `INSERT INTO sessions (id, started_at, ended_at, model, capacity_tokens, baseline_tokens, total_tokens, transcript_path)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	ended_at = excluded.ended_at,
	model = excluded.model,
	capacity_tokens = excluded.capacity_tokens,
	baseline_tokens = excluded.baseline_tokens,
	total_tokens = excluded.total_tokens,
	transcript_path = excluded.transcript_path`

	if _, err := tx.ExecContext(ctx, upsert,
		rec.ID,
		formatTime(rec.StartedAt),
		formatTime(rec.EndedAt),
		rec.Model,
		rec.CapacityTokens,
		rec.BaselineTokens,
		rec.TotalTokens,
		rec.TranscriptPath,
	); err != nil {
		return dbErr(err, "archiving session "+rec.ID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM turns WHERE session_id = ?`, rec.ID); err != nil {
		return dbErr(err, "clearing turns for session "+rec.ID)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO turns (session_id, seq, role, text, token_count, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return dbErr(err, "preparing turn insert")
	}
	defer stmt.Close()

	for _, t := range rec.Turns {
		if _, err := stmt.ExecContext(ctx, rec.ID, t.Seq, string(t.Role), t.Text, t.TokenCount, formatTime(t.At)); err != nil {
			return dbErr(err, "archiving turn")
		}
	}

	if err := tx.Commit(); err != nil {
		return dbErr(err, "committing archive of session "+rec.ID)
	}
	return nil
}

func (s *ArchiveStore) GetSession(ctx context.Context, id string) (*store.SessionRecord, error) {
	const q = `SELECT id, started_at, ended_at, model, capacity_tokens, baseline_tokens, total_tokens, transcript_path
FROM sessions WHERE id = ?`

	var (
		rec            store.SessionRecord
		started, ended string
	)
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&rec.ID,
		&started,
		&ended,
		&rec.Model,
		&rec.CapacityTokens,
		&rec.BaselineTokens,
		&rec.TotalTokens,
		&rec.TranscriptPath,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.CodeStoreSessionNotFound, "session "+id+" not found",
			apperr.FieldSessionID(id))
	}
	if err != nil {
		return nil, dbErr(err, "getting session "+id)
	}
	rec.StartedAt = parseTime(started)
	rec.EndedAt = parseTime(ended)

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, role, text, token_count, created_at FROM turns WHERE session_id = ? ORDER BY seq ASC`, id)
	if err != nil {
		return nil, dbErr(err, "listing turns for session "+id)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t    store.TurnRecord
			role string
			at   string
		)
		if err := rows.Scan(&t.Seq, &role, &t.Text, &t.TokenCount, &at); err != nil {
			return nil, dbErr(err, "scanning turn row")
		}
		t.Role = interview.Role(role)
		t.At = parseTime(at)
		rec.Turns = append(rec.Turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "reading turns")
	}
	return &rec, nil
}

func (s *ArchiveStore) ListSessions(ctx context.Context, opts store.ListOpts) ([]*store.SessionSummary, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	const q = `SELECT s.id, s.started_at, s.ended_at, s.model, s.total_tokens, s.capacity_tokens, s.transcript_path,
	(SELECT COUNT(*) FROM turns t WHERE t.session_id = s.id)
FROM sessions s ORDER BY s.ended_at DESC LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, q, limit, opts.Offset)
	if err != nil {
		return nil, dbErr(err, "listing sessions")
	}
	defer rows.Close()

	var out []*store.SessionSummary
	for rows.Next() {
		var (
			sum            store.SessionSummary
			started, ended string
		)
		if err := rows.Scan(&sum.ID, &started, &ended, &sum.Model, &sum.TotalTokens,
			&sum.CapacityTokens, &sum.TranscriptPath, &sum.TurnCount); err != nil {
			return nil, dbErr(err, "scanning session row")
		}
		sum.StartedAt = parseTime(started)
		sum.EndedAt = parseTime(ended)
		out = append(out, &sum)
	}
	return out, rows.Err()
}

func (s *ArchiveStore) DeleteSession(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return dbErr(err, "deleting session "+id)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return dbErr(err, "checking rows affected for session "+id)
	}
	if rows == 0 {
		return apperr.New(apperr.CodeStoreSessionNotFound, "session "+id+" not found",
			apperr.FieldSessionID(id))
	}
	return nil
}

func dbErr(err error, msg string) error {
	return apperr.Wrap(err, apperr.CodeStoreDatabaseFailure, msg)
}

// formatTime serialises a time.Time to RFC3339 with nanosecond precision.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
