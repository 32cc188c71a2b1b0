package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder is a SQLite-backed Recorder: a single-file audit log
// suitable for local development or a single-process deployment that
// wants its history to survive a restart without standing up MySQL.
type SQLiteRecorder struct {
	db *sql.DB
}

// NewSQLiteRecorder opens (creating if necessary) a SQLite database at
// path and ensures its schema exists. path may be ":memory:" for a
// throwaway recorder in tests.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.createTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRecorder) createTable(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audit_records (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id   TEXT NOT NULL,
			execution_id TEXT NOT NULL,
			node_name    TEXT NOT NULL,
			status       TEXT NOT NULL,
			message      TEXT NOT NULL DEFAULT '',
			output       TEXT NOT NULL DEFAULT '',
			recorded_at  DATETIME NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create audit_records table: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_audit_session ON audit_records(session_id)`)
	if err != nil {
		return fmt.Errorf("create session index: %w", err)
	}
	return nil
}

// Append inserts rec as a new row.
func (r *SQLiteRecorder) Append(ctx context.Context, rec Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_records (session_id, execution_id, node_name, status, message, output, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.ExecutionID, rec.NodeName, rec.Status, rec.Message, rec.Output, rec.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// History returns every row for sessionID ordered by recorded_at.
func (r *SQLiteRecorder) History(ctx context.Context, sessionID string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT session_id, execution_id, node_name, status, message, output, recorded_at
		FROM audit_records WHERE session_id = ? ORDER BY recorded_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var recordedAt time.Time
		if err := rows.Scan(&rec.SessionID, &rec.ExecutionID, &rec.NodeName, &rec.Status, &rec.Message, &rec.Output, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		rec.RecordedAt = recordedAt
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// Close closes the underlying database handle.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
