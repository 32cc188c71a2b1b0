package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLRecorder is a MySQL/MariaDB-backed Recorder, for deployments
// that already run a shared database and want the audit trail queryable
// alongside everything else rather than scattered across local files.
type MySQLRecorder struct {
	db *sql.DB
}

// NewMySQLRecorder opens a connection pool against dsn and ensures the
// audit table exists. The DSN format is the driver's usual
// user:password@tcp(host:port)/dbname?parseTime=true.
func NewMySQLRecorder(dsn string) (*MySQLRecorder, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	r := &MySQLRecorder{db: db}
	if err := r.createTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *MySQLRecorder) createTable(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audit_records (
			id           BIGINT AUTO_INCREMENT PRIMARY KEY,
			session_id   VARCHAR(255) NOT NULL,
			execution_id VARCHAR(255) NOT NULL,
			node_name    VARCHAR(255) NOT NULL,
			status       VARCHAR(32) NOT NULL,
			message      TEXT NOT NULL,
			output       TEXT NOT NULL,
			recorded_at  DATETIME(6) NOT NULL,
			INDEX idx_audit_session (session_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`)
	if err != nil {
		return fmt.Errorf("create audit_records table: %w", err)
	}
	return nil
}

// Append inserts rec as a new row.
func (r *MySQLRecorder) Append(ctx context.Context, rec Record) error {
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
func (r *MySQLRecorder) History(ctx context.Context, sessionID string) ([]Record, error) {
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

// Close closes the underlying connection pool.
func (r *MySQLRecorder) Close() error {
	return r.db.Close()
}
