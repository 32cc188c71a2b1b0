package store

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestMySQLRecorder_InterfaceContract(t *testing.T) {
	var _ Recorder = (*MySQLRecorder)(nil)
}

// TestMySQLRecorder_Integration exercises a live MySQL/MariaDB instance.
// Set TEST_MYSQL_DSN to run it; it's skipped otherwise since the rest of
// the suite has no database dependency.
func TestMySQLRecorder_Integration(t *testing.T) {
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("Skipping MySQL integration test: set TEST_MYSQL_DSN to run")
	}

	r, err := NewMySQLRecorder(dsn)
	if err != nil {
		t.Fatalf("NewMySQLRecorder: %v", err)
	}
	defer r.Close()

	ctx := context.Background()
	sessionID := "integration-session"
	rec := Record{SessionID: sessionID, ExecutionID: "e1", NodeName: "fetch", Status: "success", RecordedAt: time.Now().UTC()}
	if err := r.Append(ctx, rec); err != nil {
		t.Fatalf("Append: %v", err)
	}

	hist, err := r.History(ctx, sessionID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) == 0 {
		t.Fatal("expected at least one record")
	}
}
