// Package store provides append-only audit recorders for workflow
// executions. A Recorder is a side channel for compliance and debugging
// history — it has no bearing on execution correctness, and a Workflow
// that never configures one behaves identically to one that does. This
// is not a restart/replay mechanism: a reaped session's audit trail
// outlives the session itself, but there is nothing here that lets a
// workflow resume from it.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested session has no recorded history.
var ErrNotFound = errors.New("not found")

// Record is one node's contribution to one execution, as seen by the
// engine after routing has already been decided. Output is stored as
// its string form (via fmt.Sprint) rather than the original any, since
// a recorder has no business re-interpreting node output — it only
// needs to preserve what happened for later inspection.
type Record struct {
	SessionID   string    `json:"session_id"`
	ExecutionID string    `json:"execution_id"`
	NodeName    string    `json:"node_name"`
	Status      string    `json:"status"`
	Message     string    `json:"message,omitempty"`
	Output      string    `json:"output,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// Recorder appends IO records as a workflow runs and serves them back
// by session for audit or debugging. Implementations must be safe for
// concurrent use — multiple node goroutines across multiple sessions
// call Append concurrently during normal fan-out.
type Recorder interface {
	// Append persists one record. Ordering within a session is
	// implementation-defined beyond RecordedAt; callers that need
	// causal order should sort the returned History by RecordedAt.
	Append(ctx context.Context, rec Record) error

	// History returns every record recorded for sessionID, oldest
	// first. Returns ErrNotFound if the session has no records.
	History(ctx context.Context, sessionID string) ([]Record, error)
}
