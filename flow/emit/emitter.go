// Package emit provides event emission and observability for workflow execution.
package emit

import "context"

// Emitter receives observability events from a running Workflow.
//
// Emitters enable pluggable observability backends:
// - Logging: stdout, files, syslog.
// - Distributed tracing: OpenTelemetry, Jaeger, Zipkin.
// - Metrics: Prometheus, StatsD.
//
// Implementations should be:
// - Non-blocking: avoid slowing down node execution.
// - Thread-safe: called concurrently from every node instance fanning out.
// - Resilient: handle failures gracefully (don't crash the workflow).
type Emitter interface {
	// Emit sends one observability event. Must not block or panic.
	Emit(event Event)

	// EmitBatch sends multiple events in a single operation for backends
	// that amortize network round-trips across bulk inserts.
	//
	// Example usage:
	//
	//	events := []emit.Event{
	//	    {SessionID: "s1", ExecutionID: "e1", NodeName: "fetch", Msg: "node_started"},
	//	    {SessionID: "s1", ExecutionID: "e1", NodeName: "fetch", Msg: "node_completed"},
	//	}
	//	if err := emitter.EmitBatch(ctx, events); err != nil {
	//	    log.Printf("batch emit failed: %v", err)
	//	}
	//
	// Returns error only on catastrophic failures (e.g. configuration
	// errors); individual event failures should be logged, not returned.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until all buffered events are sent to the backend, or
	// ctx is done. Call before shutdown to avoid losing the tail of a run.
	Flush(ctx context.Context) error
}
