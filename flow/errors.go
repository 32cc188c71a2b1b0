package flow

import "errors"

// ErrDuplicateName indicates that a node template was registered with a
// name already held by another template. Raised synchronously at
// registration; not recoverable.
var ErrDuplicateName = errors.New("flow: duplicate node name")

// ErrUnknownNode indicates a name that does not correspond to any
// registered node template (e.g. an edge naming a node never added).
var ErrUnknownNode = errors.New("flow: unknown node name")

// ErrInvalidRouting indicates Routing.Add/Skip referenced a successor name
// that is not one of the node's outgoing edges.
var ErrInvalidRouting = errors.New("flow: invalid routing target")

// ErrInputNotFound indicates ExecutorContext.Inputs.Get was called with a
// name that is not one of the node's declared predecessors.
var ErrInputNotFound = errors.New("flow: input not found")

// ErrTopologyFrozen indicates AddNode or Connect was called after the
// Workflow has dispatched its first trigger. Topology is immutable once
// any session may have cloned it.
var ErrTopologyFrozen = errors.New("flow: topology frozen after first trigger")

// ErrSessionReaped indicates an operation referenced a session id that the
// reaper already removed; the caller should simply retrigger, which
// lazily creates a fresh session.
var ErrSessionReaped = errors.New("flow: session reaped")

// ExecuteError is the structured error recorded when a node body raises
// during execute, or when the engine itself rejects a node's routing
// decisions. It is returned from the top-level Trigger so the external caller
// observes it, and it is also what IOStatus.Message is derived from.
type ExecuteError struct {
	// NodeName identifies which node produced this error.
	NodeName string
	// Code is a machine-readable error code; matches the taxonomy in
	// spec.md §7 (e.g. "invalid_routing", "input_not_found", "execute_raised").
	Code string
	// Message is the human-readable description.
	Message string
	// Cause is the underlying error, if any (e.g. the panic recovered from
	// a node body, or one of the sentinels above).
	Cause error
}

// Error implements the error interface.
func (e *ExecuteError) Error() string {
	if e.NodeName != "" {
		return "node " + e.NodeName + ": " + e.Message
	}
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/errors.As support.
func (e *ExecuteError) Unwrap() error {
	return e.Cause
}
