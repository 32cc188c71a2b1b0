package flow

import "sync"

// Execution is the running record of one trigger's pass through the graph:
// every node's recorded IO, keyed by node name, plus which nodes are
// currently mid-run for diagnostics. One Execution belongs to exactly one
// Session and is never shared across sessions.
type Execution struct {
	// ID is the execution identifier supplied by the external caller (or
	// generated by the Workflow if the caller left it blank).
	ID string

	mu      sync.Mutex
	nodes   map[string]IO
	running map[string]struct{}
}

func newExecution(id string) *Execution {
	return &Execution{
		ID:      id,
		nodes:   make(map[string]IO),
		running: make(map[string]struct{}),
	}
}

// record stores a node's completed IO for this execution, reporting
// whether a prior record for the same node name existed. A loop body can
// legitimately run more than once within one execution id (spec.md §9),
// so overwrite is expected rather than forbidden — the caller is
// responsible for surfacing the overwrite as a warning event.
func (e *Execution) record(nodeName string, io IO) (overwritten bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, overwritten = e.nodes[nodeName]
	e.nodes[nodeName] = io
	return overwritten
}

// Lookup returns the recorded IO for a node that has already completed in
// this execution, if any.
func (e *Execution) Lookup(nodeName string) (IO, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	io, ok := e.nodes[nodeName]
	return io, ok
}

// enter marks nodeName as currently running, for introspection via
// Running. Paired with leave.
func (e *Execution) enter(nodeName string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running[nodeName] = struct{}{}
}

func (e *Execution) leave(nodeName string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.running, nodeName)
}

// Running returns the names of nodes currently mid-execute for this
// execution id. Diagnostic only.
func (e *Execution) Running() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, len(e.running))
	for name := range e.running {
		names = append(names, name)
	}
	return names
}
