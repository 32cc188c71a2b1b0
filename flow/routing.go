package flow

// RoutingPolicy is the default per-successor status a Routing starts with
// before the node body runs any Add/Skip calls.
type RoutingPolicy int

const (
	// Broadcast marks every successor success by default.
	Broadcast RoutingPolicy = iota
	// Clear marks every successor skipped by default.
	Clear
)

// Routing is the per-execution, per-successor decision a node body makes
// about which outgoing edges carry forward work. Construction applies the
// node's configured default policy; the body then overrides entries with
// Add/Skip/Broadcast/Clear. Routing decisions are evaluated once per node
// execution and must not be read after fan-out has started.
type Routing struct {
	choices map[string]IOStatus
	metrics *Metrics
}

// newRouting builds a Routing whose keys are exactly the given successor
// names, all set to the given default policy. metrics may be nil.
func newRouting(successors []string, policy RoutingPolicy, metrics *Metrics) *Routing {
	status := StatusSuccess
	if policy == Clear {
		status = StatusSkipped
	}
	choices := make(map[string]IOStatus, len(successors))
	for _, name := range successors {
		choices[name] = IOStatus{Execution: status}
	}
	return &Routing{choices: choices, metrics: metrics}
}

// NewRouting builds a Routing over the given successor names for node
// bodies that want to unit-test Execute without running a full workflow.
// The engine itself always builds Routing via newRouting with live metrics.
func NewRouting(successors []string, policy RoutingPolicy) *Routing {
	return newRouting(successors, policy, nil)
}

// Add marks the named successors success. Returns ErrInvalidRouting if any
// name is not one of the node's outgoing edges.
func (r *Routing) Add(names ...string) error {
	return r.set(StatusSuccess, names)
}

// Skip marks the named successors skipped. Returns ErrInvalidRouting if any
// name is not one of the node's outgoing edges.
func (r *Routing) Skip(names ...string) error {
	return r.set(StatusSkipped, names)
}

// Broadcast marks every successor success.
func (r *Routing) Broadcast() {
	for name := range r.choices {
		r.choices[name] = IOStatus{Execution: StatusSuccess}
	}
}

// Clear marks every successor skipped.
func (r *Routing) Clear() {
	for name := range r.choices {
		r.choices[name] = IOStatus{Execution: StatusSkipped}
	}
}

// fail marks every successor skipped and attaches the failure message —
// the forced-clear-on-failure behavior from spec.md §4.3 step 6 / §7.
func (r *Routing) fail(message string) {
	for name := range r.choices {
		r.choices[name] = IOStatus{Execution: StatusSkipped, Message: message}
	}
}

func (r *Routing) set(status ExecutionStatus, names []string) error {
	for _, name := range names {
		if _, ok := r.choices[name]; !ok {
			if r.metrics != nil {
				r.metrics.routingInvalidTotal.Inc()
			}
			return &ExecuteError{Code: "invalid_routing", Message: "unknown successor " + name, Cause: ErrInvalidRouting}
		}
	}
	for _, name := range names {
		r.choices[name] = IOStatus{Execution: status}
	}
	return nil
}

// statusFor returns the decided status for a successor. Callers only ever
// pass names drawn from the node's own outgoing edges, so a missing entry
// is a programmer error in the engine, not user input.
func (r *Routing) statusFor(successor string) IOStatus {
	return r.choices[successor]
}

// StatusFor exposes statusFor for node bodies unit-testing routing
// decisions without running a full workflow.
func (r *Routing) StatusFor(successor string) IOStatus {
	return r.statusFor(successor)
}
