package flow

import "sync"

// waiter is a single-shot future: exactly one goroutine resolves it with
// the ordered input set for one execution id, and exactly one goroutine
// (the node's own run) consumes it.
type waiter struct {
	done chan struct{}
	ios  []IO
}

func newWaiter() *waiter {
	return &waiter{done: make(chan struct{})}
}

func (w *waiter) resolve(ios []IO) {
	w.ios = ios
	close(w.done)
}

// pending tracks, for one (node, execution) pair, which predecessors are
// still required and what has arrived so far.
type pending struct {
	required map[string]struct{}
	received map[string]IO
	w        *waiter
}

// InputsQueue is the per-node fan-in synchronizer described in spec.md
// §4.1: it gathers exactly one IO from every input edge for a given
// execution id before releasing the set to the node body, absorbing skips
// from the required set as they arrive.
//
// One InputsQueue exists per cloned node instance, never shared across
// sessions or templates.
type InputsQueue struct {
	mu         sync.Mutex
	order      []string // canonical input-edge declaration order, by predecessor name
	pending    map[string]*pending
	selfName   string
}

// newInputsQueue builds a queue for a node whose predecessors, in
// connect()-declaration order, are predecessorNames. selfName is excluded
// from the required set even if present, so benign self-loops in test
// graphs never block on their own prior output.
func newInputsQueue(selfName string, predecessorNames []string) *InputsQueue {
	order := make([]string, 0, len(predecessorNames))
	for _, name := range predecessorNames {
		if name == selfName {
			continue
		}
		order = append(order, name)
	}
	return &InputsQueue{
		selfName: selfName,
		order:    order,
		pending:  make(map[string]*pending),
	}
}

// Put records one predecessor's contribution to one execution. External
// inputs (IOSource with no OriginNode) resolve a single-item waiter
// immediately, bypassing the required-set machinery entirely — an entry
// node has no in-graph predecessors to wait on.
func (q *InputsQueue) Put(io IO) {
	if io.Source.external() {
		q.mu.Lock()
		p := q.entry(io.Source.ExecutionID, nil)
		q.mu.Unlock()
		p.w.resolve([]IO{io})
		return
	}

	producer := io.Source.originName()

	q.mu.Lock()
	p := q.entry(io.Source.ExecutionID, q.order)

	if io.Status.Execution != StatusSuccess {
		delete(p.required, producer)
	}
	p.received[producer] = io

	ready := subsetOf(p.required, p.received)
	var resolved *waiter
	var ios []IO
	if ready {
		delete(q.pending, io.Source.ExecutionID)
		resolved = p.w
		ios = q.ordered(p.received)
	}
	q.mu.Unlock()

	if resolved != nil {
		resolved.resolve(ios)
	}
}

// Get suspends until the waiter for executionID resolves, then returns the
// ordered input set. Safe to call concurrently with Put for the same
// execution id; callers must not call Get twice for the same id.
func (q *InputsQueue) Get(executionID string) []IO {
	q.mu.Lock()
	p := q.entry(executionID, q.order)
	q.mu.Unlock()

	<-p.w.done
	return p.w.ios
}

// entry returns the pending record for executionID, creating one (with a
// snapshot of requiredOrder as the required set) on first sighting.
// Must be called with q.mu held.
func (q *InputsQueue) entry(executionID string, requiredOrder []string) *pending {
	p, ok := q.pending[executionID]
	if ok {
		return p
	}
	required := make(map[string]struct{}, len(requiredOrder))
	for _, name := range requiredOrder {
		required[name] = struct{}{}
	}
	p = &pending{
		required: required,
		received: make(map[string]IO),
		w:        newWaiter(),
	}
	q.pending[executionID] = p
	return p
}

// ordered sorts a completed received map into canonical input-edge
// declaration order, per spec.md invariant 4.
func (q *InputsQueue) ordered(received map[string]IO) []IO {
	ios := make([]IO, 0, len(received))
	for _, name := range q.order {
		if io, ok := received[name]; ok {
			ios = append(ios, io)
		}
	}
	return ios
}

// Backlog reports how many execution ids currently have a pending,
// unresolved fan-in on this queue. Diagnostic only — used to decide when
// to emit a backpressure warning, never to refuse work.
func (q *InputsQueue) Backlog() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func subsetOf(required map[string]struct{}, received map[string]IO) bool {
	for name := range required {
		if _, ok := received[name]; !ok {
			return false
		}
	}
	return true
}
