package flow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/dagflow/flow/emit"
	"github.com/dshills/dagflow/flow/store"
)

// NodeBody is the user-supplied compute a node performs for one execution.
// The engine runs at most one invocation at a time on a given clone,
// whatever the execution id; clones in different sessions run
// concurrently, so a body shared across sessions (one that does not
// implement Cloner) must be safe for concurrent use.
type NodeBody interface {
	Execute(ctx context.Context, ec *ExecutorContext) (any, error)
}

// NodeFunc adapts a plain function to NodeBody, the way teacher's
// graph.NodeFunc adapts functions into its Node interface.
type NodeFunc func(ctx context.Context, ec *ExecutorContext) (any, error)

// Execute calls f.
func (f NodeFunc) Execute(ctx context.Context, ec *ExecutorContext) (any, error) {
	return f(ctx, ec)
}

// Cloner is implemented by node bodies that carry per-session state (a
// classifier's learned weights, a running counter). NewInstance returns a
// fresh, independent body for a new session's clone of the node; the
// template's own body is never mutated or shared across sessions. Bodies
// that are pure functions of their input need not implement Cloner — the
// template body is reused directly as every session's clone.
type Cloner interface {
	NewInstance() NodeBody
}

// NodeTemplate is the graph-definition-time description of a node: its
// name, its compute, and its declared edges. Templates are registered once
// on a Workflow and never mutated after the workflow's topology freezes;
// every Session clones its own independent nodeInstance from each
// template on first trigger, per spec.md §9's template/clone split.
type NodeTemplate struct {
	name   string
	body   NodeBody
	policy *RoutingPolicy

	predecessors []string
	successors   []string
}

// NewNode declares a node template. body may optionally implement Cloner
// if it carries state that must not be shared across session clones.
func NewNode(name string, body NodeBody) *NodeTemplate {
	return &NodeTemplate{name: name, body: body}
}

// WithRoutingPolicy overrides the workflow's default routing policy for
// this node's outgoing edges. Returns the receiver for chaining at
// declaration time.
func (t *NodeTemplate) WithRoutingPolicy(p RoutingPolicy) *NodeTemplate {
	t.policy = &p
	return t
}

// Name returns the template's registered name.
func (t *NodeTemplate) Name() string {
	return t.name
}

func (t *NodeTemplate) clone() NodeBody {
	if c, ok := t.body.(Cloner); ok {
		return c.NewInstance()
	}
	return t.body
}

func (t *NodeTemplate) effectivePolicy(workflowDefault RoutingPolicy) RoutingPolicy {
	if t.policy != nil {
		return *t.policy
	}
	return workflowDefault
}

// instanceDispatcher is the subset of Workflow a running nodeInstance needs
// to reach sibling clones during fan-out. Kept as an interface so node.go
// has no compile-time cycle with workflow.go's concrete type.
type instanceDispatcher interface {
	instanceFor(s *Session, name string) (*nodeInstance, error)
}

// nodeInstance is one session's private clone of a NodeTemplate: its own
// body, its own InputsQueue, and the re-entrancy flag that lets only one
// activation run at a time, for any execution id.
type nodeInstance struct {
	tmpl          *NodeTemplate
	body          NodeBody
	policy        RoutingPolicy
	queue         *InputsQueue
	wf            instanceDispatcher
	emitter       emit.Emitter
	metrics       *Metrics
	recorder      store.Recorder
	warnThreshold int

	mu      sync.Mutex
	running bool
}

func newNodeInstance(tmpl *NodeTemplate, policy RoutingPolicy, wf instanceDispatcher, cfg *workflowConfig) *nodeInstance {
	return &nodeInstance{
		tmpl:          tmpl,
		body:          tmpl.clone(),
		policy:        policy,
		queue:         newInputsQueue(tmpl.name, tmpl.predecessors),
		wf:            wf,
		emitter:       cfg.emitter,
		metrics:       cfg.metrics,
		recorder:      cfg.recorder,
		warnThreshold: cfg.inputQueueWarnThreshold,
	}
}

// run implements spec.md §4.3's ten-step node algorithm:
//  1. put the arriving IO into the inputs queue
//  2. if the instance's running flag is already set, return — the
//     activation holding it will pick up the late input (or, for an
//     unrelated execution id, this arrival is simply collapsed away; see
//     spec.md §5 on intra-session serialization)
//  3. otherwise claim the flag and await the gathered input set
//  4. decide skip (no predecessor succeeded) vs execute
//  5. build the ExecutorContext
//  6. invoke the body, recovering panics into ExecuteError
//  7. a returned error or panic clears routing to skip every successor
//  8. record the resulting IO into the execution
//  9. touch the session to reset its TTL countdown
//  10. fan out one IO per successor, joined with errgroup; running is
//     cleared on return, after the join
func (n *nodeInstance) run(ctx context.Context, s *Session, io IO) error {
	execID := io.Source.ExecutionID
	n.queue.Put(io)
	if n.warnThreshold > 0 {
		if backlog := n.queue.Backlog(); backlog >= n.warnThreshold {
			n.emit(s.ID, execID, "input_queue_backlogged", map[string]interface{}{"backlog": backlog})
		}
	}

	// At most one activation of this instance is ever inside the block
	// below, regardless of execution id: per spec.md §5 this is a
	// deliberate simplification, not a per-execution guard. Concurrent
	// arrivals for a different execution id at the same node within the
	// same session serialize behind whichever activation is already
	// running.
	n.mu.Lock()
	if n.running {
		n.mu.Unlock()
		return nil
	}
	n.running = true
	n.mu.Unlock()
	defer func() {
		n.mu.Lock()
		n.running = false
		n.mu.Unlock()
	}()

	ios := n.queue.Get(execID)
	exec := s.execution(execID)

	routing := newRouting(n.tmpl.successors, n.policy, n.metrics)

	var output any
	var status IOStatus
	var execErr error

	if !anySuccessful(ios) {
		output = NotProcessed
		status = IOStatus{Execution: StatusSkipped, Message: "no successful inputs"}
		routing.Clear()
		n.emit(s.ID, execID, "node_skipped", nil)
	} else {
		ec := &ExecutorContext{
			Inputs:    newInputs(ios),
			Routing:   routing,
			Session:   s,
			Execution: exec,
			NodeName:  n.tmpl.name,
		}
		n.emit(s.ID, execID, "node_started", nil)
		exec.enter(n.tmpl.name)
		if n.metrics != nil {
			n.metrics.nodesRunning.Inc()
		}
		out, err := n.safeExecute(ctx, ec)
		if n.metrics != nil {
			n.metrics.nodesRunning.Dec()
		}
		exec.leave(n.tmpl.name)
		if err != nil {
			output = NotProcessed
			status = IOStatus{Execution: StatusFailed, Message: err.Error()}
			routing.fail(err.Error())
			execErr = err
			n.emit(s.ID, execID, "node_failed", map[string]interface{}{"message": err.Error()})
		} else {
			output = out
			status = IOStatus{Execution: StatusSuccess}
			n.emit(s.ID, execID, "node_completed", nil)
		}
	}
	n.metrics.recordRun(status.Execution)

	resultIO := IO{
		Source: IOSource{SessionID: s.ID, ExecutionID: execID, OriginNode: n.tmpl.name},
		Status: status,
		Output: output,
	}
	if exec.record(n.tmpl.name, resultIO) {
		n.emit(s.ID, execID, "node_record_overwritten", map[string]interface{}{"node": n.tmpl.name})
	}
	s.touch()
	n.recordAudit(ctx, s.ID, execID, status, output)

	if len(n.tmpl.successors) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		for _, succName := range n.tmpl.successors {
			succName := succName
			fanIO := IO{
				Source: resultIO.Source,
				Status: routing.statusFor(succName),
				Output: output,
			}
			g.Go(func() error {
				succ, err := n.wf.instanceFor(s, succName)
				if err != nil {
					return err
				}
				return succ.run(gctx, s, fanIO)
			})
		}
		if ferr := g.Wait(); ferr != nil {
			return ferr
		}
	}

	// A node body's own failure is re-raised only after its successors'
	// skip has been recorded, per spec.md invariant: fan-out always
	// completes before run() surfaces the originating error.
	return execErr
}

// emit reports a node lifecycle event if an emitter is configured.
func (n *nodeInstance) emit(sessionID, executionID, msg string, meta map[string]interface{}) {
	if n.emitter == nil {
		return
	}
	n.emitter.Emit(emit.Event{SessionID: sessionID, ExecutionID: executionID, NodeName: n.tmpl.name, Msg: msg, Meta: meta})
}

// recordAudit appends this run's outcome to the configured Recorder, if
// any. A recorder failure is reported as an emitter event rather than
// propagated — losing an audit entry must never fail the execution that
// produced it.
func (n *nodeInstance) recordAudit(ctx context.Context, sessionID, execID string, status IOStatus, output any) {
	if n.recorder == nil {
		return
	}
	rec := store.Record{
		SessionID:   sessionID,
		ExecutionID: execID,
		NodeName:    n.tmpl.name,
		Status:      status.Execution.String(),
		Message:     status.Message,
		RecordedAt:  time.Now(),
	}
	if output != nil && output != NotProcessed {
		rec.Output = fmt.Sprint(output)
	}
	if err := n.recorder.Append(ctx, rec); err != nil {
		n.emit(sessionID, execID, "audit_append_failed", map[string]interface{}{"message": err.Error()})
	}
}

// safeExecute recovers a panicking body into an ExecuteError rather than
// crashing the fan-out goroutine, per spec.md §7's error taxonomy.
func (n *nodeInstance) safeExecute(ctx context.Context, ec *ExecutorContext) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ExecuteError{NodeName: n.tmpl.name, Code: "execute_panicked", Message: fmt.Sprint(r)}
		}
	}()
	out, err = n.body.Execute(ctx, ec)
	if err != nil {
		return nil, &ExecuteError{NodeName: n.tmpl.name, Code: "execute_raised", Message: err.Error(), Cause: err}
	}
	return out, nil
}

func anySuccessful(ios []IO) bool {
	for _, io := range ios {
		if io.Status.Execution == StatusSuccess {
			return true
		}
	}
	return false
}
