package flow

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/dagflow/flow/emit"
)

// Workflow is the graph of node templates plus the runtime machinery that
// turns external triggers into sessions, executions, and node runs. One
// Workflow is built once at startup; Connect calls freeze after the first
// Trigger, since any session may have already cloned the topology.
type Workflow struct {
	cfg *workflowConfig

	mu        sync.RWMutex
	templates map[string]*NodeTemplate
	frozen    bool

	sessMu   sync.Mutex
	sessions map[string]*Session

	stop chan struct{}
	done chan struct{}
}

// New builds a Workflow with the given options applied over sane defaults.
func New(opts ...Option) (*Workflow, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	w := &Workflow{
		cfg:       cfg,
		templates: make(map[string]*NodeTemplate),
		sessions:  make(map[string]*Session),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	if cfg.sessionTTL > 0 {
		go w.reapLoop()
	} else {
		close(w.done)
	}
	return w, nil
}

// AddNode registers a node template. Returns ErrDuplicateName if the name
// is already registered, or ErrTopologyFrozen once any session has
// triggered.
func (w *Workflow) AddNode(t *NodeTemplate) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.frozen {
		return &ExecuteError{Code: "topology_frozen", Message: "cannot add node " + t.name + " after first trigger", Cause: ErrTopologyFrozen}
	}
	if _, exists := w.templates[t.name]; exists {
		return &ExecuteError{NodeName: t.name, Code: "duplicate_name", Message: "node already registered", Cause: ErrDuplicateName}
	}
	w.templates[t.name] = t
	return nil
}

// Connect declares an edge from -> to: to will wait on a contribution from
// from for every execution, and from's fan-out will route to to. Returns
// ErrUnknownNode if either name isn't registered, or ErrTopologyFrozen
// after the first trigger.
func (w *Workflow) Connect(from, to string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.frozen {
		return &ExecuteError{Code: "topology_frozen", Message: "cannot connect after first trigger", Cause: ErrTopologyFrozen}
	}
	fromT, ok := w.templates[from]
	if !ok {
		return &ExecuteError{NodeName: from, Code: "unknown_node", Message: "unknown node " + from, Cause: ErrUnknownNode}
	}
	toT, ok := w.templates[to]
	if !ok {
		return &ExecuteError{NodeName: to, Code: "unknown_node", Message: "unknown node " + to, Cause: ErrUnknownNode}
	}
	fromT.successors = append(fromT.successors, to)
	toT.predecessors = append(toT.predecessors, from)
	return nil
}

// Trigger submits external input to entryNode for a given session and
// execution, lazily creating the session if it doesn't exist yet. If
// executionID is empty, a fresh one is generated. Blocks until the full
// fan-out for this execution has completed.
func (w *Workflow) Trigger(ctx context.Context, sessionID, entryNode, executionID string, payload any) error {
	w.mu.Lock()
	w.frozen = true
	_, ok := w.templates[entryNode]
	w.mu.Unlock()
	if !ok {
		return &ExecuteError{NodeName: entryNode, Code: "unknown_node", Message: "unknown node " + entryNode, Cause: ErrUnknownNode}
	}
	if executionID == "" {
		executionID = uuid.NewString()
	}

	s := w.getOrCreateSession(sessionID)
	s.touch()

	inst, err := w.instanceFor(s, entryNode)
	if err != nil {
		return err
	}

	io := IO{
		Source: IOSource{SessionID: sessionID, ExecutionID: executionID},
		Status: IOStatus{Execution: StatusSuccess},
		Output: payload,
	}
	w.cfg.emitter.Emit(emit.Event{SessionID: sessionID, ExecutionID: executionID, NodeName: entryNode, Msg: "node_enqueued"})
	if w.cfg.metrics != nil {
		w.cfg.metrics.executionsActive.Inc()
		defer w.cfg.metrics.executionsActive.Dec()
	}
	return inst.run(ctx, s, io)
}

// Session returns the live session for id, if one exists and hasn't been
// reaped. Mostly useful for tests and diagnostics.
func (w *Workflow) Session(id string) (*Session, bool) {
	w.sessMu.Lock()
	defer w.sessMu.Unlock()
	s, ok := w.sessions[id]
	return s, ok
}

func (w *Workflow) getOrCreateSession(id string) *Session {
	w.sessMu.Lock()
	defer w.sessMu.Unlock()
	s, ok := w.sessions[id]
	if ok {
		return s
	}
	s = newSession(id, w.cfg.messagesCap)
	w.sessions[id] = s
	w.cfg.emitter.Emit(emit.Event{SessionID: id, Msg: "session_created"})
	if w.cfg.metrics != nil {
		w.cfg.metrics.sessionsActive.Inc()
	}
	return s
}

// instanceFor returns the session's clone of the named node template,
// deep-cloning it on first access. Implements instanceDispatcher for
// node.go's fan-out.
func (w *Workflow) instanceFor(s *Session, name string) (*nodeInstance, error) {
	if inst, ok := s.instance(name); ok {
		return inst, nil
	}

	w.mu.RLock()
	tmpl, ok := w.templates[name]
	w.mu.RUnlock()
	if !ok {
		return nil, &ExecuteError{NodeName: name, Code: "unknown_node", Message: "unknown node " + name, Cause: ErrUnknownNode}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if inst, ok := s.nodes[name]; ok {
		return inst, nil
	}
	inst := newNodeInstance(tmpl, tmpl.effectivePolicy(w.cfg.defaultPolicy), w, w.cfg)
	s.nodes[name] = inst
	return inst, nil
}

// reapLoop removes sessions idle past the configured TTL. Mirrors the
// original engine's periodic sweep rather than a per-session timer, so
// reaping a workflow with many idle sessions stays O(sessions) per tick
// instead of spawning one goroutine per session.
func (w *Workflow) reapLoop() {
	defer close(w.done)
	ticker := time.NewTicker(w.cfg.sessionTTL)
	defer ticker.Stop()
	for {
		select {
		case <-w.stop:
			return
		case now := <-ticker.C:
			w.reapOnce(now)
		}
	}
}

func (w *Workflow) reapOnce(now time.Time) {
	w.sessMu.Lock()
	var reaped []string
	for id, s := range w.sessions {
		if now.Sub(s.idleSince()) >= w.cfg.sessionTTL {
			delete(w.sessions, id)
			reaped = append(reaped, id)
		}
	}
	w.sessMu.Unlock()

	for _, id := range reaped {
		w.cfg.emitter.Emit(emit.Event{SessionID: id, Msg: "session_reaped"})
		if w.cfg.metrics != nil {
			w.cfg.metrics.sessionsActive.Dec()
			w.cfg.metrics.sessionsReapedTotal.Inc()
		}
	}
}

// Close stops the TTL reaper. Call it at most once (typically via defer
// at startup): when reaping is enabled, a second call closes the
// already-closed stop channel and panics.
func (w *Workflow) Close() {
	if w.cfg.sessionTTL > 0 {
		close(w.stop)
		<-w.done
	}
}
