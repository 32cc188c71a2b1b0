package flow

import (
	"container/list"
	"sync"
	"time"
)

// Memory is a session's shared scratchpad: a bounded message history, an
// unbounded fact list, and a free-form key/value map. It is the one piece
// of state every cloned node in a session can read and write, independent
// of the inputs-queue/routing data plane.
type Memory struct {
	mu       sync.Mutex
	messages *list.List
	cap      int
	facts    []string
	fields   map[string]any
}

func newMemory(messagesCap int) *Memory {
	return &Memory{
		messages: list.New(),
		cap:      messagesCap,
		fields:   make(map[string]any),
	}
}

// AddMessage appends to the message history, evicting the oldest entry
// once the configured cap is exceeded.
func (m *Memory) AddMessage(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages.PushBack(msg)
	for m.cap > 0 && m.messages.Len() > m.cap {
		m.messages.Remove(m.messages.Front())
	}
}

// Messages returns the current message history, oldest first.
func (m *Memory) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, m.messages.Len())
	for e := m.messages.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(string))
	}
	return out
}

// AddFact appends to the unbounded fact list.
func (m *Memory) AddFact(fact string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.facts = append(m.facts, fact)
}

// Facts returns the accumulated fact list.
func (m *Memory) Facts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.facts))
	copy(out, m.facts)
	return out
}

// Set stores a value under key in the shared field map.
func (m *Memory) Set(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fields[key] = value
}

// Get retrieves a value previously stored with Set.
func (m *Memory) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.fields[key]
	return v, ok
}

// Session owns one caller's private clone of the workflow graph: a
// deep-cloned node instance per template, the executions triggered within
// it, and the shared Memory those clones read and write. A session is
// created lazily on first trigger and reaped after it has been idle for
// the workflow's configured TTL.
type Session struct {
	// ID is the session identifier supplied by the external caller.
	ID     string
	Memory *Memory

	mu         sync.Mutex
	nodes      map[string]*nodeInstance
	executions map[string]*Execution
	lastTouch  time.Time
}

func newSession(id string, messagesCap int) *Session {
	return &Session{
		ID:         id,
		Memory:     newMemory(messagesCap),
		nodes:      make(map[string]*nodeInstance),
		executions: make(map[string]*Execution),
		lastTouch:  time.Now(),
	}
}

// touch records activity, resetting the TTL countdown. Called on every
// trigger and every node completion that belongs to this session.
func (s *Session) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTouch = time.Now()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTouch
}

// execution returns the Execution for id, creating one on first sighting.
func (s *Session) execution(id string) *Execution {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.executions[id]
	if !ok {
		e = newExecution(id)
		s.executions[id] = e
	}
	return e
}

func (s *Session) instance(name string) (*nodeInstance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[name]
	return n, ok
}

func (s *Session) setInstance(name string, n *nodeInstance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[name] = n
}
