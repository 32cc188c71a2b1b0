package tool

import (
	"context"
	"sync"
)

// MockTool is a Tool test double: canned responses in order, optional
// error injection, and a recorded call history so an AgentNode test can
// assert what arguments the model's tool call actually carried.
type MockTool struct {
	// ToolName is returned by Name.
	ToolName string

	// Responses is returned in order, one per call; the last entry repeats
	// once exhausted.
	Responses []map[string]interface{}

	// Err, if set, is returned instead of a response.
	Err error

	// Calls records every invocation in arrival order.
	Calls []MockToolCall

	mu        sync.Mutex
	callIndex int
}

// MockToolCall records one Call invocation's input.
type MockToolCall struct {
	Input map[string]interface{}
}

// Name implements Tool.
func (m *MockTool) Name() string {
	return m.ToolName
}

// Call implements Tool.
func (m *MockTool) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockToolCall{Input: input})

	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Responses) == 0 {
		return map[string]interface{}{}, nil
	}

	idx := m.callIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	} else {
		m.callIndex++
	}
	return m.Responses[idx], nil
}

// Reset clears call history so the same mock can be reused across cases
// within one test without a fresh literal.
func (m *MockTool) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = nil
	m.callIndex = 0
}

// CallCount returns how many times Call has been invoked.
func (m *MockTool) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.Calls)
}

// LastCall returns the most recent recorded call, for AgentNode tests that
// only care about the final tool invocation in a multi-step loop.
func (m *MockTool) LastCall() (MockToolCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Calls) == 0 {
		return MockToolCall{}, false
	}
	return m.Calls[len(m.Calls)-1], true
}
