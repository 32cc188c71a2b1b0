package emit

import (
	"context"
	"testing"
)

func TestEmitter_InterfaceContract(t *testing.T) {
	var _ Emitter = (*mockEmitter)(nil)
}

type mockEmitter struct {
	events []Event
}

func (m *mockEmitter) Emit(event Event) {
	m.events = append(m.events, event)
}

func (m *mockEmitter) EmitBatch(_ context.Context, events []Event) error {
	m.events = append(m.events, events...)
	return nil
}

func (m *mockEmitter) Flush(_ context.Context) error {
	return nil
}

func TestEmitter_Emit(t *testing.T) {
	t.Run("emit single event", func(t *testing.T) {
		emitter := &mockEmitter{}

		emitter.Emit(Event{SessionID: "sess-1", ExecutionID: "exec-1", NodeName: "node1", Msg: "test event"})

		if len(emitter.events) != 1 {
			t.Fatalf("expected 1 event, got %d", len(emitter.events))
		}
		if emitter.events[0].Msg != "test event" {
			t.Errorf("expected Msg = 'test event', got %q", emitter.events[0].Msg)
		}
	})

	t.Run("emit multiple events", func(t *testing.T) {
		emitter := &mockEmitter{}

		for i := 0; i < 3; i++ {
			emitter.Emit(Event{SessionID: "sess-1", Msg: "event"})
		}

		if len(emitter.events) != 3 {
			t.Fatalf("expected 3 events, got %d", len(emitter.events))
		}
	})

	t.Run("emit with metadata", func(t *testing.T) {
		emitter := &mockEmitter{}

		emitter.Emit(Event{
			SessionID: "sess-1", NodeName: "llm", Msg: "node_completed",
			Meta: map[string]interface{}{"duration_ms": 250},
		})

		if emitter.events[0].Meta["duration_ms"] != 250 {
			t.Errorf("expected duration_ms = 250, got %v", emitter.events[0].Meta["duration_ms"])
		}
	})

	t.Run("emit zero value event", func(t *testing.T) {
		emitter := &mockEmitter{}
		emitter.Emit(Event{})
		if len(emitter.events) != 1 {
			t.Fatalf("expected 1 event, got %d", len(emitter.events))
		}
	})
}
