package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemRecorder_AppendAndHistory(t *testing.T) {
	r := NewMemRecorder()
	ctx := context.Background()

	rec1 := Record{SessionID: "s1", ExecutionID: "e1", NodeName: "fetch", Status: "success", RecordedAt: time.Now()}
	rec2 := Record{SessionID: "s1", ExecutionID: "e1", NodeName: "classify", Status: "success", RecordedAt: time.Now()}

	if err := r.Append(ctx, rec1); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := r.Append(ctx, rec2); err != nil {
		t.Fatalf("Append: %v", err)
	}

	hist, err := r.History(ctx, "s1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("got %d records, want 2", len(hist))
	}
	if hist[0].NodeName != "fetch" || hist[1].NodeName != "classify" {
		t.Fatalf("unexpected order: %+v", hist)
	}
}

func TestMemRecorder_UnknownSession(t *testing.T) {
	r := NewMemRecorder()
	_, err := r.History(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestMemRecorder_SessionIsolation(t *testing.T) {
	r := NewMemRecorder()
	ctx := context.Background()
	_ = r.Append(ctx, Record{SessionID: "a", NodeName: "n1", RecordedAt: time.Now()})
	_ = r.Append(ctx, Record{SessionID: "b", NodeName: "n2", RecordedAt: time.Now()})

	histA, err := r.History(ctx, "a")
	if err != nil || len(histA) != 1 {
		t.Fatalf("session a: %v %v", histA, err)
	}
	histB, err := r.History(ctx, "b")
	if err != nil || len(histB) != 1 {
		t.Fatalf("session b: %v %v", histB, err)
	}
}

func TestMemRecorder_InterfaceContract(t *testing.T) {
	var _ Recorder = (*MemRecorder)(nil)
}
