package flow

import "testing"

func TestExecution_RecordAndLookup(t *testing.T) {
	e := newExecution("e1")
	if _, ok := e.Lookup("A"); ok {
		t.Fatal("expected no record before any write")
	}
	io := IO{Source: IOSource{OriginNode: "A"}, Status: IOStatus{Execution: StatusSuccess}, Output: 1}
	if overwritten := e.record("A", io); overwritten {
		t.Fatal("first record of A reported an overwrite")
	}
	got, ok := e.Lookup("A")
	if !ok || got.Output != 1 {
		t.Fatalf("got (%v, %v), want (Output=1, true)", got, ok)
	}
}

func TestExecution_RecordReportsOverwriteForLoopBodies(t *testing.T) {
	e := newExecution("e1")
	first := IO{Source: IOSource{OriginNode: "A"}, Status: IOStatus{Execution: StatusSuccess}, Output: 1}
	second := IO{Source: IOSource{OriginNode: "A"}, Status: IOStatus{Execution: StatusSuccess}, Output: 2}
	e.record("A", first)
	if overwritten := e.record("A", second); !overwritten {
		t.Fatal("second record of A did not report an overwrite")
	}
	got, _ := e.Lookup("A")
	if got.Output != 2 {
		t.Fatalf("got Output=%v, want 2 (last write wins)", got.Output)
	}
}

func TestExecution_EnterLeaveTracksRunning(t *testing.T) {
	e := newExecution("e1")
	e.enter("A")
	running := e.Running()
	if len(running) != 1 || running[0] != "A" {
		t.Fatalf("got %v, want [A]", running)
	}
	e.leave("A")
	if len(e.Running()) != 0 {
		t.Fatal("expected no nodes running after leave")
	}
}
