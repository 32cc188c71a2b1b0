package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/dagflow/flow/emit"
	"github.com/dshills/dagflow/flow/store"
)

type panicBody struct{}

func (panicBody) Execute(ctx context.Context, ec *ExecutorContext) (any, error) {
	panic("boom")
}

func newTestNodeInstance(t *testing.T, body NodeBody, cfg *workflowConfig) *nodeInstance {
	t.Helper()
	tmpl := NewNode("N", body)
	if cfg == nil {
		cfg = defaultConfig()
	}
	return newNodeInstance(tmpl, cfg.defaultPolicy, nil, cfg)
}

func TestSafeExecute_RecoversPanicIntoExecuteError(t *testing.T) {
	n := newTestNodeInstance(t, panicBody{}, nil)
	_, err := n.safeExecute(context.Background(), &ExecutorContext{NodeName: "N"})

	var execErr *ExecuteError
	if !errors.As(err, &execErr) {
		t.Fatalf("got %v (%T), want *ExecuteError", err, err)
	}
	if execErr.Code != "execute_panicked" {
		t.Fatalf("got code %q, want execute_panicked", execErr.Code)
	}
}

func TestSafeExecute_WrapsReturnedError(t *testing.T) {
	n := newTestNodeInstance(t, NodeFunc(func(ctx context.Context, ec *ExecutorContext) (any, error) {
		return nil, errors.New("underlying failure")
	}), nil)
	_, err := n.safeExecute(context.Background(), &ExecutorContext{NodeName: "N"})

	var execErr *ExecuteError
	if !errors.As(err, &execErr) {
		t.Fatalf("got %v (%T), want *ExecuteError", err, err)
	}
	if execErr.Code != "execute_raised" {
		t.Fatalf("got code %q, want execute_raised", execErr.Code)
	}
	if !errors.Is(err, errors.Unwrap(execErr)) {
		t.Fatal("expected Unwrap to reach the underlying error")
	}
}

// secondArrivalBody blocks the first execution in flight so a second
// arrival observes the re-entrancy guard.
type secondArrivalBody struct {
	entered chan struct{}
	release chan struct{}
}

func (b *secondArrivalBody) Execute(ctx context.Context, ec *ExecutorContext) (any, error) {
	close(b.entered)
	<-b.release
	return "done", nil
}

func TestRun_SecondArrivalForSameExecutionIDReturnsWithoutRerunning(t *testing.T) {
	body := &secondArrivalBody{entered: make(chan struct{}), release: make(chan struct{})}
	n := newTestNodeInstance(t, body, nil)
	n.tmpl.predecessors = []string{"P1"}
	n.queue = newInputsQueue(n.tmpl.name, n.tmpl.predecessors)

	s := newSession("s1", 10)
	first := make(chan error, 1)
	go func() {
		first <- n.run(context.Background(), s, IO{
			Source: IOSource{SessionID: "s1", ExecutionID: "e1", OriginNode: "P1"},
			Status: IOStatus{Execution: StatusSuccess},
		})
	}()
	<-body.entered

	// Second arrival for the same execution id while the first is still
	// inside Execute: running is already held, so this call must return
	// nil immediately without invoking Execute again.
	second := n.run(context.Background(), s, IO{
		Source: IOSource{SessionID: "s1", ExecutionID: "e1", OriginNode: "P1"},
		Status: IOStatus{Execution: StatusSuccess},
	})
	if second != nil {
		t.Fatalf("second arrival returned %v, want nil (busy early-exit)", second)
	}

	close(body.release)
	if err := <-first; err != nil {
		t.Fatalf("first run: %v", err)
	}
}

// TestRun_DifferentExecutionIDAtSameInstanceAlsoSerializes pins down
// spec.md §5: the running flag is per node instance, not per execution id.
// An arrival for an unrelated execution id while the instance is busy
// collapses away just like a same-execution arrival would.
func TestRun_DifferentExecutionIDAtSameInstanceAlsoSerializes(t *testing.T) {
	body := &secondArrivalBody{entered: make(chan struct{}), release: make(chan struct{})}
	n := newTestNodeInstance(t, body, nil)
	n.tmpl.predecessors = []string{"P1"}
	n.queue = newInputsQueue(n.tmpl.name, n.tmpl.predecessors)

	s := newSession("s1", 10)
	first := make(chan error, 1)
	go func() {
		first <- n.run(context.Background(), s, IO{
			Source: IOSource{SessionID: "s1", ExecutionID: "e1", OriginNode: "P1"},
			Status: IOStatus{Execution: StatusSuccess},
		})
	}()
	<-body.entered

	other := n.run(context.Background(), s, IO{
		Source: IOSource{SessionID: "s1", ExecutionID: "e2", OriginNode: "P1"},
		Status: IOStatus{Execution: StatusSuccess},
	})
	if other != nil {
		t.Fatalf("unrelated execution id returned %v, want nil (instance-wide guard)", other)
	}

	close(body.release)
	if err := <-first; err != nil {
		t.Fatalf("first run: %v", err)
	}
}

type failingRecorder struct {
	err error
}

func (r *failingRecorder) Append(ctx context.Context, rec store.Record) error {
	return r.err
}

func (r *failingRecorder) History(ctx context.Context, sessionID string) ([]store.Record, error) {
	return nil, nil
}

func TestRecordAudit_FailureReportedAsEventNotPropagated(t *testing.T) {
	buf := emit.NewBufferedEmitter()
	cfg := defaultConfig()
	cfg.recorder = &failingRecorder{err: errors.New("disk full")}
	cfg.emitter = buf
	n := newTestNodeInstance(t, nil, cfg)

	n.recordAudit(context.Background(), "s1", "e1", IOStatus{Execution: StatusSuccess}, "out")

	history := buf.GetHistory("s1")
	found := false
	for _, ev := range history {
		if ev.Msg == "audit_append_failed" {
			found = true
		}
	}
	if !found {
		t.Fatalf("got events %+v, want one audit_append_failed event", history)
	}
}

func TestRecordAudit_NilRecorderIsNoop(t *testing.T) {
	n := newTestNodeInstance(t, nil, nil)
	n.recordAudit(context.Background(), "s1", "e1", IOStatus{Execution: StatusSuccess}, "out")
}
