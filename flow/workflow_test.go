package flow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// sumPlusOne is the node body shared by the fan-in scenarios below: it
// sums the int outputs of every in-graph predecessor (external triggers
// are signals, not addends) and adds one.
func sumPlusOne(ctx context.Context, ec *ExecutorContext) (any, error) {
	total := 0
	for _, io := range ec.Inputs.Successful() {
		if io.Source.OriginNode == "" {
			continue
		}
		if n, ok := io.Output.(int); ok {
			total += n
		}
	}
	return total + 1, nil
}

func mustAddNode(t *testing.T, wf *Workflow, name string, body NodeBody) {
	t.Helper()
	if err := wf.AddNode(NewNode(name, body)); err != nil {
		t.Fatalf("AddNode(%s): %v", name, err)
	}
}

func mustConnect(t *testing.T, wf *Workflow, from, to string) {
	t.Helper()
	if err := wf.Connect(from, to); err != nil {
		t.Fatalf("Connect(%s, %s): %v", from, to, err)
	}
}

// TestS1_DiamondFanInBroadcast is spec scenario S1.
func TestS1_DiamondFanInBroadcast(t *testing.T) {
	wf, err := New(WithSessionTTL(0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer wf.Close()

	mustAddNode(t, wf, "A", NodeFunc(sumPlusOne))
	mustAddNode(t, wf, "B", NodeFunc(sumPlusOne))
	mustAddNode(t, wf, "C", NodeFunc(sumPlusOne))
	mustAddNode(t, wf, "D", NodeFunc(sumPlusOne))
	mustConnect(t, wf, "A", "B")
	mustConnect(t, wf, "A", "C")
	mustConnect(t, wf, "B", "D")
	mustConnect(t, wf, "C", "D")

	if err := wf.Trigger(context.Background(), "sess1", "A", "exec1", 1); err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	s, ok := wf.Session("sess1")
	if !ok {
		t.Fatal("session not found")
	}
	exec := s.execution("exec1")

	want := map[string]int{"A": 1, "B": 2, "C": 2, "D": 5}
	for name, expected := range want {
		io, ok := exec.Lookup(name)
		if !ok {
			t.Fatalf("no record for %s", name)
		}
		if io.Output != expected {
			t.Fatalf("%s = %v, want %d", name, io.Output, expected)
		}
		if io.Status.Execution != StatusSuccess {
			t.Fatalf("%s status = %v, want success", name, io.Status.Execution)
		}
	}
}

// TestS2_ConditionalRouting is spec scenario S2.
func TestS2_ConditionalRouting(t *testing.T) {
	wf, err := New(WithSessionTTL(0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer wf.Close()

	mustAddNode(t, wf, "A", NodeFunc(func(ctx context.Context, ec *ExecutorContext) (any, error) {
		if err := ec.Routing.Skip("C"); err != nil {
			return nil, err
		}
		return "a", nil
	}))
	mustAddNode(t, wf, "B", NodeFunc(func(ctx context.Context, ec *ExecutorContext) (any, error) {
		return "b", nil
	}))
	mustAddNode(t, wf, "C", NodeFunc(func(ctx context.Context, ec *ExecutorContext) (any, error) {
		t.Fatal("C must not execute once A skips it")
		return nil, nil
	}))
	mustConnect(t, wf, "A", "B")
	mustConnect(t, wf, "A", "C")

	if err := wf.Trigger(context.Background(), "sess1", "A", "exec1", nil); err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	s, _ := wf.Session("sess1")
	exec := s.execution("exec1")

	bIO, _ := exec.Lookup("B")
	if bIO.Status.Execution != StatusSuccess {
		t.Fatalf("B status = %v, want success", bIO.Status.Execution)
	}
	cIO, _ := exec.Lookup("C")
	if cIO.Status.Execution != StatusSkipped {
		t.Fatalf("C status = %v, want skipped", cIO.Status.Execution)
	}
}

// TestS3_SkipPropagation is spec scenario S3.
func TestS3_SkipPropagation(t *testing.T) {
	wf, err := New(WithSessionTTL(0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer wf.Close()

	boom := errors.New("boom")
	mustAddNode(t, wf, "A", NodeFunc(func(ctx context.Context, ec *ExecutorContext) (any, error) {
		return nil, boom
	}))
	bCalled := false
	mustAddNode(t, wf, "B", NodeFunc(func(ctx context.Context, ec *ExecutorContext) (any, error) {
		bCalled = true
		return "b", nil
	}))
	mustAddNode(t, wf, "C", NodeFunc(func(ctx context.Context, ec *ExecutorContext) (any, error) {
		t.Fatal("C must not execute")
		return nil, nil
	}))
	mustConnect(t, wf, "A", "B")
	mustConnect(t, wf, "B", "C")

	err = wf.Trigger(context.Background(), "sess1", "A", "exec1", nil)
	if err == nil {
		t.Fatal("expected Trigger to re-raise A's error")
	}
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want it to wrap boom", err)
	}
	if bCalled {
		t.Fatal("B's execute must not have been called")
	}

	s, _ := wf.Session("sess1")
	exec := s.execution("exec1")
	bIO, _ := exec.Lookup("B")
	if bIO.Status.Execution != StatusSkipped {
		t.Fatalf("B status = %v, want skipped", bIO.Status.Execution)
	}
	cIO, _ := exec.Lookup("C")
	if cIO.Status.Execution != StatusSkipped {
		t.Fatalf("C status = %v, want skipped", cIO.Status.Execution)
	}
}

// counterBody is a Cloner whose per-session clone holds its own counter,
// demonstrating the template/clone split used in S4.
type counterBody struct {
	mu    sync.Mutex
	count int
}

func (c *counterBody) NewInstance() NodeBody {
	return &counterBody{}
}

func (c *counterBody) Execute(ctx context.Context, ec *ExecutorContext) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	return c.count, nil
}

// TestS4_SessionIsolation is spec scenario S4.
func TestS4_SessionIsolation(t *testing.T) {
	wf, err := New(WithSessionTTL(0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer wf.Close()

	mustAddNode(t, wf, "Counter", &counterBody{})

	for _, sessID := range []string{"s1", "s2", "s3"} {
		if err := wf.Trigger(context.Background(), sessID, "Counter", "e1", nil); err != nil {
			t.Fatalf("Trigger(%s): %v", sessID, err)
		}
		s, _ := wf.Session(sessID)
		exec := s.execution("e1")
		io, _ := exec.Lookup("Counter")
		if io.Output != 1 {
			t.Fatalf("session %s: Counter = %v, want 1", sessID, io.Output)
		}
	}

	if err := wf.Trigger(context.Background(), "s1", "Counter", "e2", nil); err != nil {
		t.Fatalf("Trigger(s1, e2): %v", err)
	}
	s1, _ := wf.Session("s1")
	exec2 := s1.execution("e2")
	io, _ := exec2.Lookup("Counter")
	if io.Output != 2 {
		t.Fatalf("s1 second trigger: Counter = %v, want 2", io.Output)
	}
}

// TestS5_TTLReap is spec scenario S5.
func TestS5_TTLReap(t *testing.T) {
	wf, err := New(WithSessionTTL(2 * time.Second))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer wf.Close()

	mustAddNode(t, wf, "Counter", &counterBody{})

	if err := wf.Trigger(context.Background(), "s1", "Counter", "e1", nil); err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	time.Sleep(4500 * time.Millisecond)

	if _, ok := wf.Session("s1"); ok {
		t.Fatal("session s1 should have been reaped by now")
	}

	if err := wf.Trigger(context.Background(), "s1", "Counter", "e2", nil); err != nil {
		t.Fatalf("Trigger after reap: %v", err)
	}
	s1, _ := wf.Session("s1")
	exec := s1.execution("e2")
	io, _ := exec.Lookup("Counter")
	if io.Output != 1 {
		t.Fatalf("reinstantiated session: Counter = %v, want 1 (fresh state)", io.Output)
	}
}

// TestS6_ConcurrentFanInOrdering is spec scenario S6: inputs declared in
// order I1..I4 must be visible to execute in that order regardless of
// arrival order, and the result must not depend on producer scheduling.
func TestS6_ConcurrentFanInOrdering(t *testing.T) {
	wf, err := New(WithSessionTTL(0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer wf.Close()

	var gotOrder []string
	mustAddNode(t, wf, "I1", NodeFunc(func(ctx context.Context, ec *ExecutorContext) (any, error) { return "i1", nil }))
	mustAddNode(t, wf, "I2", NodeFunc(func(ctx context.Context, ec *ExecutorContext) (any, error) { return "i2", nil }))
	mustAddNode(t, wf, "I3", NodeFunc(func(ctx context.Context, ec *ExecutorContext) (any, error) { return "i3", nil }))
	mustAddNode(t, wf, "I4", NodeFunc(func(ctx context.Context, ec *ExecutorContext) (any, error) { return "i4", nil }))
	mustAddNode(t, wf, "N", NodeFunc(func(ctx context.Context, ec *ExecutorContext) (any, error) {
		for _, io := range ec.Inputs.All() {
			gotOrder = append(gotOrder, io.Output.(string))
		}
		return nil, nil
	}))
	mustConnect(t, wf, "I1", "N")
	mustConnect(t, wf, "I2", "N")
	mustConnect(t, wf, "I3", "N")
	mustConnect(t, wf, "I4", "N")

	// Trigger I2 before I1/I3/I4 to force arrival out of declaration order.
	var wg sync.WaitGroup
	order := []string{"I2", "I4", "I1", "I3"}
	for _, name := range order {
		wg.Add(1)
		go func(n string) {
			defer wg.Done()
			_ = wf.Trigger(context.Background(), "sess1", n, "exec1", nil)
		}(name)
	}
	wg.Wait()

	if len(gotOrder) != 4 {
		t.Fatalf("N saw %d inputs, want 4: %v", len(gotOrder), gotOrder)
	}
	want := []string{"i1", "i2", "i3", "i4"}
	for i, v := range want {
		if gotOrder[i] != v {
			t.Fatalf("gotOrder = %v, want %v", gotOrder, want)
		}
	}
}

func TestAddNode_DuplicateName(t *testing.T) {
	wf, _ := New(WithSessionTTL(0))
	defer wf.Close()
	mustAddNode(t, wf, "A", NodeFunc(sumPlusOne))
	err := wf.AddNode(NewNode("A", NodeFunc(sumPlusOne)))
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("got %v, want ErrDuplicateName", err)
	}
}

func TestConnect_UnknownNode(t *testing.T) {
	wf, _ := New(WithSessionTTL(0))
	defer wf.Close()
	mustAddNode(t, wf, "A", NodeFunc(sumPlusOne))
	err := wf.Connect("A", "ghost")
	if !errors.Is(err, ErrUnknownNode) {
		t.Fatalf("got %v, want ErrUnknownNode", err)
	}
}

func TestTopology_FreezesAfterFirstTrigger(t *testing.T) {
	wf, _ := New(WithSessionTTL(0))
	defer wf.Close()
	mustAddNode(t, wf, "A", NodeFunc(sumPlusOne))
	mustAddNode(t, wf, "B", NodeFunc(sumPlusOne))
	if err := wf.Trigger(context.Background(), "s1", "A", "e1", 1); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	err := wf.Connect("A", "B")
	if !errors.Is(err, ErrTopologyFrozen) {
		t.Fatalf("got %v, want ErrTopologyFrozen", err)
	}
}

func TestTrigger_UnknownEntryNode(t *testing.T) {
	wf, _ := New(WithSessionTTL(0))
	defer wf.Close()
	err := wf.Trigger(context.Background(), "s1", "ghost", "e1", nil)
	if !errors.Is(err, ErrUnknownNode) {
		t.Fatalf("got %v, want ErrUnknownNode", err)
	}
}

func TestPlot_SortedDeterministicOutput(t *testing.T) {
	wf, _ := New(WithSessionTTL(0))
	defer wf.Close()
	mustAddNode(t, wf, "B", NodeFunc(sumPlusOne))
	mustAddNode(t, wf, "A", NodeFunc(sumPlusOne))
	mustConnect(t, wf, "A", "B")

	want := "digraph workflow {\n  \"A\";\n  \"B\";\n  \"A\" -> \"B\";\n}\n"
	if got := wf.Plot(); got != want {
		t.Fatalf("Plot() = %q, want %q", got, want)
	}
}
