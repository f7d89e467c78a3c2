package agent

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingAgent struct {
	role    string
	work    int64
	closed  int32
	budget  int64
	failAt  int64
	panicAt int64
	calls   int64
}

func (a *countingAgent) RoleName() string { return a.role }

func (a *countingAgent) DoWork() (int, error) {
	n := atomic.AddInt64(&a.calls, 1)
	if a.panicAt != 0 && n == a.panicAt {
		panic("boom")
	}
	if a.failAt != 0 && n == a.failAt {
		return 0, errors.New("transient failure")
	}
	if atomic.LoadInt64(&a.work) < a.budget {
		atomic.AddInt64(&a.work, 1)
		return 1, nil
	}
	return 0, nil
}

func (a *countingAgent) OnClose() { atomic.StoreInt32(&a.closed, 1) }

func TestRunnerDrivesAgentAndClosesOnStop(t *testing.T) {
	a := &countingAgent{role: "test", budget: 5}
	r := NewRunner(a, BusySpinIdleStrategy{}, nil, -1)
	r.Start()

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt64(&a.work) < 5 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if atomic.LoadInt64(&a.work) != 5 {
		t.Fatalf("expected agent to reach its work budget, got %d", a.work)
	}
	r.Close()
	if atomic.LoadInt32(&a.closed) != 1 {
		t.Fatal("expected OnClose to run after Close")
	}
}

func TestRunnerIsolatesPanicToThisAgent(t *testing.T) {
	a := &countingAgent{role: "panicky", budget: 100, panicAt: 1}
	var gotErr error
	r := NewRunner(a, BusySpinIdleStrategy{}, func(role string, err error) {
		gotErr = err
	}, -1)
	r.Start()

	select {
	case <-r.done:
	case <-time.After(time.Second):
		t.Fatal("runner did not exit after panicking agent")
	}
	if gotErr == nil {
		t.Fatal("expected error handler to observe the panic")
	}
	if atomic.LoadInt32(&a.closed) != 1 {
		t.Fatal("expected OnClose to run even after a panic")
	}
}

func TestInvokerPumpsSynchronously(t *testing.T) {
	a := &countingAgent{role: "invoked", budget: 3}
	iv := NewInvoker(a, nil)
	total := 0
	for i := 0; i < 5; i++ {
		total += iv.Invoke()
	}
	if total != 3 {
		t.Fatalf("expected 3 total work units, got %d", total)
	}
	iv.Close()
	if atomic.LoadInt32(&a.closed) != 1 {
		t.Fatal("expected OnClose after Invoker.Close")
	}
}

func TestCompositeIsolatesPanickingSubAgent(t *testing.T) {
	good := &countingAgent{role: "good", budget: 10}
	bad := &countingAgent{role: "bad", budget: 10, panicAt: 1}

	var errs []error
	c := NewComposite("shared", func(role string, err error) { errs = append(errs, err) }, good, bad)

	n, err := c.DoWork()
	if err != nil {
		t.Fatalf("Composite.DoWork returned err: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 unit of work from the surviving agent, got %d", n)
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 reported error, got %d", len(errs))
	}
	if atomic.LoadInt32(&bad.closed) != 1 {
		t.Fatal("expected panicking sub-agent to be closed immediately")
	}

	n2, _ := c.DoWork()
	if n2 != 1 {
		t.Fatalf("expected surviving agent to keep working, got %d", n2)
	}
}

func TestBackoffIdleStrategyResetsOnWork(t *testing.T) {
	b := NewBackoffIdleStrategy()
	for i := 0; i < 10; i++ {
		b.Idle(0)
	}
	if atomic.LoadInt64(&b.state) == 0 {
		t.Fatal("expected state to accumulate across idle calls")
	}
	b.Idle(1)
	if atomic.LoadInt64(&b.state) != 0 {
		t.Fatal("expected state to reset once work is reported")
	}
}

func TestControllableIdleStrategyPublishesStatus(t *testing.T) {
	var status int64
	c := NewControllableIdleStrategy(BusySpinIdleStrategy{}, &status)
	c.Idle(1)
	if atomic.LoadInt64(&status) != ControllableStatusBusy {
		t.Fatal("expected busy status after work > 0")
	}
	c.Idle(0)
	if atomic.LoadInt64(&status) != ControllableStatusIdle {
		t.Fatal("expected idle status after work == 0")
	}
}
