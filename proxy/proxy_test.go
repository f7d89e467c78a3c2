package proxy

import (
	"testing"

	"github.com/schets/aeron/cmdqueue"
)

func TestQueuedProxyIncrementsFailCounterWhenFull(t *testing.T) {
	q := cmdqueue.New[Command](2)
	var fails int64
	p := NewQueued(q, &fails)

	if !p.SendCreatePublication(1, 2, "udp://239.1.1.1:40001", 10) {
		t.Fatal("first send should succeed")
	}
	if !p.SendCreatePublication(1, 2, "udp://239.1.1.1:40001", 11) {
		t.Fatal("second send should succeed")
	}
	if p.SendCreatePublication(1, 2, "udp://239.1.1.1:40001", 12) {
		t.Fatal("third send should fail: queue capacity is 2")
	}
	if fails != 1 {
		t.Fatalf("fail counter = %d, want 1", fails)
	}
}

func TestInlineProxyNeverEnqueues(t *testing.T) {
	var got []Command
	p := NewInline(func(c *Command) { got = append(got, *c) })

	if !p.IsInline() {
		t.Fatal("expected inline proxy")
	}
	if !p.SendHousekeepingTick() {
		t.Fatal("inline send must always succeed")
	}
	if len(got) != 1 || got[0].Kind != HousekeepingTick {
		t.Fatalf("handler did not observe command: %+v", got)
	}
}

func TestQueuedProxyDrainSeesCommand(t *testing.T) {
	q := cmdqueue.New[Command](4)
	p := NewQueued(q, nil)
	p.SendClosePublication(42)

	var seen *Command
	q.Drain(func(c *Command) { seen = c })
	if seen == nil || seen.Kind != ClosePublication || seen.RegistrationID != 42 {
		t.Fatalf("unexpected drained command: %+v", seen)
	}
}
