package cmdqueue

import "testing"

type testCmd struct {
	n int
}

func TestOfferPollRoundTrip(t *testing.T) {
	q := New[testCmd](4)
	c := &testCmd{n: 7}
	if !q.Offer(c) {
		t.Fatal("Offer should succeed on empty queue")
	}
	got := q.Poll()
	if got == nil || got.n != 7 {
		t.Fatalf("Poll returned %v, want n=7", got)
	}
	if q.Poll() != nil {
		t.Fatal("expected empty queue after single Poll")
	}
}

func TestOfferFailsWhenFull(t *testing.T) {
	q := New[testCmd](2)
	for i := 0; i < 2; i++ {
		if !q.Offer(&testCmd{n: i}) {
			t.Fatalf("Offer %d unexpectedly failed", i)
		}
	}
	if q.Offer(&testCmd{n: 99}) {
		t.Fatal("Offer into full queue should fail")
	}
}

func TestDrainProcessesAllAndReturnsCount(t *testing.T) {
	q := New[testCmd](8)
	for i := 0; i < 5; i++ {
		q.Offer(&testCmd{n: i})
	}
	var sum int
	n := q.Drain(func(c *testCmd) { sum += c.n })
	if n != 5 {
		t.Fatalf("Drain processed %d, want 5", n)
	}
	if sum != 0+1+2+3+4 {
		t.Fatalf("Drain sum = %d, want 10", sum)
	}
	if q.Drain(func(*testCmd) {}) != 0 {
		t.Fatal("expected empty queue after full drain")
	}
}
