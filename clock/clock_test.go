package clock

import "testing"

func TestSystemClocksAdvance(t *testing.T) {
	ec := SystemEpochClock{}
	nc := SystemNanoClock{}
	if ec.TimeMillis() <= 0 {
		t.Fatal("expected positive wall-clock millis")
	}
	if nc.TimeNanos() <= 0 {
		t.Fatal("expected positive monotonic nanos")
	}
}

func TestManualClockDeterministic(t *testing.T) {
	c := NewManualClock()
	if c.TimeMillis() != 0 || c.TimeNanos() != 0 {
		t.Fatal("expected zero-valued manual clock on construction")
	}
	c.SetMillis(1000)
	c.SetNanos(2000)
	if c.TimeMillis() != 1000 || c.TimeNanos() != 2000 {
		t.Fatal("manual clock did not report set values")
	}
	if got := c.AdvanceMillis(500); got != 1500 {
		t.Fatalf("AdvanceMillis = %d, want 1500", got)
	}
	if got := c.AdvanceNanos(500); got != 2500 {
		t.Fatalf("AdvanceNanos = %d, want 2500", got)
	}
}
