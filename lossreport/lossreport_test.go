package lossreport

import "testing"

func TestRecordObservationCreatesThenUpdates(t *testing.T) {
	buf := make([]byte, recordLength*4)
	r := New(buf)

	if err := r.RecordObservation(1, 2, "udp://239.1.1.1:40001", 100, 1000); err != nil {
		t.Fatalf("first RecordObservation: %v", err)
	}
	if err := r.RecordObservation(1, 2, "udp://239.1.1.1:40001", 50, 2000); err != nil {
		t.Fatalf("second RecordObservation: %v", err)
	}

	snap := r.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected 1 distinct observation, got %d", len(snap))
	}
	o := snap[0]
	if o.ObservationCount != 2 || o.TotalBytesLost != 150 {
		t.Fatalf("unexpected aggregate: %+v", o)
	}
	if o.FirstObservedNs != 1000 || o.LastObservedNs != 2000 {
		t.Fatalf("unexpected timestamps: %+v", o)
	}
}

func TestRecordObservationDistinctIdentities(t *testing.T) {
	buf := make([]byte, recordLength*4)
	r := New(buf)

	r.RecordObservation(1, 2, "chan-a", 10, 1)
	r.RecordObservation(1, 3, "chan-a", 10, 1)
	r.RecordObservation(2, 2, "chan-a", 10, 1)

	if len(r.Snapshot()) != 3 {
		t.Fatalf("expected 3 distinct observations, got %d", len(r.Snapshot()))
	}
}

func TestRecordObservationFullReturnsError(t *testing.T) {
	buf := make([]byte, recordLength*2)
	r := New(buf)

	r.RecordObservation(1, 1, "a", 1, 1)
	r.RecordObservation(2, 2, "b", 1, 1)
	if err := r.RecordObservation(3, 3, "c", 1, 1); err != ErrFull {
		t.Fatalf("expected ErrFull, got %v", err)
	}
}
