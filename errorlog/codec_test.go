package errorlog

import "testing"

func TestFlushDecodeRoundTrip(t *testing.T) {
	l := New(8)
	l.Record("sender: send failed", 1)
	l.Record("receiver: bind failed", 2)
	l.Record("receiver: bind failed", 3)

	buf := make([]byte, 4096)
	n, err := l.Flush(buf)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if n == 0 {
		t.Fatal("expected non-zero bytes written")
	}

	got := Decode(buf)
	if len(got) != 2 {
		t.Fatalf("expected 2 decoded records, got %d", len(got))
	}
	byDesc := map[string]Record{}
	for _, r := range got {
		byDesc[r.Description] = r
	}
	if byDesc["receiver: bind failed"].ObservationCount != 2 {
		t.Fatalf("expected count 2 for the deduplicated record, got %+v", byDesc["receiver: bind failed"])
	}
}

func TestFlushTruncatesWhenBufferTooSmall(t *testing.T) {
	l := New(8)
	l.Record("a long description that will not fit in a tiny buffer", 1)

	buf := make([]byte, 8)
	n, err := l.Flush(buf)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 bytes written when nothing fits, got %d", n)
	}
	if got := Decode(buf); len(got) != 0 {
		t.Fatalf("expected no decoded records, got %d", len(got))
	}
}
