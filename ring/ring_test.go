package ring

import (
	"testing"
	"time"
	"unsafe"
)

func TestNewPanicsOnBadSize(t *testing.T) {
	bad := []int{0, 3, 1000} // 3 and 1000 are not powers of two
	for _, sz := range bad {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("New(%d) should panic", sz)
				}
			}()
			_ = New(sz)
		}()
	}
}

func TestPushPopRoundTrip(t *testing.T) {
	r := New(8)
	val := &[32]byte{1, 2, 3}

	if !r.Push(unsafe.Pointer(val)) {
		t.Fatal("first push must succeed")
	}
	got := r.Pop()
	if got == nil || (*[32]byte)(got) != val {
		t.Fatalf("got %v, want %v", got, val)
	}
	if r.Pop() != nil {
		t.Fatal("ring should now be empty")
	}
}

func TestPushFailsWhenFull(t *testing.T) {
	r := New(4)
	val := unsafe.Pointer(&[32]byte{7})
	for i := 0; i < 4; i++ {
		if !r.Push(val) {
			t.Fatalf("push %d unexpectedly failed", i)
		}
	}
	if r.Push(val) {
		t.Fatal("push into full ring should return false")
	}
}

func TestPopWaitBlocksUntilItem(t *testing.T) {
	r := New(2)
	want := &[32]byte{42}

	go func() {
		time.Sleep(5 * time.Millisecond)
		r.Push(unsafe.Pointer(want))
	}()

	if got := r.PopWait(); got == nil || (*[32]byte)(got) != want {
		t.Fatalf("PopWait returned %v, want %v", got, want)
	}
}

func TestPopNil(t *testing.T) {
	r := New(4)
	if r.Pop() != nil {
		t.Fatal("Pop on empty ring returned non-nil")
	}
}

func TestWrapAround(t *testing.T) {
	const size = 4
	r := New(size)
	for i := 0; i < 10; i++ {
		val := &[32]byte{byte(i)}
		if !r.Push(unsafe.Pointer(val)) {
			t.Fatalf("push %d failed unexpectedly", i)
		}
		got := (*[32]byte)(r.Pop())
		if got == nil || got[0] != byte(i) {
			t.Fatalf("iteration %d: got %v, want %v", i, got, val[0])
		}
	}
}
