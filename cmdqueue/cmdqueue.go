// Package cmdqueue is a generic, typed bounded SPSC queue: the three
// inter-agent command hand-offs (client-facing commands into the
// conductor, and the conductor's dispatch to the sender and receiver)
// all use one of these. It is a thin typed wrapper over ring.Ring,
// boxing each command as an unsafe.Pointer the way ring.Ring already
// expects — generics just give callers back a typed pointer instead of
// making them cast at every call site.
package cmdqueue

import (
	"unsafe"

	"github.com/schets/aeron/ring"
)

// Queue is a bounded single-producer single-consumer queue of *T.
// Capacity must be a power of two; see ring.New.
type Queue[T any] struct {
	r *ring.Ring
}

// New returns a Queue with room for capacity outstanding commands.
func New[T any](capacity int) *Queue[T] {
	return &Queue[T]{r: ring.New(capacity)}
}

// Offer enqueues cmd, returning false without blocking if the queue is
// full. The producer must not retry internally — proxies fail fast and
// count the failure.
//
//go:nosplit
func (q *Queue[T]) Offer(cmd *T) bool {
	return q.r.Push(unsafe.Pointer(cmd))
}

// Poll dequeues one command, or returns nil if the queue is empty.
//
//go:nosplit
func (q *Queue[T]) Poll() *T {
	p := q.r.Pop()
	if p == nil {
		return nil
	}
	return (*T)(p)
}

// Drain calls fn for every currently-available command and returns how
// many were processed — the per-cycle unit of work an agent's DoWork
// reports back to its Runner.
func (q *Queue[T]) Drain(fn func(*T)) int {
	n := 0
	for {
		cmd := q.Poll()
		if cmd == nil {
			return n
		}
		fn(cmd)
		n++
	}
}
