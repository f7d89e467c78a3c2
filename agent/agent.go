// Package agent is the driver's runtime model: the Agent interface
// every worker (Conductor, Sender, Receiver) implements, the idle
// strategies that back off when an agent has no work, and the
// Runner/Invoker/Composite types that turn agents into threads (or, in
// INVOKER mode, into something the caller pumps by hand).
//
// The loop shape — hot-spin while work keeps arriving, back off via an
// idle strategy once it dries up, poll a per-instance stop flag between
// iterations — mirrors the drain-and-callback consumer loop the ring
// package's SPSC queues are built for; Runner generalizes that shape to
// an arbitrary Agent instead of a fixed drain-and-callback loop.
package agent

// Agent is a cooperatively scheduled worker. DoWork performs one unit
// of non-blocking work and returns how many sub-operations it
// completed (0 means idle this cycle). OnClose releases any resources
// the agent holds and runs exactly once, after the agent's last DoWork
// call returns.
type Agent interface {
	RoleName() string
	DoWork() (int, error)
	OnClose()
}

// ErrorHandler receives errors surfaced by an agent's DoWork, whether
// returned normally or recovered from a panic.
type ErrorHandler func(role string, err error)

// IdleStrategy is the cooperative back-off policy applied whenever
// DoWork reports zero work done. Implementations must not block
// indefinitely — Runner needs to keep polling its stop flag.
type IdleStrategy interface {
	Idle(workCount int)
}
