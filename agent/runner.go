package agent

import (
	"fmt"
	"runtime"
	"sync/atomic"
)

// Runner owns one OS thread dedicated to pumping a single Agent's
// DoWork/OnClose lifecycle until told to stop. CPU pinning is optional
// and best-effort: a negative cpu means "don't pin".
type Runner struct {
	a            Agent
	idle         IdleStrategy
	errorHandler ErrorHandler
	cpu          int

	stop uint32
	done chan struct{}
}

// NewRunner constructs a Runner for a not-yet-started agent. Call
// Start to spawn its dedicated goroutine.
func NewRunner(a Agent, idle IdleStrategy, errorHandler ErrorHandler, cpu int) *Runner {
	if idle == nil {
		idle = NewBackoffIdleStrategy()
	}
	return &Runner{a: a, idle: idle, errorHandler: errorHandler, cpu: cpu, done: make(chan struct{})}
}

// Start spawns the runner's dedicated goroutine. Must be called at
// most once.
func (r *Runner) Start() {
	go r.loop()
}

// Close requests that the runner stop and blocks until its agent's
// OnClose has run. Idempotent.
func (r *Runner) Close() {
	atomic.StoreUint32(&r.stop, 1)
	<-r.done
}

func (r *Runner) loop() {
	defer close(r.done)
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if r.cpu >= 0 {
		pinCurrentThread(r.cpu)
	}
	defer r.a.OnClose()

	for atomic.LoadUint32(&r.stop) == 0 {
		n, err := doWorkRecovered(r.a)
		if err != nil {
			if r.errorHandler != nil {
				r.errorHandler(r.a.RoleName(), err)
			}
			if n < 0 {
				// a panic was recovered: stop this agent only, per the
				// do_work panic-isolation rule. Other runners are
				// unaffected since each owns its own goroutine.
				return
			}
		}
		r.idle.Idle(n)
	}
}

// doWorkRecovered calls a.DoWork, converting a panic into an error and
// signalling that case with a negative work count so the caller can
// distinguish "panic, stop this agent" from "ordinary error, keep going".
func doWorkRecovered(a Agent) (n int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
			n = -1
		}
	}()
	return a.DoWork()
}

// Invoker pumps a single Agent synchronously from the caller's own
// thread — INVOKER threading mode, where the driver owns no threads at
// all.
type Invoker struct {
	a            Agent
	errorHandler ErrorHandler
	closed       bool
}

func NewInvoker(a Agent, errorHandler ErrorHandler) *Invoker {
	return &Invoker{a: a, errorHandler: errorHandler}
}

// Invoke performs one DoWork cycle and returns the work count. Safe to
// call from a loop the embedding application controls entirely.
func (iv *Invoker) Invoke() int {
	n, err := doWorkRecovered(iv.a)
	if err != nil && iv.errorHandler != nil {
		iv.errorHandler(iv.a.RoleName(), err)
	}
	if n < 0 {
		return 0
	}
	return n
}

// Close runs the agent's OnClose exactly once.
func (iv *Invoker) Close() {
	if iv.closed {
		return
	}
	iv.closed = true
	iv.a.OnClose()
}
