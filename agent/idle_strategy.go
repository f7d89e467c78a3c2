package agent

import (
	"sync/atomic"
	"time"
)

// BusySpinIdleStrategy never yields the CPU; lowest latency, highest
// power draw. Appropriate for DEDICATED mode on an isolated core.
type BusySpinIdleStrategy struct{}

func (BusySpinIdleStrategy) Idle(int) {}

// YieldingIdleStrategy calls runtime.Gosched whenever there is no work, trading a little latency for
// letting other goroutines run on the same OS thread pool.
type YieldingIdleStrategy struct{}

func (YieldingIdleStrategy) Idle(workCount int) {
	if workCount == 0 {
		yield()
	}
}

// SleepingIdleStrategy parks for a fixed duration whenever idle —
// appropriate for low-priority agents where latency matters less than
// core usage (e.g. a driver running many agents on few cores).
type SleepingIdleStrategy struct {
	Duration time.Duration
}

func (s SleepingIdleStrategy) Idle(workCount int) {
	if workCount == 0 {
		time.Sleep(s.Duration)
	}
}

// BackoffIdleStrategy escalates from busy-spin to yielding to sleeping
// as consecutive idle cycles accumulate, then resets the moment any
// work is reported — the default for agents without a caller-supplied
// strategy, matching the original's "controllable" default.
type BackoffIdleStrategy struct {
	maxSpins  int64
	maxYields int64
	minSleep  time.Duration
	maxSleep  time.Duration

	state int64
}

func NewBackoffIdleStrategy() *BackoffIdleStrategy {
	return &BackoffIdleStrategy{
		maxSpins:  100,
		maxYields: 100,
		minSleep:  1 * time.Microsecond,
		maxSleep:  1 * time.Millisecond,
	}
}

func (b *BackoffIdleStrategy) Idle(workCount int) {
	if workCount > 0 {
		atomic.StoreInt64(&b.state, 0)
		return
	}
	s := atomic.AddInt64(&b.state, 1)
	switch {
	case s <= b.maxSpins:
		return
	case s <= b.maxSpins+b.maxYields:
		yield()
	default:
		d := b.minSleep * time.Duration(s-b.maxSpins-b.maxYields)
		if d > b.maxSleep {
			d = b.maxSleep
		}
		time.Sleep(d)
	}
}

// ControllableIdleStrategy delegates to an underlying strategy while
// publishing its current status (idle vs. busy) into a shared counter
// slot — the CNC "CONTROLLABLE_IDLE_STRATEGY" system counter that an
// operator or test can read to observe what an agent is doing without
// attaching a profiler.
type ControllableIdleStrategy struct {
	delegate IdleStrategy
	status   *int64
}

const (
	ControllableStatusIdle = int64(0)
	ControllableStatusBusy = int64(1)
)

func NewControllableIdleStrategy(delegate IdleStrategy, status *int64) *ControllableIdleStrategy {
	return &ControllableIdleStrategy{delegate: delegate, status: status}
}

func (c *ControllableIdleStrategy) Idle(workCount int) {
	if workCount > 0 {
		atomic.StoreInt64(c.status, ControllableStatusBusy)
	} else {
		atomic.StoreInt64(c.status, ControllableStatusIdle)
	}
	c.delegate.Idle(workCount)
}
