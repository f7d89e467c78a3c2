//go:build linux

// CPU pinning for agent.Runner through golang.org/x/sys/unix's
// sched_setaffinity wrapper, so pinning works for an arbitrary core
// index instead of a compile-time table of single-core masks.

package agent

import "golang.org/x/sys/unix"

// pinCurrentThread best-effort pins the calling OS thread to cpu.
// Errors (EPERM under a restrictive cgroup, EINVAL for an out-of-range
// cpu) are swallowed: the fallback is simply "no pin".
func pinCurrentThread(cpu int) {
	if cpu < 0 {
		return
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	_ = unix.SchedSetaffinity(0, &set)
}
