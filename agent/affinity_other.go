//go:build !linux

package agent

// pinCurrentThread is a no-op outside Linux; CPU pinning is an
// optimization, never a correctness requirement.
func pinCurrentThread(cpu int) {}
