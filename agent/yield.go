package agent

import "runtime"

//go:nosplit
//go:inline
func yield() {
	runtime.Gosched()
}
