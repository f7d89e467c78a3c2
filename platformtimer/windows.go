//go:build windows

package platformtimer

import "golang.org/x/sys/windows"

var (
	winmm             = windows.NewLazySystemDLL("winmm.dll")
	procTimeBeginPeriod = winmm.NewProc("timeBeginPeriod")
	procTimeEndPeriod   = winmm.NewProc("timeEndPeriod")
)

// Enable raises the scheduler tick to 1ms, matching UseWindowsHighResTimer.
// Safe to call multiple times; only the first call takes effect.
func (t *Timer) Enable() {
	if t.enabled {
		return
	}
	procTimeBeginPeriod.Call(1)
	t.enabled = true
}

// Disable restores the scheduler's previous tick resolution, but only
// if this Timer previously enabled it.
func (t *Timer) Disable() {
	if !t.enabled {
		return
	}
	procTimeEndPeriod.Call(1)
	t.enabled = false
}
