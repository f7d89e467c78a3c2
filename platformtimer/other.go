//go:build !windows

package platformtimer

// Enable is a no-op outside Windows; the host's default timer
// resolution is already fine enough for the driver's idle strategies.
func (t *Timer) Enable() { t.enabled = true }

// Disable is a no-op outside Windows.
func (t *Timer) Disable() { t.enabled = false }
