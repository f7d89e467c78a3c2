// Package platformtimer raises the OS scheduler's timer resolution for
// the lifetime of the driver on platforms where that matters, and does
// nothing on platforms where it doesn't. Only Windows needs this: its
// default ~15.6ms tick granularity is too coarse for the driver's
// sub-millisecond idle back-off, whereas Linux's default resolution is
// already fine enough.
package platformtimer

// Timer raises the scheduler's timer resolution on Enable and restores
// it on Disable, but only if this Timer is the one that raised it —
// nested Enable/Disable pairs across the driver's own lifecycle must
// not fight each other or disable a resolution some other process on
// the box still depends on.
type Timer struct {
	enabled bool
}

// New returns a Timer appropriate for the host platform.
func New() *Timer {
	return &Timer{}
}
