package platformtimer

import "testing"

func TestEnableDisableIdempotent(t *testing.T) {
	timer := New()
	timer.Enable()
	timer.Enable()
	timer.Disable()
	timer.Disable()
}
