package agent

import "fmt"

// Composite bundles several agents' DoWork into one, for SHARED (all
// three) and SHARED_NETWORK (sender+receiver) threading modes where
// more than one worker shares a single OS thread. Unlike Runner, a
// panicking sub-agent is isolated at the Composite level: it is
// removed from the active set and its OnClose runs immediately, while
// the remaining sub-agents keep running on the shared thread.
type Composite struct {
	role         string
	active       []Agent
	errorHandler ErrorHandler
}

// NewComposite bundles agents under one RoleName, used for logging and
// error attribution only — each sub-agent retains its own RoleName for
// error messages.
func NewComposite(role string, errorHandler ErrorHandler, agents ...Agent) *Composite {
	active := make([]Agent, len(agents))
	copy(active, agents)
	return &Composite{role: role, active: active, errorHandler: errorHandler}
}

func (c *Composite) RoleName() string { return c.role }

// DoWork calls every still-active sub-agent's DoWork once and sums the
// work counts. A sub-agent whose DoWork panics is dropped from the
// active set after this call; its OnClose runs before DoWork returns.
func (c *Composite) DoWork() (int, error) {
	total := 0
	var firstErr error
	remaining := c.active[:0]
	for _, a := range c.active {
		n, err := doWorkRecovered(a)
		if n < 0 {
			// panic: isolate this sub-agent permanently.
			werr := fmt.Errorf("%s: %w", a.RoleName(), err)
			if c.errorHandler != nil {
				c.errorHandler(c.role, werr)
			}
			a.OnClose()
			if firstErr == nil {
				firstErr = werr
			}
			continue
		}
		if err != nil {
			if c.errorHandler != nil {
				c.errorHandler(a.RoleName(), err)
			}
			if firstErr == nil {
				firstErr = err
			}
		}
		total += n
		remaining = append(remaining, a)
	}
	c.active = remaining
	return total, nil
}

// OnClose closes every still-active sub-agent, in the order they were
// added.
func (c *Composite) OnClose() {
	for _, a := range c.active {
		a.OnClose()
	}
	c.active = nil
}
