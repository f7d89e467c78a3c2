package driver

import (
	"github.com/schets/aeron/clock"
	"github.com/schets/aeron/cmdqueue"
	"github.com/schets/aeron/cncfile"
	"github.com/schets/aeron/errorlog"
	"github.com/schets/aeron/proxy"
)

// housekeepingPeriodTicks is how many work cycles elapse between
// housekeeping passes.
const housekeepingPeriodTicks = 64

// conductorAgent is the control-plane worker: it drains its command
// queue (when the threading mode queues rather than inlines), stamps
// the CnC file's consumer-heartbeat once per cycle so the directory
// arbiter on another process can tell this driver is alive, and runs a
// housekeeping duty cycle every housekeepingPeriodTicks work cycles
// that flushes the in-process error log into the CnC file's mapped
// error-log region, so a salvage of this directory after a crash sees
// errors recorded before the crash. The wire-level command handling
// (create/close publication etc.) is the client codec's concern and
// out of scope here; this agent's job ends at draining the queue and
// updating liveness/error state.
type conductorAgent struct {
	queue    *cmdqueue.Queue[proxy.Command]
	cnc      *cncfile.CncFile
	errLog   *errorlog.Log
	clock    clock.EpochClock
	dispatch func(*proxy.Command)

	cycle int64
}

func newConductorAgent(queue *cmdqueue.Queue[proxy.Command], cnc *cncfile.CncFile, errLog *errorlog.Log, epoch clock.EpochClock) *conductorAgent {
	return &conductorAgent{
		queue:    queue,
		cnc:      cnc,
		errLog:   errLog,
		clock:    epoch,
		dispatch: func(*proxy.Command) {},
	}
}

func (a *conductorAgent) RoleName() string { return "conductor" }

func (a *conductorAgent) DoWork() (int, error) {
	n := 0
	if a.queue != nil {
		n += a.queue.Drain(a.dispatch)
	}
	a.cnc.SetHeartbeatMs(a.clock.TimeMillis())
	a.runHousekeepingIfDue()
	return n, nil
}

// runHousekeepingIfDue flushes the error log every housekeepingPeriodTicks
// work cycles.
func (a *conductorAgent) runHousekeepingIfDue() {
	a.cycle++
	if a.cycle%housekeepingPeriodTicks != 0 {
		return
	}
	a.errLog.Flush(a.cnc.ErrorLogBuffer())
}

func (a *conductorAgent) OnClose() {
	a.errLog.Flush(a.cnc.ErrorLogBuffer())
}

// senderAgent is the egress worker: it drains commands routed to it
// (destination add/remove, flush requests) when queued separately from
// the conductor. Frame transmission itself is the wire protocol's
// concern, out of scope here.
type senderAgent struct {
	queue    *cmdqueue.Queue[proxy.Command]
	dispatch func(*proxy.Command)
}

func newSenderAgent(queue *cmdqueue.Queue[proxy.Command]) *senderAgent {
	return &senderAgent{queue: queue, dispatch: func(*proxy.Command) {}}
}

func (a *senderAgent) RoleName() string { return "sender" }

func (a *senderAgent) DoWork() (int, error) {
	if a.queue == nil {
		return 0, nil
	}
	return a.queue.Drain(a.dispatch), nil
}

func (a *senderAgent) OnClose() {}

// receiverAgent is the ingress worker, mirroring senderAgent's shape.
type receiverAgent struct {
	queue    *cmdqueue.Queue[proxy.Command]
	dispatch func(*proxy.Command)
}

func newReceiverAgent(queue *cmdqueue.Queue[proxy.Command]) *receiverAgent {
	return &receiverAgent{queue: queue, dispatch: func(*proxy.Command) {}}
}

func (a *receiverAgent) RoleName() string { return "receiver" }

func (a *receiverAgent) DoWork() (int, error) {
	if a.queue == nil {
		return 0, nil
	}
	return a.queue.Drain(a.dispatch), nil
}

func (a *receiverAgent) OnClose() {}
