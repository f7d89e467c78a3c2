package driver

import (
	"fmt"
	"sync/atomic"

	"github.com/schets/aeron/agent"
	"github.com/schets/aeron/configuration"
	"github.com/schets/aeron/counters"
	"github.com/schets/aeron/debug"
	"github.com/schets/aeron/platformtimer"
)

// MediaDriver owns a concluded context and whichever runners, invoker,
// or composite the configured threading mode calls for. INVOKER sets
// only invoker; the other modes set runners, and SHARED and
// SHARED_NETWORK also keep the composites those runners pump. Launch
// starts the runners and Close tears them down along with the
// concluded context underneath.
type MediaDriver struct {
	cc *ConcludedContext

	mode configuration.ThreadingMode

	runners    []*agent.Runner
	invoker    *agent.Invoker
	composites []*agent.Composite

	timer *platformtimer.Timer

	conductor *conductorAgent
	sender    *senderAgent
	receiver  *receiverAgent
}

// Launch validates and concludes ctx, assembles the agents for its
// threading mode, and starts them. On any failure it unwinds whatever
// had already been opened.
func Launch(ctx *Context) (*MediaDriver, error) {
	cc, err := Conclude(ctx)
	if err != nil {
		return nil, err
	}

	md := &MediaDriver{cc: cc, mode: ctx.ThreadingMode}

	md.conductor = newConductorAgent(cc.conductorQueue, cc.CncFile, cc.ErrorLog, ctx.EpochClock)
	md.sender = newSenderAgent(cc.senderQueue)
	md.receiver = newReceiverAgent(cc.receiverQueue)

	if ctx.UseWindowsHighResTimer {
		md.timer = platformtimer.New()
		md.timer.Enable()
	}

	errHandler := md.defaultErrorHandler()

	switch ctx.ThreadingMode {
	case configuration.Invoker:
		composite := agent.NewComposite("driver", errHandler, md.conductor, md.sender, md.receiver)
		md.invoker = agent.NewInvoker(composite, errHandler)

	case configuration.Shared:
		composite := agent.NewComposite("driver", errHandler, md.conductor, md.sender, md.receiver)
		md.composites = []*agent.Composite{composite}
		md.runners = []*agent.Runner{agent.NewRunner(composite, cc.SharedIdleStrategy, errHandler, -1)}

	case configuration.SharedNetwork:
		network := agent.NewComposite("sender-receiver", errHandler, md.sender, md.receiver)
		md.composites = []*agent.Composite{network}
		md.runners = []*agent.Runner{
			agent.NewRunner(md.conductor, cc.ConductorIdleStrategy, errHandler, -1),
			agent.NewRunner(network, cc.SharedNetworkIdleStrategy, errHandler, -1),
		}

	case configuration.Dedicated:
		md.runners = []*agent.Runner{
			agent.NewRunner(md.conductor, cc.ConductorIdleStrategy, errHandler, -1),
			agent.NewRunner(md.sender, cc.SenderIdleStrategy, errHandler, -1),
			agent.NewRunner(md.receiver, cc.ReceiverIdleStrategy, errHandler, -1),
		}

	default:
		cc.Close()
		return nil, &ConfigurationError{Field: "threading_mode", Reason: fmt.Sprintf("unknown mode %v", ctx.ThreadingMode)}
	}

	for _, r := range md.runners {
		r.Start()
	}

	return md, nil
}

// Invoke pumps the driver synchronously; valid only in INVOKER mode.
// Callers must poll it in a loop on their own thread.
func (md *MediaDriver) Invoke() int {
	if md.invoker == nil {
		return 0
	}
	return md.invoker.Invoke()
}

// defaultErrorHandler records into the error log, falling back to
// stderr if the log is full, and counts every error regardless of
// where it landed.
func (md *MediaDriver) defaultErrorHandler() agent.ErrorHandler {
	return func(role string, err error) {
		if _, recErr := md.cc.ErrorLog.Record(role+": "+err.Error(), md.cc.Context.NanoClock.TimeNanos()); recErr != nil {
			debug.DropError(role, err)
		}
		atomic.AddInt64(md.cc.SystemCounters.Get(counters.Errors), 1)
	}
}

// Close stops every runner/invoker, disables the platform timer if
// this driver enabled it, and releases the concluded context's
// resources.
func (md *MediaDriver) Close() error {
	for _, r := range md.runners {
		r.Close()
	}
	if md.invoker != nil {
		md.invoker.Close()
	}
	if md.timer != nil {
		md.timer.Disable()
	}
	return md.cc.Close()
}
