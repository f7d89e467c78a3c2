// Package driver assembles every subsystem — the directory arbiter,
// the CnC file, counters, proxies, the loss report, idle strategies —
// into a running MediaDriver, and tears them back down on Close. A
// Context is the mutable builder a caller fills in; Conclude validates
// it and turns it into an immutable ConcludedContext holding the
// opened resources, or fails and unwinds whatever it had already
// opened.
package driver

import (
	"fmt"

	"github.com/schets/aeron/agent"
	"github.com/schets/aeron/arbiter"
	"github.com/schets/aeron/clock"
	"github.com/schets/aeron/cmdqueue"
	"github.com/schets/aeron/cncfile"
	"github.com/schets/aeron/configuration"
	"github.com/schets/aeron/counters"
	"github.com/schets/aeron/errorlog"
	"github.com/schets/aeron/lossreport"
	"github.com/schets/aeron/proxy"
)

// Context is the mutable set of knobs a caller assembles before
// calling Conclude. Numeric, clock and idle-strategy fields left at
// their zero value fall back to the matching configuration default.
// Boolean flags and ThreadingMode are used exactly as given: a zero
// flag is off, and a zero ThreadingMode is Invoker.
type Context struct {
	Dir string

	UseWindowsHighResTimer  bool
	WarnIfDirectoryExists   bool
	DirDeleteOnStart        bool
	TermBufferSparseFile    bool
	SpiesSimulateConnection bool

	ClientLivenessTimeoutNs  int64
	ImageLivenessTimeoutNs   int64
	PublicationUnblockTimeNs int64
	StatusMessageTimeoutNs   int64
	DriverTimeoutMs          int64

	MaxTermBufferLength      int32
	PublicationTermBufLen    int32
	IpcPublicationTermBufLen int32
	InitialWindowLength      int32
	MtuLength                int32
	IpcMtuLength             int32
	SocketRcvBufLen          int32

	ThreadingMode configuration.ThreadingMode

	CmdQueueCapacity         int
	CounterMetadataRegionLen int32
	CounterValuesRegionLen   int32
	ToClientsBufferLen       int32
	ToDriverBufferLen        int32
	ErrorLogBufferLen        int32
	LossReportBufferLen      int32
	ErrorLogCapacityRecords  int

	UseConcurrentCountersManager bool

	EpochClock clock.EpochClock
	NanoClock  clock.NanoClock

	ConductorIdleStrategy     agent.IdleStrategy
	SenderIdleStrategy        agent.IdleStrategy
	ReceiverIdleStrategy      agent.IdleStrategy
	SharedIdleStrategy        agent.IdleStrategy
	SharedNetworkIdleStrategy agent.IdleStrategy
}

func (c *Context) applyDefaults() {
	if c.ClientLivenessTimeoutNs == 0 {
		c.ClientLivenessTimeoutNs = configuration.DefaultClientLivenessTimeoutNs
	}
	if c.ImageLivenessTimeoutNs == 0 {
		c.ImageLivenessTimeoutNs = configuration.DefaultImageLivenessTimeoutNs
	}
	if c.PublicationUnblockTimeNs == 0 {
		c.PublicationUnblockTimeNs = configuration.DefaultPublicationUnblockTimeNs
	}
	if c.StatusMessageTimeoutNs == 0 {
		c.StatusMessageTimeoutNs = configuration.DefaultStatusMessageTimeoutNs
	}
	if c.DriverTimeoutMs == 0 {
		c.DriverTimeoutMs = configuration.DefaultDriverTimeoutMs
	}
	if c.MaxTermBufferLength == 0 {
		c.MaxTermBufferLength = configuration.DefaultMaxTermBufferLength
	}
	if c.PublicationTermBufLen == 0 {
		c.PublicationTermBufLen = configuration.DefaultPublicationTermBufLen
	}
	if c.IpcPublicationTermBufLen == 0 {
		c.IpcPublicationTermBufLen = configuration.DefaultIpcPublicationTermBufLen
	}
	if c.InitialWindowLength == 0 {
		c.InitialWindowLength = configuration.DefaultInitialWindowLength
	}
	if c.MtuLength == 0 {
		c.MtuLength = configuration.DefaultMtuLength
	}
	if c.IpcMtuLength == 0 {
		c.IpcMtuLength = configuration.DefaultIpcMtuLength
	}
	if c.SocketRcvBufLen == 0 {
		c.SocketRcvBufLen = configuration.DefaultSocketRcvBufLen
	}
	if c.CmdQueueCapacity == 0 {
		c.CmdQueueCapacity = configuration.DefaultCmdQueueCapacity
	}
	if c.CounterMetadataRegionLen == 0 {
		c.CounterMetadataRegionLen = configuration.DefaultCounterMetadataRegionLen
	}
	if c.CounterValuesRegionLen == 0 {
		c.CounterValuesRegionLen = configuration.DefaultCounterValuesRegionLen
	}
	if c.ToClientsBufferLen == 0 {
		c.ToClientsBufferLen = configuration.DefaultToClientsBufferLen
	}
	if c.ToDriverBufferLen == 0 {
		c.ToDriverBufferLen = configuration.DefaultToDriverBufferLen
	}
	if c.ErrorLogBufferLen == 0 {
		c.ErrorLogBufferLen = configuration.DefaultErrorLogBufferLen
	}
	if c.LossReportBufferLen == 0 {
		c.LossReportBufferLen = configuration.DefaultLossReportBufferLen
	}
	if c.ErrorLogCapacityRecords == 0 {
		c.ErrorLogCapacityRecords = configuration.DefaultErrorLogCapacityRecords
	}
	if c.EpochClock == nil {
		c.EpochClock = clock.SystemEpochClock{}
	}
	if c.NanoClock == nil {
		c.NanoClock = clock.SystemNanoClock{}
	}
	if c.ConductorIdleStrategy == nil {
		c.ConductorIdleStrategy = agent.NewBackoffIdleStrategy()
	}
	if c.SenderIdleStrategy == nil {
		c.SenderIdleStrategy = agent.NewBackoffIdleStrategy()
	}
	if c.ReceiverIdleStrategy == nil {
		c.ReceiverIdleStrategy = agent.NewBackoffIdleStrategy()
	}
	if c.SharedIdleStrategy == nil {
		c.SharedIdleStrategy = agent.NewBackoffIdleStrategy()
	}
	if c.SharedNetworkIdleStrategy == nil {
		c.SharedNetworkIdleStrategy = agent.NewBackoffIdleStrategy()
	}
}

// validate implements step 1 of Conclude.
func (c *Context) validate() error {
	if c.MtuLength < configuration.MinMtuLength || int(c.MtuLength) > configuration.MaxUdpPayloadLength {
		return &ConfigurationError{Field: "mtu_length", Reason: fmt.Sprintf("%d outside [%d, %d]", c.MtuLength, configuration.MinMtuLength, configuration.MaxUdpPayloadLength)}
	}
	if c.IpcMtuLength < configuration.MinMtuLength || int(c.IpcMtuLength) > configuration.MaxUdpPayloadLength {
		return &ConfigurationError{Field: "ipc_mtu_length", Reason: fmt.Sprintf("%d outside [%d, %d]", c.IpcMtuLength, configuration.MinMtuLength, configuration.MaxUdpPayloadLength)}
	}
	for _, tb := range []struct {
		name string
		v    int32
	}{
		{"max_term_buffer_length", c.MaxTermBufferLength},
		{"publication_term_buffer_length", c.PublicationTermBufLen},
		{"ipc_publication_term_buffer_length", c.IpcPublicationTermBufLen},
	} {
		if !isPowerOfTwo(tb.v) || tb.v < configuration.MinTermBufferLength || int64(tb.v) > int64(configuration.DefaultMaxTermBufferLength) {
			return &ConfigurationError{Field: tb.name, Reason: fmt.Sprintf("%d is not a power of two within [%d, %d]", tb.v, configuration.MinTermBufferLength, configuration.DefaultMaxTermBufferLength)}
		}
	}
	if c.PublicationTermBufLen > c.MaxTermBufferLength {
		return &ConfigurationError{Field: "publication_term_buffer_length", Reason: fmt.Sprintf("%d exceeds max_term_buffer_length %d", c.PublicationTermBufLen, c.MaxTermBufferLength)}
	}
	if c.IpcPublicationTermBufLen > c.MaxTermBufferLength {
		return &ConfigurationError{Field: "ipc_publication_term_buffer_length", Reason: fmt.Sprintf("%d exceeds max_term_buffer_length %d", c.IpcPublicationTermBufLen, c.MaxTermBufferLength)}
	}
	if c.InitialWindowLength >= c.SocketRcvBufLen {
		return &ConfigurationError{Field: "initial_window_length", Reason: fmt.Sprintf("%d must be less than socket_rcvbuf_length %d", c.InitialWindowLength, c.SocketRcvBufLen)}
	}
	return nil
}

func isPowerOfTwo(v int32) bool {
	return v > 0 && v&(v-1) == 0
}

// ConcludedContext is the immutable result of a successful Conclude:
// every resource Conclude opened, ready for MediaDriver to assemble
// agents around. Close tears all of it down in reverse order.
type ConcludedContext struct {
	Context *Context

	CncFile *cncfile.CncFile

	ClientProxy *proxy.Proxy
	ErrorLog    *errorlog.Log

	CountersManager counters.CountersManager
	SystemCounters  *counters.SystemCounters

	ConductorProxy *proxy.Proxy
	SenderProxy    *proxy.Proxy
	ReceiverProxy  *proxy.Proxy

	conductorQueue *cmdqueue.Queue[proxy.Command]
	senderQueue    *cmdqueue.Queue[proxy.Command]
	receiverQueue  *cmdqueue.Queue[proxy.Command]

	LossReport *lossreport.Report
	lossFile   *lossReportFile

	ConductorIdleStrategy     agent.IdleStrategy
	SenderIdleStrategy        agent.IdleStrategy
	ReceiverIdleStrategy      agent.IdleStrategy
	SharedIdleStrategy        agent.IdleStrategy
	SharedNetworkIdleStrategy agent.IdleStrategy

	ArbiterResult arbiter.Result
}

// Conclude runs the twelve-step validate-and-bind sequence. Any
// failure before step 12 (signal ready) unwinds whatever had already
// been opened and returns the error; after step 12 the driver is
// discoverable by clients mapping the CnC file.
func Conclude(ctx *Context) (*ConcludedContext, error) {
	ctx.applyDefaults()

	// step 1: validation
	if err := ctx.validate(); err != nil {
		return nil, err
	}

	// directory arbitration precedes CnC creation; a live peer aborts
	// before anything new is mapped.
	arbResult, err := arbiter.Arbitrate(arbiter.Options{
		Dir:                     ctx.Dir,
		ClientLivenessTimeoutMs: ctx.DriverTimeoutMs,
		WarnIfDirectoryExists:   ctx.WarnIfDirectoryExists,
		DirDeleteOnStart:        ctx.DirDeleteOnStart,
	}, ctx.EpochClock.TimeMillis, salvageToFile(ctx.Dir))
	if err != nil {
		return nil, err
	}

	cc := &ConcludedContext{Context: ctx, ArbiterResult: arbResult}

	// step 2: CnC creation
	regions := cncfile.RegionLengths{
		ToDriver:        ctx.ToDriverBufferLen,
		ToClients:       ctx.ToClientsBufferLen,
		CounterMetadata: ctx.CounterMetadataRegionLen,
		CounterValues:   ctx.CounterValuesRegionLen,
		ErrorLog:        ctx.ErrorLogBufferLen,
	}
	cf, err := cncfile.Create(ctx.Dir, regions, ctx.ClientLivenessTimeoutNs, ctx.EpochClock.TimeMillis(), currentPid())
	if err != nil {
		return nil, &IoError{Op: "cncfile.Create", Err: err}
	}
	cc.CncFile = cf
	unwind := []func(){func() { cf.Close() }}
	fail := func(err error) (*ConcludedContext, error) {
		for i := len(unwind) - 1; i >= 0; i-- {
			unwind[i]()
		}
		return nil, err
	}

	// step 3: client proxy over the to-clients broadcast region — a
	// queued Proxy here stands in for the broadcast transmitter, which
	// is an out-of-scope collaborator; what matters at this layer is
	// that exactly one Proxy owns the hand-off.
	clientQueue := cmdqueue.New[proxy.Command](ctx.CmdQueueCapacity)
	cc.ClientProxy = proxy.NewQueued(clientQueue, nil)

	// step 4: to-driver ring buffer wrapping the conductor region. The
	// MPSC claim/commit wire protocol belongs to the client codec,
	// which is out of scope here; this layer is responsible only for
	// the region's lifecycle and its consumer-heartbeat slot.

	// step 5: error log + default error handler
	cc.ErrorLog = errorlog.New(ctx.ErrorLogCapacityRecords)

	// step 6: counters
	if ctx.UseConcurrentCountersManager {
		cc.CountersManager = counters.NewConcurrentManager(cf.CounterMetadataBuffer(), cf.CounterValuesBuffer())
	} else {
		cc.CountersManager = counters.NewManager(cf.CounterMetadataBuffer(), cf.CounterValuesBuffer())
	}
	sysCounters, err := counters.NewSystemCounters(cc.CountersManager)
	if err != nil {
		return fail(&ConfigurationError{Field: "counters", Reason: err.Error()})
	}
	cc.SystemCounters = sysCounters

	// step 7: proxies bound to queues and fail-counters, honoring the
	// threading-mode inline-dispatch rule.
	cc.conductorQueue = cmdqueue.New[proxy.Command](ctx.CmdQueueCapacity)
	cc.senderQueue = cmdqueue.New[proxy.Command](ctx.CmdQueueCapacity)
	cc.receiverQueue = cmdqueue.New[proxy.Command](ctx.CmdQueueCapacity)

	conductorFails := sysCounters.Get(counters.ConductorProxyFails)
	senderFails := sysCounters.Get(counters.SenderProxyFails)
	receiverFails := sysCounters.Get(counters.ReceiverProxyFails)

	inlineHandler := func(*proxy.Command) {}
	if ctx.ThreadingMode == configuration.Shared || ctx.ThreadingMode == configuration.Invoker {
		cc.ConductorProxy = proxy.NewInline(inlineHandler)
		cc.SenderProxy = proxy.NewInline(inlineHandler)
		cc.ReceiverProxy = proxy.NewInline(inlineHandler)
	} else if ctx.ThreadingMode == configuration.SharedNetwork {
		cc.ConductorProxy = proxy.NewQueued(cc.conductorQueue, conductorFails)
		cc.SenderProxy = proxy.NewInline(inlineHandler)
		cc.ReceiverProxy = proxy.NewInline(inlineHandler)
	} else {
		cc.ConductorProxy = proxy.NewQueued(cc.conductorQueue, conductorFails)
		cc.SenderProxy = proxy.NewQueued(cc.senderQueue, senderFails)
		cc.ReceiverProxy = proxy.NewQueued(cc.receiverQueue, receiverFails)
	}

	// step 8: raw-log factory — external collaborator, out of scope;
	// nothing to bind here beyond the sparse-file flag already carried
	// on ctx for whichever factory a caller supplies.

	// step 9: loss report
	lossFile, err := createLossReportFile(ctx.Dir, int(ctx.LossReportBufferLen))
	if err != nil {
		return fail(&IoError{Op: "lossreport.create", Err: err})
	}
	cc.lossFile = lossFile
	unwind = append(unwind, func() { lossFile.Close() })
	cc.LossReport = lossreport.New(lossFile.Bytes())

	// step 10: idle strategies
	cc.ConductorIdleStrategy = ctx.ConductorIdleStrategy
	cc.SenderIdleStrategy = ctx.SenderIdleStrategy
	cc.ReceiverIdleStrategy = ctx.ReceiverIdleStrategy
	cc.SharedIdleStrategy = ctx.SharedIdleStrategy
	cc.SharedNetworkIdleStrategy = ctx.SharedNetworkIdleStrategy

	// step 11: consumer-heartbeat
	cf.SetHeartbeatMs(ctx.EpochClock.TimeMillis())

	// step 12: signal CnC ready — must be last.
	cf.SignalReady()

	return cc, nil
}

// Close tears down every resource Conclude opened, in reverse order.
func (cc *ConcludedContext) Close() error {
	var firstErr error
	if cc.lossFile != nil {
		if err := cc.lossFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if cc.CncFile != nil {
		if err := cc.CncFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
