package counters

// SystemCounterID enumerates the fixed set of counters the driver
// registers exactly once at conclude time. IDs are stable for the
// lifetime of the CnC file; a client reading the metadata buffer can
// rely on the label matching the name below even across driver
// restarts, since registration order never changes.
type SystemCounterID int32

const (
	Errors SystemCounterID = iota
	SenderProxyFails
	ReceiverProxyFails
	ConductorProxyFails
	ControllableIdleStrategy
	BytesSent
	BytesReceived
	ReceiverFrameRequests
	PublicationsUnblocked
	ImagesUnblocked
	ClientKeepAlives
	SentNakUpsFromHeartbeat
	ReceiverRetransmitInvocations
	SenderFlowControlLimits
	UnicastSenderLimits
	MulticastSenderLimits
	ReceiverLossGapFills
	AggregatedTermBufferLengths
	PublicationsReady
	SubscriptionsReady
	HeartbeatsSent
	HeartbeatsReceived
	RetransmitsSent
	FlowControlUnderRuns
	FlowControlOverRuns
	InvalidPackets
	Errors2
	ShortSends
	FreeFails
	SenderFlushes
	ReceiverFlushes
	ConductorCycleTimeExceeded
	SenderCycleTimeExceeded
	ReceiverCycleTimeExceeded
	NameResolutionTimeouts

	systemCounterCount
)

var systemCounterLabels = [systemCounterCount]string{
	Errors:                         "Errors",
	SenderProxyFails:               "Sender proxy fails",
	ReceiverProxyFails:             "Receiver proxy fails",
	ConductorProxyFails:            "Conductor proxy fails",
	ControllableIdleStrategy:       "Controllable idle strategy status",
	BytesSent:                      "Bytes sent",
	BytesReceived:                  "Bytes received",
	ReceiverFrameRequests:          "Receiver frame requests",
	PublicationsUnblocked:          "Publications unblocked",
	ImagesUnblocked:                "Images unblocked",
	ClientKeepAlives:               "Client keep-alives",
	SentNakUpsFromHeartbeat:        "NAKs sent from heartbeat",
	ReceiverRetransmitInvocations:  "Receiver retransmit invocations",
	SenderFlowControlLimits:        "Sender flow control limits applied",
	UnicastSenderLimits:            "Unicast sender limits",
	MulticastSenderLimits:          "Multicast sender limits",
	ReceiverLossGapFills:           "Receiver loss gap fills",
	AggregatedTermBufferLengths:    "Aggregated term buffer lengths",
	PublicationsReady:              "Publications ready",
	SubscriptionsReady:             "Subscriptions ready",
	HeartbeatsSent:                 "Heartbeats sent",
	HeartbeatsReceived:             "Heartbeats received",
	RetransmitsSent:                "Retransmits sent",
	FlowControlUnderRuns:           "Flow control under-runs",
	FlowControlOverRuns:            "Flow control over-runs",
	InvalidPackets:                 "Invalid packets",
	Errors2:                        "Errors (secondary)",
	ShortSends:                     "Short sends",
	FreeFails:                      "Free fails",
	SenderFlushes:                  "Sender flushes",
	ReceiverFlushes:                "Receiver flushes",
	ConductorCycleTimeExceeded:     "Conductor cycle time exceeded",
	SenderCycleTimeExceeded:        "Sender cycle time exceeded",
	ReceiverCycleTimeExceeded:      "Receiver cycle time exceeded",
	NameResolutionTimeouts:         "Name resolution timeouts",
}

// SystemCounters registers the fixed enumeration above exactly once
// during Context.Conclude and exposes a typed pointer per counter so
// hot paths can Add/Store without going through CountersManager again.
type SystemCounters struct {
	ids     [systemCounterCount]int32
	values  [systemCounterCount]*int64
}

// NewSystemCounters allocates one counter per SystemCounterID against
// mgr, in declaration order, and returns the bound set.
func NewSystemCounters(mgr CountersManager) (*SystemCounters, error) {
	sc := &SystemCounters{}
	for i := SystemCounterID(0); i < systemCounterCount; i++ {
		id, err := mgr.Allocate(int32(i), systemCounterLabels[i], nil)
		if err != nil {
			return nil, err
		}
		ptr, err := mgr.ValuePointer(id)
		if err != nil {
			return nil, err
		}
		sc.ids[i] = id
		sc.values[i] = ptr
	}
	return sc, nil
}

// Get returns the live pointer for a system counter, for atomic
// Add/Store by the agent that owns it.
func (sc *SystemCounters) Get(id SystemCounterID) *int64 {
	return sc.values[id]
}
