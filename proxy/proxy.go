// Package proxy wraps a cmdqueue.Queue[Command] with typed
// send_<command> operations, one Proxy per direction (to-conductor,
// to-sender, to-receiver). The threading-mode-aware inline-dispatch
// rule lives here: in threading modes where the producer and consumer
// are the same agent (SHARED, SHARED_NETWORK's sender and receiver
// side, INVOKER), a Proxy is constructed inline and never touches its queue
// at all — it calls the handler synchronously instead. This is the
// hard invariant P5 depends on, so it is enforced at construction, not
// by a runtime branch a caller could get wrong.
package proxy

import (
	"sync/atomic"

	"github.com/schets/aeron/cmdqueue"
)

// Proxy is either queued (producer and consumer are different agents)
// or inline (same agent; handler runs synchronously and the queue
// field is nil).
type Proxy struct {
	queue       *cmdqueue.Queue[Command]
	failCounter *int64
	handler     func(*Command)
}

// NewQueued returns a Proxy that offers commands onto queue, counting
// any offer failure against failCounter.
func NewQueued(queue *cmdqueue.Queue[Command], failCounter *int64) *Proxy {
	return &Proxy{queue: queue, failCounter: failCounter}
}

// NewInline returns a Proxy that calls handler synchronously for every
// command and never enqueues — the dispatch mode for SHARED/INVOKER.
func NewInline(handler func(*Command)) *Proxy {
	return &Proxy{handler: handler}
}

// IsInline reports whether this proxy dispatches synchronously.
func (p *Proxy) IsInline() bool { return p.handler != nil }

func (p *Proxy) send(cmd *Command) bool {
	if p.handler != nil {
		p.handler(cmd)
		return true
	}
	if p.queue.Offer(cmd) {
		return true
	}
	if p.failCounter != nil {
		atomic.AddInt64(p.failCounter, 1)
	}
	return false
}

func (p *Proxy) SendCreatePublication(streamID, sessionID int32, channel string, regID int64) bool {
	return p.send(&Command{Kind: CreatePublication, StreamID: streamID, SessionID: sessionID, Channel: channel, RegistrationID: regID})
}

func (p *Proxy) SendClosePublication(regID int64) bool {
	return p.send(&Command{Kind: ClosePublication, RegistrationID: regID})
}

func (p *Proxy) SendCreateSubscription(streamID int32, channel string, regID int64) bool {
	return p.send(&Command{Kind: CreateSubscription, StreamID: streamID, Channel: channel, RegistrationID: regID})
}

func (p *Proxy) SendCloseSubscription(regID int64) bool {
	return p.send(&Command{Kind: CloseSubscription, RegistrationID: regID})
}

func (p *Proxy) SendAddDestination(regID int64, channel string) bool {
	return p.send(&Command{Kind: AddDestination, RegistrationID: regID, Channel: channel})
}

func (p *Proxy) SendRemoveDestination(regID int64, channel string) bool {
	return p.send(&Command{Kind: RemoveDestination, RegistrationID: regID, Channel: channel})
}

func (p *Proxy) SendCreateCounter(typeID int32, label string, key []byte, regID int64) bool {
	return p.send(&Command{Kind: CreateCounter, CounterTypeID: typeID, CounterLabel: label, CounterKey: key, RegistrationID: regID})
}

func (p *Proxy) SendCloseCounter(regID int64) bool {
	return p.send(&Command{Kind: CloseCounter, RegistrationID: regID})
}

func (p *Proxy) SendReleaseCounter(regID int64) bool {
	return p.send(&Command{Kind: ReleaseCounter, RegistrationID: regID})
}

func (p *Proxy) SendHousekeepingTick() bool {
	return p.send(&Command{Kind: HousekeepingTick})
}
