// Package lossreport implements the driver's loss-report file: a
// separate memory-mapped region, owned by the Context and written only
// by the Conductor, recording observed loss events keyed by
// (session, stream, channel) identity. Repeated observations of the
// same identity update one record in place rather than appending a new
// one, mirroring the create-or-update-entry-by-identity discipline the
// CnC error log also uses. The file persists after Close for
// post-mortem inspection.
package lossreport

import (
	"errors"
	"unsafe"
)

const (
	recordLength = 64 // one cache line per entry

	offObservationCount  = 0
	offTotalBytesLost    = 8
	offFirstObservedNs   = 16
	offLastObservedNs    = 24
	offSessionID         = 32
	offStreamID          = 36
	offChannelLen        = 40
	offChannel           = 44
	maxChannelLength     = recordLength - offChannel
)

// ErrFull is returned by RecordObservation when every slot already
// holds a distinct identity and a brand-new one cannot be recorded.
var ErrFull = errors.New("lossreport: no free slots")

type entry struct {
	observationCount *int64
	totalBytesLost   *int64
	firstObservedNs  *int64
	lastObservedNs   *int64
	sessionID        *int32
	streamID         *int32
	channelLen       *int32
	channel          []byte
}

func entryAt(buf []byte, slot int) entry {
	base := slot * recordLength
	return entry{
		observationCount: (*int64)(unsafe.Pointer(&buf[base+offObservationCount])),
		totalBytesLost:   (*int64)(unsafe.Pointer(&buf[base+offTotalBytesLost])),
		firstObservedNs:  (*int64)(unsafe.Pointer(&buf[base+offFirstObservedNs])),
		lastObservedNs:   (*int64)(unsafe.Pointer(&buf[base+offLastObservedNs])),
		sessionID:        (*int32)(unsafe.Pointer(&buf[base+offSessionID])),
		streamID:         (*int32)(unsafe.Pointer(&buf[base+offStreamID])),
		channelLen:        (*int32)(unsafe.Pointer(&buf[base+offChannelLen])),
		channel:          buf[base+offChannel : base+recordLength],
	}
}

// Report is a buffered-append view over a fixed-capacity mapped region.
// Not safe for concurrent writers — by design, only the Conductor ever
// calls RecordObservation.
type Report struct {
	buf      []byte
	capacity int
}

// New wraps buf (a mapped, zero-filled region) as a Report with
// capacity = len(buf) / recordLength entries.
func New(buf []byte) *Report {
	return &Report{buf: buf, capacity: len(buf) / recordLength}
}

// RecordObservation updates the record for (sessionID, streamID,
// channel), creating it on first observation. nowNs stamps
// first/lastObservedNs; bytesLost accumulates into totalBytesLost.
func (r *Report) RecordObservation(sessionID, streamID int32, channel string, bytesLost, nowNs int64) error {
	if len(channel) > maxChannelLength {
		channel = channel[:maxChannelLength]
	}
	for slot := 0; slot < r.capacity; slot++ {
		e := entryAt(r.buf, slot)
		if *e.observationCount == 0 {
			*e.sessionID = sessionID
			*e.streamID = streamID
			*e.channelLen = int32(len(channel))
			copy(e.channel, channel)
			*e.firstObservedNs = nowNs
			*e.lastObservedNs = nowNs
			*e.totalBytesLost = bytesLost
			*e.observationCount = 1
			return nil
		}
		if *e.sessionID == sessionID && *e.streamID == streamID && string(e.channel[:*e.channelLen]) == channel {
			*e.lastObservedNs = nowNs
			*e.totalBytesLost += bytesLost
			*e.observationCount++
			return nil
		}
	}
	return ErrFull
}

// Observation is a plain-value snapshot of one loss-report record.
type Observation struct {
	SessionID        int32
	StreamID         int32
	Channel          string
	ObservationCount int64
	TotalBytesLost   int64
	FirstObservedNs  int64
	LastObservedNs   int64
}

// Snapshot returns every recorded observation, for operator tooling.
func (r *Report) Snapshot() []Observation {
	var out []Observation
	for slot := 0; slot < r.capacity; slot++ {
		e := entryAt(r.buf, slot)
		if *e.observationCount == 0 {
			continue
		}
		out = append(out, Observation{
			SessionID:        *e.sessionID,
			StreamID:         *e.streamID,
			Channel:          string(e.channel[:*e.channelLen]),
			ObservationCount: *e.observationCount,
			TotalBytesLost:   *e.totalBytesLost,
			FirstObservedNs:  *e.firstObservedNs,
			LastObservedNs:   *e.lastObservedNs,
		})
	}
	return out
}
