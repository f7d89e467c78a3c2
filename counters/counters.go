// Package counters implements the CnC file's counters subsystem: a
// metadata buffer describing every live counter (id, type, label, key
// bytes) and a parallel values buffer of cache-line-padded 64-bit
// slots. Readers — other agents and clients mapping the same CnC file
// — only ever read; the writer discipline lives entirely in Manager
// and ConcurrentManager.
package counters

import (
	"errors"
	"sync/atomic"
	"unsafe"

	"github.com/schets/aeron/configuration"
)

const (
	metadataRecordLength = 128
	valuesSlotLength     = configuration.CacheLineLength

	statusUnused    = int32(0)
	statusAllocated = int32(1)
	statusReclaimed = int32(-1)

	maxKeyLength   = 32
	maxLabelLength = 80
)

var (
	ErrNoFreeSlots  = errors.New("counters: no free counter slots")
	ErrInvalidID    = errors.New("counters: invalid counter id")
	ErrLabelTooLong = errors.New("counters: label exceeds maximum length")
	ErrKeyTooLong   = errors.New("counters: key exceeds maximum length")
)

// CountersManager allocates and frees counters backed by a CnC
// metadata+values buffer pair. Both Manager (single-writer) and
// ConcurrentManager (CAS on each slot's status word; it keeps no free
// list) satisfy it.
type CountersManager interface {
	Allocate(typeID int32, label string, key []byte) (int32, error)
	Free(id int32) error
	ValuePointer(id int32) (*int64, error)
	MaxCounters() int
}

// record is a view into one 128-byte metadata slot.
type record struct {
	status   *int32
	typeID   *int32
	keyLen   *int32
	key      []byte
	labelLen *int32
	label    []byte
}

func recordAt(meta []byte, id int32) record {
	base := int(id) * metadataRecordLength
	return record{
		status:   (*int32)(unsafe.Pointer(&meta[base])),
		typeID:   (*int32)(unsafe.Pointer(&meta[base+4])),
		keyLen:   (*int32)(unsafe.Pointer(&meta[base+8])),
		key:      meta[base+12 : base+12+maxKeyLength],
		labelLen: (*int32)(unsafe.Pointer(&meta[base+44])),
		label:    meta[base+48 : base+48+maxLabelLength],
	}
}

func valueSlotAt(values []byte, id int32) *int64 {
	base := int(id) * valuesSlotLength
	return (*int64)(unsafe.Pointer(&values[base]))
}

// Manager is a single-writer CountersManager: correct only when the
// driver's Conductor is the sole goroutine calling Allocate/Free. This
// is the default — the conductor owns counter registration for the
// whole driver.
type Manager struct {
	meta     []byte
	values   []byte
	max      int
	nextFree int32
}

// NewManager wraps the CnC metadata and values regions. Both buffers
// must already be zero-filled (cncfile.Create guarantees this).
func NewManager(meta, values []byte) *Manager {
	max := len(meta) / metadataRecordLength
	if v := len(values) / valuesSlotLength; v < max {
		max = v
	}
	return &Manager{meta: meta, values: values, max: max}
}

func (m *Manager) MaxCounters() int { return m.max }

func (m *Manager) Allocate(typeID int32, label string, key []byte) (int32, error) {
	if len(label) > maxLabelLength {
		return -1, ErrLabelTooLong
	}
	if len(key) > maxKeyLength {
		return -1, ErrKeyTooLong
	}
	for id := m.nextFree; id < int32(m.max); id++ {
		r := recordAt(m.meta, id)
		if *r.status != statusAllocated {
			m.writeRecord(r, typeID, label, key)
			m.nextFree = id + 1
			return id, nil
		}
	}
	// wrap and scan reclaimed slots from the start.
	for id := int32(0); id < m.nextFree; id++ {
		r := recordAt(m.meta, id)
		if *r.status != statusAllocated {
			m.writeRecord(r, typeID, label, key)
			return id, nil
		}
	}
	return -1, ErrNoFreeSlots
}

func (m *Manager) writeRecord(r record, typeID int32, label string, key []byte) {
	*r.typeID = typeID
	*r.keyLen = int32(len(key))
	copy(r.key, key)
	*r.labelLen = int32(len(label))
	copy(r.label, label)
	atomic.StoreInt32(r.status, statusAllocated)
}

func (m *Manager) Free(id int32) error {
	if id < 0 || int(id) >= m.max {
		return ErrInvalidID
	}
	r := recordAt(m.meta, id)
	atomic.StoreInt32(r.status, statusReclaimed)
	if id < m.nextFree {
		m.nextFree = id
	}
	return nil
}

func (m *Manager) ValuePointer(id int32) (*int64, error) {
	if id < 0 || int(id) >= m.max {
		return nil, ErrInvalidID
	}
	return valueSlotAt(m.values, id), nil
}

// Label returns the label recorded for id, for CnC inspection tooling.
func (m *Manager) Label(id int32) (string, error) {
	if id < 0 || int(id) >= m.max {
		return "", ErrInvalidID
	}
	r := recordAt(m.meta, id)
	n := *r.labelLen
	return string(r.label[:n]), nil
}

// ConcurrentManager is a CountersManager safe for multiple concurrent
// allocators, using CAS on each slot's status word instead of a
// single-writer free cursor.
type ConcurrentManager struct {
	meta   []byte
	values []byte
	max    int
	cursor int32
}

func NewConcurrentManager(meta, values []byte) *ConcurrentManager {
	max := len(meta) / metadataRecordLength
	if v := len(values) / valuesSlotLength; v < max {
		max = v
	}
	return &ConcurrentManager{meta: meta, values: values, max: max}
}

func (m *ConcurrentManager) MaxCounters() int { return m.max }

func (m *ConcurrentManager) Allocate(typeID int32, label string, key []byte) (int32, error) {
	if len(label) > maxLabelLength {
		return -1, ErrLabelTooLong
	}
	if len(key) > maxKeyLength {
		return -1, ErrKeyTooLong
	}
	for i := 0; i < m.max; i++ {
		id := atomic.AddInt32(&m.cursor, 1) % int32(m.max)
		r := recordAt(m.meta, id)
		if atomic.CompareAndSwapInt32(r.status, statusUnused, statusAllocated) ||
			atomic.CompareAndSwapInt32(r.status, statusReclaimed, statusAllocated) {
			*r.typeID = typeID
			*r.keyLen = int32(len(key))
			copy(r.key, key)
			*r.labelLen = int32(len(label))
			copy(r.label, label)
			return id, nil
		}
	}
	return -1, ErrNoFreeSlots
}

func (m *ConcurrentManager) Free(id int32) error {
	if id < 0 || int(id) >= m.max {
		return ErrInvalidID
	}
	r := recordAt(m.meta, id)
	atomic.StoreInt32(r.status, statusReclaimed)
	return nil
}

func (m *ConcurrentManager) ValuePointer(id int32) (*int64, error) {
	if id < 0 || int(id) >= m.max {
		return nil, ErrInvalidID
	}
	return valueSlotAt(m.values, id), nil
}
