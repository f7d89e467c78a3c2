// Package errorlog is a distinct error log: every agent (conductor,
// sender, receiver) funnels its failures through one shared Log, which
// deduplicates repeated errors by a hash of their description text
// instead of retaining one record per occurrence. A record tracks the
// first/last observation time and an occurrence count, and keeps the
// full description text so an operator inspecting the CnC error region
// can see exactly what went wrong.
//
// It is a hash-keyed "update in place or insert" structure: a record's
// identity is the description hash, its payload is a variable-length
// description string, and the number of distinct records is fixed at
// construction.
//
// A Log is safe for concurrent use by multiple agents.
package errorlog

import (
	"errors"
	"sync"
	"unsafe"

	"github.com/schets/aeron/utils"
)

// ErrArenaFull is returned by Record when the Log already holds its
// capacity of distinct records. Existing records can still be
// updated; only brand-new descriptions are rejected.
var ErrArenaFull = errors.New("errorlog: text arena exhausted")

// Record is one distinct error observed by the driver.
type Record struct {
	Hash             uint64
	Description      string
	FirstObservedNs  int64
	LastObservedNs   int64
	ObservationCount uint64
}

const defaultBuckets = 1 << 10 // 1024 hash buckets, linear-probed

// Log is a bounded, hash-indexed collection of distinct error records.
// It never grows past its construction capacity: once that many
// distinct records are held, only updates to already-known
// descriptions succeed.
type Log struct {
	// A plain mutex, not the lock-free atomic-slot append described for
	// this record's mapped-file counterpart: update-in-place-by-hash
	// needs to read a bucket, compare descriptions, and conditionally
	// bump a count as one step, which a single CAS on a slot pointer
	// cannot express. See DESIGN.md's Open Question 1.
	mu      sync.Mutex
	buckets []int32 // index into records, or -1 if empty
	records []Record
	count   int
}

// New returns a Log with room for up to capacity distinct records.
// capacity is rounded up to the next power of two for bucket indexing.
func New(capacity int) *Log {
	if capacity < 1 {
		capacity = 1
	}
	n := 1
	for n < capacity {
		n <<= 1
	}
	buckets := make([]int32, max(n, defaultBuckets))
	for i := range buckets {
		buckets[i] = -1
	}
	return &Log{
		buckets: buckets,
		records: make([]Record, 0, capacity),
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Record inserts or updates the distinct record for description,
// stamping nowNs as the new LastObservedNs and bumping the occurrence
// count. It returns the record's hash, which callers may use as a
// stable handle for correlating log lines with CnC error entries.
func (l *Log) Record(description string, nowNs int64) (uint64, error) {
	h := hashString(description)
	l.mu.Lock()
	defer l.mu.Unlock()

	mask := uint64(len(l.buckets) - 1)
	idx := h & mask
	for {
		slot := l.buckets[idx]
		if slot == -1 {
			break
		}
		r := &l.records[slot]
		if r.Hash == h && r.Description == description {
			r.LastObservedNs = nowNs
			r.ObservationCount++
			return h, nil
		}
		idx = (idx + 1) & mask
	}

	if len(l.records) == cap(l.records) {
		return h, ErrArenaFull
	}
	l.records = append(l.records, Record{
		Hash:             h,
		Description:      description,
		FirstObservedNs:  nowNs,
		LastObservedNs:   nowNs,
		ObservationCount: 1,
	})
	l.buckets[idx] = int32(len(l.records) - 1)
	l.count++
	return h, nil
}

// Snapshot returns a copy of every distinct record currently held,
// ordered by insertion. Used by the CnC error-region writer and by
// operator tooling; never called from a hot path.
func (l *Log) Snapshot() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Len reports the number of distinct records currently held.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

//go:nosplit
//go:inline
func hashString(s string) uint64 {
	if len(s) == 0 {
		return utils.Mix64(0)
	}
	b := unsafe.Slice(unsafe.StringData(s), len(s))
	var h uint64 = 0xcbf29ce484222325
	for _, c := range b {
		h ^= uint64(c)
		h = utils.Mix64(h)
	}
	return h
}
