// Acquire/release helpers for the ring's seq field, implemented with
// sync/atomic on every architecture. Seq-cst is a conservative superset
// of the required order; no architecture in this pack carries a faster
// hand-written alternative, so there is nothing to specialize amd64 to.

package ring

import "sync/atomic"

// loadAcquireUint64 is an acquire load of *p.
func loadAcquireUint64(p *uint64) uint64 {
	return atomic.LoadUint64(p)
}

// storeReleaseUint64 is a release store to *p.
func storeReleaseUint64(p *uint64, v uint64) {
	atomic.StoreUint64(p, v)
}
