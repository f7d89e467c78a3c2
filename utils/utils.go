// Package utils holds small zero-allocation helpers shared by the driver's
// hot and cold paths: unsafe byte/string conversions, unaligned word loads
// for memory-mapped regions, a Murmur3-style mixer for hash-indexed
// structures (used by the errorlog package), and a stderr writer used by
// the debug package.
package utils

import (
	"syscall"
	"unsafe"
)

///////////////////////////////////////////////////////////////////////////////
// Conversion Utilities — Zero-Alloc Casts
///////////////////////////////////////////////////////////////////////////////

// B2s converts a []byte to a string **without** allocation.
// Caller must ensure the input slice remains valid and unchanged.
//
//go:nosplit
//go:inline
func B2s(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

///////////////////////////////////////////////////////////////////////////////
// Fast Loaders — Unaligned 64/128-Bit Reads
///////////////////////////////////////////////////////////////////////////////

// Load64 reads an unaligned 64-bit word, in host byte order, from the
// start of a byte slice without binary.LittleEndian.
//
//go:nosplit
//go:inline
func Load64(b []byte) uint64 {
	return *(*uint64)(unsafe.Pointer(&b[0]))
}

///////////////////////////////////////////////////////////////////////////////
// Hash & Mixers
///////////////////////////////////////////////////////////////////////////////

// Mix64 applies a Murmur3-style avalanche to a 64-bit value. Used by
// the error log's description hash to randomize bucket indexing.
//
//go:nosplit
//go:inline
func Mix64(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}

///////////////////////////////////////////////////////////////////////////////
// Zero-Alloc Stderr Writer
///////////////////////////////////////////////////////////////////////////////

// PrintWarning writes msg to stderr (fd 2) directly via syscall.Write,
// bypassing fmt and os.Stderr's buffering to avoid heap allocation on
// cold diagnostic paths.
//
//go:nosplit
//go:inline
func PrintWarning(msg string) {
	b := unsafe.Slice(unsafe.StringData(msg), len(msg))
	syscall.Write(2, b)
}

// Itoa renders a signed int as decimal ASCII without strconv, for use in
// the zero-alloc logging paths that build messages by concatenation.
//
//go:nosplit
func Itoa(v int) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	neg := v < 0
	n := uint64(v)
	if neg {
		n = uint64(-v)
	}
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
