package errorlog

import "encoding/binary"

// Flush encodes every record into buf using a simple length-prefixed
// binary layout, for callers that must keep the CnC file's mapped
// error-log region in sync with this process-local Log — e.g. before
// closing the driver, or on a periodic housekeeping tick. It returns
// the number of bytes written and a nil error; records that don't fit
// in buf are silently dropped, so a buffer too small for any record
// yields 0 bytes written.
func (l *Log) Flush(buf []byte) (int, error) {
	records := l.Snapshot()
	off := 0
	for _, r := range records {
		need := 8 + 8 + 8 + 8 + 4 + len(r.Description)
		if off+need > len(buf) {
			break
		}
		binary.LittleEndian.PutUint64(buf[off:], r.Hash)
		binary.LittleEndian.PutUint64(buf[off+8:], uint64(r.FirstObservedNs))
		binary.LittleEndian.PutUint64(buf[off+16:], uint64(r.LastObservedNs))
		binary.LittleEndian.PutUint64(buf[off+24:], r.ObservationCount)
		binary.LittleEndian.PutUint32(buf[off+32:], uint32(len(r.Description)))
		copy(buf[off+36:], r.Description)
		off += need
	}
	if off+36 <= len(buf) {
		// a zero length-prefix terminates the record stream for Decode.
		binary.LittleEndian.PutUint32(buf[off+32:], 0)
	}
	return off, nil
}

// Decode reads back every record Flush wrote into buf. Used by the
// directory arbiter to salvage a dead driver's error log before the
// state directory is recreated.
func Decode(buf []byte) []Record {
	var out []Record
	off := 0
	for off+36 <= len(buf) {
		descLen := int(binary.LittleEndian.Uint32(buf[off+32:]))
		if descLen == 0 || off+36+descLen > len(buf) {
			break
		}
		out = append(out, Record{
			Hash:             binary.LittleEndian.Uint64(buf[off:]),
			FirstObservedNs:  int64(binary.LittleEndian.Uint64(buf[off+8:])),
			LastObservedNs:   int64(binary.LittleEndian.Uint64(buf[off+16:])),
			ObservationCount: binary.LittleEndian.Uint64(buf[off+24:]),
			Description:      string(buf[off+36 : off+36+descLen]),
		})
		off += 36 + descLen
	}
	return out
}
