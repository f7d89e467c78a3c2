package cncfile

import "github.com/schets/aeron/configuration"

// The meta-data header occupies exactly one cache line. Every field
// below is written during Create, in this declared order, with the
// ready word written last using a release store — clients must never
// interpret any other region of the file until they observe ready=1.
//
//	offset  size  field
//	0       4     cncVersion
//	4       4     (padding)
//	8       4     toDriverBufferLength
//	12      4     toClientsBufferLength
//	16      4     counterMetadataBufferLength
//	20      4     counterValuesBufferLength
//	24      4     errorLogBufferLength
//	28      4     (padding)
//	32      8     clientLivenessTimeoutNs
//	40      8     startTimestampMs
//	48      8     pid
//	56      4     readyWord
//	60      4     (padding)
const (
	offCncVersion                  = 0
	offToDriverBufferLength        = 8
	offToClientsBufferLength       = 12
	offCounterMetadataBufferLength = 16
	offCounterValuesBufferLength   = 20
	offErrorLogBufferLength        = 24
	offClientLivenessTimeoutNs     = 32
	offStartTimestampMs            = 40
	offPid                         = 48
	offReadyWord                   = 56

	HeaderLength = configuration.CacheLineLength
)

// RegionLengths sizes the five regions that follow the header. Each is
// padded up to a cache-line boundary when laid out in the file; the
// lengths recorded in the header are the unpadded, caller-requested
// lengths so clients can size their own views correctly.
type RegionLengths struct {
	ToDriver        int32
	ToClients       int32
	CounterMetadata int32
	CounterValues   int32
	ErrorLog        int32
}

// TotalFileLength returns the full size of the CnC file for the given
// region lengths, including the header and cache-line padding between
// regions.
func TotalFileLength(r RegionLengths) int64 {
	total := HeaderLength
	total += configuration.AlignToCacheLine(int(r.ToDriver))
	total += configuration.AlignToCacheLine(int(r.ToClients))
	total += configuration.AlignToCacheLine(int(r.CounterMetadata))
	total += configuration.AlignToCacheLine(int(r.CounterValues))
	total += configuration.AlignToCacheLine(int(r.ErrorLog))
	return int64(total)
}

func regionOffsets(r RegionLengths) (toDriver, toClients, counterMeta, counterValues, errorLog int) {
	off := HeaderLength
	toDriver = off
	off += configuration.AlignToCacheLine(int(r.ToDriver))
	toClients = off
	off += configuration.AlignToCacheLine(int(r.ToClients))
	counterMeta = off
	off += configuration.AlignToCacheLine(int(r.CounterMetadata))
	counterValues = off
	off += configuration.AlignToCacheLine(int(r.CounterValues))
	errorLog = off
	return
}
