// Package cncfile maps, creates, and tears down the command-and-control
// file: the single shared-memory artifact that both the driver and its
// clients map to discover each other and exchange commands, counters,
// loss records, and error logs. Layout is bit-exact and must never
// change without bumping configuration.CncVersion.
package cncfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"unsafe"

	"github.com/edsrzf/mmap-go"

	"github.com/schets/aeron/configuration"
)

// header is a set of pointers directly into the mapped file's first
// cache line, following the byte layout documented in layout.go.
type header struct {
	cncVersion                  *int32
	toDriverBufferLength        *int32
	toClientsBufferLength       *int32
	counterMetadataBufferLength *int32
	counterValuesBufferLength   *int32
	errorLogBufferLength        *int32
	clientLivenessTimeoutNs     *int64
	startTimestampMs            *int64
	pid                         *int64
	readyWord                   *int32
}

func newHeader(m mmap.MMap) header {
	return header{
		cncVersion:                  (*int32)(unsafe.Pointer(&m[offCncVersion])),
		toDriverBufferLength:        (*int32)(unsafe.Pointer(&m[offToDriverBufferLength])),
		toClientsBufferLength:       (*int32)(unsafe.Pointer(&m[offToClientsBufferLength])),
		counterMetadataBufferLength: (*int32)(unsafe.Pointer(&m[offCounterMetadataBufferLength])),
		counterValuesBufferLength:   (*int32)(unsafe.Pointer(&m[offCounterValuesBufferLength])),
		errorLogBufferLength:        (*int32)(unsafe.Pointer(&m[offErrorLogBufferLength])),
		clientLivenessTimeoutNs:     (*int64)(unsafe.Pointer(&m[offClientLivenessTimeoutNs])),
		startTimestampMs:            (*int64)(unsafe.Pointer(&m[offStartTimestampMs])),
		pid:                         (*int64)(unsafe.Pointer(&m[offPid])),
		readyWord:                   (*int32)(unsafe.Pointer(&m[offReadyWord])),
	}
}

// CncFile is the driver's (or a client's) open mapping of cnc.dat. The
// Context that creates one exclusively owns it until Close unmaps it.
type CncFile struct {
	path string
	file *os.File
	mm   mmap.MMap
	hdr  header

	toDriver      []byte
	toClients     []byte
	counterMeta   []byte
	counterValues []byte
	errorLog      []byte
}

// Path inside dir of the CnC file, not yet created or mapped.
func Path(dir string) string {
	return filepath.Join(dir, configuration.CncFileName)
}

// Create pre-sizes, zero-fills, and maps a brand-new CnC file under dir
// with the given region lengths, writing every header field except the
// ready word. The caller must call SignalReady once every other
// conclude step (counters, error log, proxies, loss report, consumer
// heartbeat) has completed — before that, IsReady reports false and
// clients must not interpret any region.
func Create(dir string, regions RegionLengths, clientLivenessTimeoutNs, startTimestampMs, pid int64) (*CncFile, error) {
	path := Path(dir)
	length := TotalFileLength(regions)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("cncfile: create %s: %w", path, err)
	}
	if err := f.Truncate(length); err != nil {
		f.Close()
		return nil, fmt.Errorf("cncfile: truncate %s: %w", path, err)
	}

	m, err := mmap.MapRegion(f, int(length), mmap.RDWR, 0, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("cncfile: mmap %s: %w", path, err)
	}

	cf := &CncFile{path: path, file: f, mm: m, hdr: newHeader(m)}
	cf.sliceRegions(regions)

	*cf.hdr.cncVersion = configuration.CncVersion
	*cf.hdr.toDriverBufferLength = regions.ToDriver
	*cf.hdr.toClientsBufferLength = regions.ToClients
	*cf.hdr.counterMetadataBufferLength = regions.CounterMetadata
	*cf.hdr.counterValuesBufferLength = regions.CounterValues
	*cf.hdr.errorLogBufferLength = regions.ErrorLog
	*cf.hdr.clientLivenessTimeoutNs = clientLivenessTimeoutNs
	*cf.hdr.startTimestampMs = startTimestampMs
	*cf.hdr.pid = pid
	atomic.StoreInt32(cf.hdr.readyWord, configuration.ReadyNotReady)

	return cf, nil
}

// Open maps an existing CnC file under dir for inspection — used by the
// directory arbiter to check liveness and by post-mortem tooling. It
// does not write anything.
func Open(dir string) (*CncFile, error) {
	path := Path(dir)
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("cncfile: open %s: %w", path, err)
	}
	m, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("cncfile: mmap %s: %w", path, err)
	}
	cf := &CncFile{path: path, file: f, mm: m, hdr: newHeader(m)}
	regions := RegionLengths{
		ToDriver:        *cf.hdr.toDriverBufferLength,
		ToClients:       *cf.hdr.toClientsBufferLength,
		CounterMetadata: *cf.hdr.counterMetadataBufferLength,
		CounterValues:   *cf.hdr.counterValuesBufferLength,
		ErrorLog:        *cf.hdr.errorLogBufferLength,
	}
	cf.sliceRegions(regions)
	return cf, nil
}

func (cf *CncFile) sliceRegions(r RegionLengths) {
	toDriver, toClients, counterMeta, counterValues, errorLog := regionOffsets(r)
	cf.toDriver = cf.mm[toDriver : toDriver+int(r.ToDriver)]
	cf.toClients = cf.mm[toClients : toClients+int(r.ToClients)]
	cf.counterMeta = cf.mm[counterMeta : counterMeta+int(r.CounterMetadata)]
	cf.counterValues = cf.mm[counterValues : counterValues+int(r.CounterValues)]
	cf.errorLog = cf.mm[errorLog : errorLog+int(r.ErrorLog)]
}

// SignalReady performs the release-semantics write of the ready word.
// Must be the very last step of Context.Conclude.
func (cf *CncFile) SignalReady() {
	atomic.StoreInt32(cf.hdr.readyWord, configuration.ReadyOK)
}

// IsReady performs an acquire-semantics read of the ready word.
func (cf *CncFile) IsReady() bool {
	return atomic.LoadInt32(cf.hdr.readyWord) == configuration.ReadyOK
}

func (cf *CncFile) ClientLivenessTimeoutNs() int64 { return *cf.hdr.clientLivenessTimeoutNs }
func (cf *CncFile) StartTimestampMs() int64 { return *cf.hdr.startTimestampMs }
func (cf *CncFile) Pid() int64 { return *cf.hdr.pid }
func (cf *CncFile) CncVersion() int32 { return *cf.hdr.cncVersion }

// HeartbeatMs reads the Conductor's consumer-heartbeat, stored as the
// first 8 bytes of the to-driver ring buffer region. Staleness of this
// value relative to the arbiter's own liveness timeout (not the header's
// ClientLivenessTimeoutNs) is what the directory arbiter uses to tell a
// live driver from a dead one.
func (cf *CncFile) HeartbeatMs() int64 {
	return atomic.LoadInt64((*int64)(unsafe.Pointer(&cf.toDriver[0])))
}

// SetHeartbeatMs stamps the consumer-heartbeat. Called by the Conductor
// once per work cycle.
func (cf *CncFile) SetHeartbeatMs(ms int64) {
	atomic.StoreInt64((*int64)(unsafe.Pointer(&cf.toDriver[0])), ms)
}

func (cf *CncFile) ToDriverBuffer() []byte { return cf.toDriver }
func (cf *CncFile) ToClientsBuffer() []byte { return cf.toClients }
func (cf *CncFile) CounterMetadataBuffer() []byte { return cf.counterMeta }
func (cf *CncFile) CounterValuesBuffer() []byte { return cf.counterValues }
func (cf *CncFile) ErrorLogBuffer() []byte { return cf.errorLog }

// Close unmaps and closes the underlying file. Idempotent.
func (cf *CncFile) Close() error {
	if cf.mm != nil {
		if err := cf.mm.Unmap(); err != nil {
			return fmt.Errorf("cncfile: unmap %s: %w", cf.path, err)
		}
		cf.mm = nil
	}
	if cf.file != nil {
		err := cf.file.Close()
		cf.file = nil
		return err
	}
	return nil
}
