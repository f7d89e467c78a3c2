package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/edsrzf/mmap-go"

	"github.com/schets/aeron/configuration"
	"github.com/schets/aeron/debug"
	"github.com/schets/aeron/errorlog"
)

// lossReportFile owns the separate memory-mapped loss-report file: a
// plain flat region, initialized zero, that outlives Close for
// post-mortem inspection.
type lossReportFile struct {
	file *os.File
	mm   mmap.MMap
}

func createLossReportFile(dir string, length int) (*lossReportFile, error) {
	path := filepath.Join(dir, configuration.LossReportFileName)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("lossreport file %s: %w", path, err)
	}
	if err := f.Truncate(int64(length)); err != nil {
		f.Close()
		return nil, fmt.Errorf("lossreport truncate %s: %w", path, err)
	}
	m, err := mmap.MapRegion(f, length, mmap.RDWR, 0, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("lossreport mmap %s: %w", path, err)
	}
	return &lossReportFile{file: f, mm: m}, nil
}

func (l *lossReportFile) Bytes() []byte { return l.mm }

func (l *lossReportFile) Close() error {
	if l.mm != nil {
		if err := l.mm.Unmap(); err != nil {
			return err
		}
		l.mm = nil
	}
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

func currentPid() int64 {
	return int64(os.Getpid())
}

// salvageToFile decodes a dead driver's error-log region and dumps it
// to a timestamped file beside the state directory, then logs how many
// records were recovered. Losing this dump must never block startup,
// so every failure here is reported, not returned.
func salvageToFile(dir string) func([]byte) error {
	return func(buf []byte) error {
		records := errorlog.Decode(buf)
		if len(records) == 0 {
			return nil
		}
		base := filepath.Base(filepath.Clean(dir))
		stamp := time.Now().UTC().Format("2006-01-02-15-04-05-000")
		path := filepath.Join(filepath.Dir(dir), fmt.Sprintf("%s-%sZ-error.log", base, stamp))
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		for _, r := range records {
			fmt.Fprintf(f, "count=%d first=%d last=%d %s\n", r.ObservationCount, r.FirstObservedNs, r.LastObservedNs, r.Description)
		}
		debug.DropMessage("arbiter", fmt.Sprintf("salvaged %d error-log records to %s", len(records), path))
		return nil
	}
}
