// Package arbiter locates and arbitrates ownership of the driver's
// state directory before the Context creates a fresh CnC file there:
// detect a live peer and refuse to start, salvage a dead peer's error
// log, or simply create the directory if it does not exist yet.
// Grounded on the original driver's static helpers for recreating the
// directory and reporting existing errors, expressed here as one
// Arbitrate entry point returning a typed Result or an ActiveDriverError.
package arbiter

import (
	"fmt"
	"os"

	"github.com/schets/aeron/cncfile"
	"github.com/schets/aeron/debug"
)

// Result reports what Arbitrate did to the directory.
type Result int

const (
	Created   Result = iota // directory did not exist; created fresh
	Recreated               // directory existed; removed and recreated
)

// ActiveDriverError means a live driver already owns dir.
type ActiveDriverError struct {
	Dir         string
	HeartbeatMs int64
}

func (e *ActiveDriverError) Error() string {
	return fmt.Sprintf("arbiter: active driver already running in %s (heartbeat %dms)", e.Dir, e.HeartbeatMs)
}

// Options controls Arbitrate's behavior. Dir and the two flags match
// the Context knobs of the same name; ClientLivenessTimeoutMs is the
// liveness window, which driver.Conclude fills from DriverTimeoutMs.
type Options struct {
	Dir                    string
	ClientLivenessTimeoutMs int64
	WarnIfDirectoryExists  bool
	DirDeleteOnStart       bool
}

// SalvageFunc is invoked with the raw bytes of a dead peer's error-log
// region before the directory is wiped, so the caller can decode and
// persist them to a timestamped file. Errors are logged, not fatal —
// losing a salvage dump must never block startup.
type SalvageFunc func(errorLogBuf []byte) error

// Arbitrate runs the directory-arbitration algorithm and leaves dir in
// a state ready for cncfile.Create: either freshly created or
// recreated empty. nowMs supplies the current wall-clock time for
// liveness comparison.
func Arbitrate(opts Options, nowMs func() int64, salvage SalvageFunc) (Result, error) {
	info, statErr := os.Stat(opts.Dir)
	if statErr != nil || !info.IsDir() {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return 0, fmt.Errorf("arbiter: create %s: %w", opts.Dir, err)
		}
		return Created, nil
	}

	if opts.WarnIfDirectoryExists {
		debug.DropMessage("arbiter", "directory "+opts.Dir+" already exists")
	}

	if opts.DirDeleteOnStart {
		return recreate(opts.Dir)
	}

	cf, err := cncfile.Open(opts.Dir)
	if err != nil {
		// no usable CnC file behind the existing directory; treat it
		// like any other stale leftover and recreate.
		return recreate(opts.Dir)
	}
	defer cf.Close()

	if cf.IsReady() {
		heartbeat := cf.HeartbeatMs()
		if heartbeat > nowMs()-opts.ClientLivenessTimeoutMs {
			return 0, &ActiveDriverError{Dir: opts.Dir, HeartbeatMs: heartbeat}
		}
	}

	if salvage != nil {
		if err := salvage(cf.ErrorLogBuffer()); err != nil {
			debug.DropError("arbiter: salvage failed", err)
		}
	}

	return recreate(opts.Dir)
}

func recreate(dir string) (Result, error) {
	if err := os.RemoveAll(dir); err != nil {
		return 0, fmt.Errorf("arbiter: remove %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("arbiter: recreate %s: %w", dir, err)
	}
	return Recreated, nil
}
