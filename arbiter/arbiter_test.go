package arbiter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/schets/aeron/cncfile"
)

func TestArbitrateCreatesFreshDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fresh")
	res, err := Arbitrate(Options{Dir: dir, ClientLivenessTimeoutMs: 1000}, func() int64 { return 0 }, nil)
	if err != nil {
		t.Fatalf("Arbitrate: %v", err)
	}
	if res != Created {
		t.Fatalf("expected Created, got %v", res)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatal("expected directory to exist")
	}
}

func TestArbitrateRefusesLiveDriver(t *testing.T) {
	dir := t.TempDir()
	cf, err := cncfile.Create(dir, regionLengths(), 1000, 0, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	cf.SetHeartbeatMs(5000)
	cf.SignalReady()
	cf.Close()

	_, err = Arbitrate(Options{Dir: dir, ClientLivenessTimeoutMs: 1000}, func() int64 { return 5500 }, nil)
	if err == nil {
		t.Fatal("expected ErrActiveDriver-shaped error")
	}
	if _, ok := err.(*ActiveDriverError); !ok {
		t.Fatalf("expected *ActiveDriverError, got %T: %v", err, err)
	}
}

func TestArbitrateSalvagesStaleDriver(t *testing.T) {
	dir := t.TempDir()
	cf, err := cncfile.Create(dir, regionLengths(), 1000, 0, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	cf.SetHeartbeatMs(1000)
	cf.SignalReady()
	cf.Close()

	salvaged := false
	res, err := Arbitrate(Options{Dir: dir, ClientLivenessTimeoutMs: 1000}, func() int64 { return 100000 }, func(buf []byte) error {
		salvaged = true
		return nil
	})
	if err != nil {
		t.Fatalf("Arbitrate: %v", err)
	}
	if res != Recreated {
		t.Fatalf("expected Recreated, got %v", res)
	}
	if !salvaged {
		t.Fatal("expected salvage callback to run for a stale driver")
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatal("expected directory to exist after recreation")
	}
}

func TestArbitrateDeleteOnStartSkipsLivenessCheck(t *testing.T) {
	dir := t.TempDir()
	cf, err := cncfile.Create(dir, regionLengths(), 1000, 0, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	cf.SetHeartbeatMs(999999)
	cf.SignalReady()
	cf.Close()

	res, err := Arbitrate(Options{Dir: dir, ClientLivenessTimeoutMs: 1000, DirDeleteOnStart: true}, func() int64 { return 999999 }, nil)
	if err != nil {
		t.Fatalf("Arbitrate: %v", err)
	}
	if res != Recreated {
		t.Fatalf("expected Recreated, got %v", res)
	}
}

func regionLengths() cncfile.RegionLengths {
	return cncfile.RegionLengths{
		ToDriver:        4096,
		ToClients:       4096,
		CounterMetadata: 4096,
		CounterValues:   4096,
		ErrorLog:        4096,
	}
}
