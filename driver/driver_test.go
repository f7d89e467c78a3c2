package driver

import (
	"path/filepath"
	"testing"

	"github.com/schets/aeron/clock"
	"github.com/schets/aeron/configuration"
)

func smallContext(dir string) *Context {
	return &Context{
		Dir:                      dir,
		ThreadingMode:            configuration.Dedicated,
		CmdQueueCapacity:         16,
		ToDriverBufferLen:        4096,
		ToClientsBufferLen:       4096,
		CounterMetadataRegionLen: 8192,
		CounterValuesRegionLen:   4096,
		ErrorLogBufferLen:        4096,
		LossReportBufferLen:      4096,
		ErrorLogCapacityRecords:  64,
		EpochClock:               clock.SystemEpochClock{},
		NanoClock:                clock.SystemNanoClock{},
	}
}

func TestLaunchDedicatedStartsThreeRunnersAndCloses(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "driver")
	md, err := Launch(smallContext(dir))
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if len(md.runners) != 3 {
		t.Fatalf("expected 3 runners for DEDICATED, got %d", len(md.runners))
	}
	if !md.cc.CncFile.IsReady() {
		t.Fatal("expected CnC file to be ready after Launch")
	}
	if err := md.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestLaunchSharedStartsOneRunner(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "driver")
	ctx := smallContext(dir)
	ctx.ThreadingMode = configuration.Shared
	md, err := Launch(ctx)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if len(md.runners) != 1 {
		t.Fatalf("expected 1 runner for SHARED, got %d", len(md.runners))
	}
	if !md.cc.ConductorProxy.IsInline() {
		t.Fatal("expected conductor proxy to be inline in SHARED mode")
	}
	md.Close()
}

func TestLaunchSharedNetworkStartsTwoRunners(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "driver")
	ctx := smallContext(dir)
	ctx.ThreadingMode = configuration.SharedNetwork
	md, err := Launch(ctx)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if len(md.runners) != 2 {
		t.Fatalf("expected 2 runners for SHARED_NETWORK, got %d", len(md.runners))
	}
	if md.cc.ConductorProxy.IsInline() {
		t.Fatal("expected conductor proxy to be queued in SHARED_NETWORK mode")
	}
	if !md.cc.SenderProxy.IsInline() {
		t.Fatal("expected sender proxy to be inline in SHARED_NETWORK mode")
	}
	md.Close()
}

func TestLaunchInvokerStartsNoRunners(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "driver")
	ctx := smallContext(dir)
	ctx.ThreadingMode = configuration.Invoker
	md, err := Launch(ctx)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if len(md.runners) != 0 {
		t.Fatalf("expected 0 runners for INVOKER, got %d", len(md.runners))
	}
	if md.Invoke() < 0 {
		t.Fatal("expected Invoke to return a non-negative work count")
	}
	md.Close()
}

func TestLaunchRefusesWhenDriverAlreadyActive(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "driver")
	ctx := smallContext(dir)
	first, err := Launch(ctx)
	if err != nil {
		t.Fatalf("first Launch: %v", err)
	}
	defer first.Close()

	_, err = Launch(smallContext(dir))
	if err == nil {
		t.Fatal("expected second Launch against a live directory to fail")
	}
}

func TestConcludeRejectsOversizedPublicationTermBuffer(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "driver")
	ctx := smallContext(dir)
	ctx.MaxTermBufferLength = 64 * 1024
	ctx.PublicationTermBufLen = 128 * 1024

	_, err := Conclude(ctx)
	if err == nil {
		t.Fatal("expected ConfigurationError")
	}
	if _, ok := err.(*ConfigurationError); !ok {
		t.Fatalf("expected *ConfigurationError, got %T: %v", err, err)
	}
}

func TestConcludeRejectsMtuOutOfRange(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "driver")
	ctx := smallContext(dir)
	ctx.MtuLength = 4

	_, err := Conclude(ctx)
	if err == nil {
		t.Fatal("expected ConfigurationError for undersized MTU")
	}
}
