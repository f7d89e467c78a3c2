// Command aeron-driverd is the process entry point: it loads an
// optional JSON configuration override, launches a driver, and blocks
// until SIGINT/SIGTERM, then shuts down cleanly. The library underneath
// (package driver) does the actual work; this is the thinnest possible
// wrapper around it.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/sugawarayuuta/sonnet"

	"github.com/schets/aeron/clock"
	"github.com/schets/aeron/configuration"
	"github.com/schets/aeron/driver"
)

// fileConfig mirrors the subset of Context fields a deployment
// typically overrides; everything else keeps the package defaults.
type fileConfig struct {
	Dir                    string `json:"dir"`
	ThreadingMode          string `json:"threading_mode"`
	WarnIfDirectoryExists  bool   `json:"warn_if_directory_exists"`
	DirDeleteOnStart       bool   `json:"dir_delete_on_start"`
	UseWindowsHighResTimer bool   `json:"use_windows_high_res_timer"`
}

func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := sonnet.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func threadingModeFromName(name string) configuration.ThreadingMode {
	switch name {
	case "INVOKER":
		return configuration.Invoker
	case "SHARED":
		return configuration.Shared
	case "SHARED_NETWORK":
		return configuration.SharedNetwork
	case "DEDICATED":
		return configuration.Dedicated
	default:
		return configuration.DefaultThreadingMode
	}
}

func main() {
	configPath := os.Getenv("AERON_DRIVER_CONFIG")
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "aeron-driverd:", err)
		os.Exit(1)
	}

	dir := cfg.Dir
	if dir == "" {
		dir = os.TempDir() + "/aeron"
	}

	ctx := &driver.Context{
		Dir:                     dir,
		ThreadingMode:           threadingModeFromName(cfg.ThreadingMode),
		WarnIfDirectoryExists:   cfg.WarnIfDirectoryExists,
		DirDeleteOnStart:        cfg.DirDeleteOnStart,
		UseWindowsHighResTimer:  cfg.UseWindowsHighResTimer,
		EpochClock:              clock.SystemEpochClock{},
		NanoClock:               clock.SystemNanoClock{},
	}

	md, err := driver.Launch(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "aeron-driverd: launch failed:", err)
		os.Exit(1)
	}

	// INVOKER mode owns no driver thread at all — Launch starts nothing
	// for it, so this process must be the one pumping DoWork, or the
	// driver never does any work despite being "running".
	invokerStop := make(chan struct{})
	invokerDone := make(chan struct{})
	if ctx.ThreadingMode == configuration.Invoker {
		go func() {
			defer close(invokerDone)
			for {
				select {
				case <-invokerStop:
					return
				default:
				}
				if md.Invoke() == 0 {
					runtime.Gosched()
				}
			}
		}()
	} else {
		close(invokerDone)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	close(invokerStop)
	<-invokerDone

	if err := md.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "aeron-driverd: close failed:", err)
		os.Exit(1)
	}
}
