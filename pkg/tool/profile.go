// Copyright 2026 kerneloops project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package tool

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
)

// startProfiling starts a CPU profile and/or arranges for a heap profile to be written on stop.
// Empty file names disable the corresponding profile.
func startProfiling(cpuprof, memprof string) (func() error, error) {
	var cpuFile *os.File
	if cpuprof != "" {
		f, err := os.Create(cpuprof)
		if err != nil {
			return nil, fmt.Errorf("failed to create cpu profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to start cpu profile: %w", err)
		}
		cpuFile = f
	}
	stop := func() error {
		if cpuFile != nil {
			pprof.StopCPUProfile()
			if err := cpuFile.Close(); err != nil {
				return err
			}
		}
		if memprof == "" {
			return nil
		}
		f, err := os.Create(memprof)
		if err != nil {
			return fmt.Errorf("failed to create mem profile: %w", err)
		}
		defer f.Close()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return fmt.Errorf("failed to write mem profile: %w", err)
		}
		return nil
	}
	return stop, nil
}
