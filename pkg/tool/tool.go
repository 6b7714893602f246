// Copyright 2026 kerneloops project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package tool contains various helper utilitites useful for implementation of command line tools.
package tool

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/kerneloops/kerneloops/pkg/stat"
)

var (
	flagCPUProfile = flag.String("cpuprofile", "", "write CPU profile to this file")
	flagMemProfile = flag.String("memprofile", "", "write memory profile to this file")
)

// Init parses flags and sets up profiling.
// The returned function must be called before the program exits.
func Init() func() {
	flag.Parse()
	stop, err := startProfiling(*flagCPUProfile, *flagMemProfile)
	if err != nil {
		Fail(err)
	}
	return func() {
		if err := stop(); err != nil {
			Fail(err)
		}
	}
}

func Failf(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, msg+"\n", args...)
	os.Exit(1)
}

func Fail(err error) {
	Failf("%v", err)
}

// PrintStats writes all metrics of at least the given level, one per line.
func PrintStats(w io.Writer, level stat.Level) {
	for _, v := range stat.Collect(level) {
		fmt.Fprintf(w, "%-24v %v\n", v.Name+":", v.Value)
	}
}
