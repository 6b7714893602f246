// Copyright 2026 kerneloops project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package log provides leveled logging shared by the oops scanner and the tools.
// Verbosity is global and set with the -vv flag (or SetVerbosity);
// V guards expensive diagnostics such as pre-hash duphash strings.
package log

import (
	"flag"
	golog "log"
	"sync/atomic"
)

var (
	flagV        = flag.Int("vv", 0, "verbosity")
	verbosity    atomic.Int32
	verbositySet atomic.Bool
)

// SetVerbosity overrides the -vv flag value.
func SetVerbosity(v int) {
	verbosity.Store(int32(v))
	verbositySet.Store(true)
}

// V reports whether messages at verbosity v are printed.
func V(v int) bool {
	return v <= level()
}

func level() int {
	if verbositySet.Load() {
		return int(verbosity.Load())
	}
	return *flagV
}

func Logf(v int, msg string, args ...any) {
	if V(v) {
		golog.Printf(msg, args...)
	}
}

func Fatal(err error) {
	golog.Fatal(err)
}

func Fatalf(msg string, args ...any) {
	golog.Fatalf(msg, args...)
}
