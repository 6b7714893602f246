// Copyright 2026 kerneloops project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package stacktrace

import (
	"strings"
)

// Frames of the reporting machinery itself, they are the same for all oopses of a kind.
var normalizeSkipFuncs = map[string]bool{
	"__warn":                  true,
	"warn_slowpath_common":    true,
	"warn_slowpath_fmt":       true,
	"warn_slowpath_fmt_taint": true,
	"warn_slowpath_null":      true,
	"report_bug":              true,
	"handle_bug":              true,
	"fixup_bug":               true,
	"do_error_trap":           true,
	"do_invalid_op":           true,
	"invalid_op":              true,
	"exc_invalid_op":          true,
	"asm_exc_invalid_op":      true,
	"do_trap":                 true,
	"die":                     true,
	"oops_end":                true,
	"panic":                   true,
	"dump_stack":              true,
	"dump_stack_lvl":          true,
	"show_stack":              true,
	"dump_backtrace":          true,
	"show_trace_log_lvl":      true,
	"__schedule_bug":          true,
	"__might_sleep":           true,
	"___might_sleep":          true,
}

var normalizeSkipPrefixes = []string{
	"kasan_",
	"__kasan_",
	"print_address_description",
	"lockdep_",
}

// Normalize removes frames that don't identify the oops.
func Normalize(frames []*Frame) []*Frame {
	var res []*Frame
	for _, frame := range frames {
		if skipFrame(frame.Function) {
			continue
		}
		res = append(res, frame)
	}
	return res
}

func skipFrame(fn string) bool {
	// Compiler clones: "foo.isra.0", "foo.constprop.3".
	if pos := strings.IndexByte(fn, '.'); pos > 0 {
		fn = fn[:pos]
	}
	if normalizeSkipFuncs[fn] {
		return true
	}
	for _, prefix := range normalizeSkipPrefixes {
		if strings.HasPrefix(fn, prefix) {
			return true
		}
	}
	return false
}
