// Copyright 2026 kerneloops project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package koops

import (
	"strings"
)

// oopsStarts are substrings that mark the first line of an oops.
// Leading letters are dropped where the kernel is inconsistent about capitalization.
var oopsStarts = []string{
	"BUG:",
	"WARNING: at",
	"WARNING: CPU:",
	"INFO: possible recursive locking detected",
	"ernel BUG at",
	"list_del corruption",
	"list_add corruption",
	"do_IRQ: stack overflow:",
	"ear stack overflow (cur:",
	"eneral protection fault",
	"nable to handle kernel",
	"ouble fault:",
	"RTNL: assertion failed",
	"eek! page_mapcount(page) went negative!",
	"adness at",
	"NETDEV WATCHDOG",
	"ysctl table check failed",
	": nobody cared",
	"IRQ handler type mismatch",
	"Kernel panic - not syncing:",
	"Machine Check Exception:",
	"Machine check events logged",
	// X86 trap names.
	"divide error:",
	"bounds:",
	"coprocessor segment overrun:",
	"invalid TSS:",
	"segment not present:",
	"invalid opcode:",
	"alignment check:",
	"stack segment:",
	"fpu exception:",
	"simd exception:",
	"iret exception:",
}

// oopsStartIgnores override oopsStarts matches.
var oopsStartIgnores = []string{
	// Contains "BUG:".
	"DEBUG:",
}

// suspiciousLine says if the line starts an oops.
func suspiciousLine(line string) bool {
	line = strings.TrimLeft(line, " ")
	if line == "" || !containsAny(line, oopsStarts) {
		return false
	}
	return !containsAny(line, oopsStartIgnores)
}

func containsAny(line string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(line, pattern) {
			return true
		}
	}
	return false
}
