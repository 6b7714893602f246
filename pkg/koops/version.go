// Copyright 2026 kerneloops project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package koops

import (
	"regexp"
)

// Only lines with one of these words print the kernel version,
// e.g. "CPU: 1 PID: 4070 Comm: a.out Not tainted 4.8.0-rc3+ #33".
var versionLineWords = []string{
	"Pid",
	"comm",
	"CPU",
	"REGS",
	"EFLAGS",
}

// Compiled as POSIX ERE: leftmost-longest matching is relied upon for versions
// like "3.10.0-123.el7.x86_64".
var kernelVersionRe = regexp.MustCompilePOSIX(
	`([ \(]|kernel-)([0-9]+\.[0-9]+\.[0-9]+(\.[^.-]+)*-[^ \)]+)\)? #`)

// ExtractKernelVersion returns the kernel version printed in the line, or "".
func ExtractKernelVersion(line string) string {
	if !containsAny(line, versionLineWords) {
		return ""
	}
	match := kernelVersionRe.FindStringSubmatch(line)
	if match == nil {
		return ""
	}
	return match[2]
}
