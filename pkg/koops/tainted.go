// Copyright 2026 kerneloops project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package koops

import (
	"strings"
)

type Taint struct {
	Flag byte
	Desc string
}

// Documented in Documentation/admin-guide/tainted-kernels.rst.
var taintDescs = map[byte]string{
	'A': "ACPI table overridden by user",
	'B': "bad page referenced or some unexpected page flags",
	'C': "staging driver was loaded",
	'D': "kernel died recently, i.e. there was an OOPS or BUG",
	'E': "unsigned module was loaded",
	'F': "module was force loaded",
	'G': "only GPL modules are loaded",
	'I': "working around severe firmware bug",
	'K': "kernel has been live patched",
	'L': "soft lockup occurred",
	'M': "system experienced a machine check exception",
	'N': "an in-kernel test has been run",
	'O': "externally-built (out-of-tree) module was loaded",
	'P': "proprietary module was loaded",
	'R': "module was force unloaded",
	'S': "kernel running on an out of specification system",
	'T': "kernel was built with the struct randomization plugin",
	'U': "taint requested by userspace application",
	'W': "kernel issued warning",
	'X': "auxiliary taint, defined for and used by distros",
}

// TaintedFlags returns the taint letters from "Tainted: G    B   W" in text, or "".
func TaintedFlags(text string) string {
	const prefix = "Tainted: "
	pos := strings.Index(text, prefix)
	if pos == -1 {
		return ""
	}
	var flags []byte
	for _, c := range []byte(text[pos+len(prefix):]) {
		if c >= 'A' && c <= 'Z' {
			flags = append(flags, c)
		} else if c != ' ' {
			break
		}
	}
	return string(flags)
}

// TaintDescriptions decodes flags as returned by TaintedFlags.
// Unknown letters are reported with an empty description.
func TaintDescriptions(flags string) []Taint {
	var res []Taint
	for _, c := range []byte(flags) {
		res = append(res, Taint{Flag: c, Desc: taintDescs[c]})
	}
	return res
}

// Tainted says if flags make the kernel unsupportable, i.e. anything except 'G'.
func Tainted(flags string) bool {
	return strings.Trim(flags, "G") != ""
}
