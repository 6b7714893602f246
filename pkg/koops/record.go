// Copyright 2026 kerneloops project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package koops

import (
	"strings"

	"github.com/kerneloops/kerneloops/pkg/log"
)

// Anything this short is a false positive rather than an oops.
const minRecordLen = 30

// buildRecord formats lines [start, end] as an extracted oops:
// the kernel version line, then the non-empty record lines.
func buildRecord(lines []LineInfo, start, end int) (string, bool) {
	version := ""
	body := new(strings.Builder)
	for _, line := range lines[start : end+1] {
		if version == "" {
			version = ExtractKernelVersion(line.Text)
		}
		if line.Text == "" {
			continue
		}
		body.WriteString(line.Text)
		body.WriteByte('\n')
	}
	if body.Len() <= minRecordLen {
		log.Logf(2, "dropped oops at line %v: too short (%v bytes)", start, body.Len())
		statTooShort.Add(1)
		return "", false
	}
	statRecords.Add(1)
	statRecordLines.Add(end - start + 1)
	return version + "\n" + body.String(), true
}
