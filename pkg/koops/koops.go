// Copyright 2026 kerneloops project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package koops finds kernel oopses in dmesg/syslog/pstore output and
// computes duplicate hashes for them.
//
// Extraction works on a complete in-memory buffer: lines are classified
// (syslog, log level and jiffies prefixes stripped), grouped into records
// by a heuristic state machine and formatted as
//
//	<kernel version>\n<oops lines...>\n
//
// All functions are pure and can be called concurrently on independent data.
package koops

import (
	"strings"

	"github.com/kerneloops/kerneloops/pkg/stat"
)

var (
	statRecords = stat.New("oopses", "Number of extracted kernel oopses",
		stat.Console, stat.Rate{}, stat.Prometheus("koops_extracted"))
	statDropped = stat.New("oopses dropped", "Oopses dropped for being too long",
		stat.Prometheus("koops_dropped_too_long"))
	statSalvaged = stat.New("oopses without trace", "Oopses reported as a single line for lack of a backtrace",
		stat.Prometheus("koops_without_trace"))
	statTooShort = stat.New("short records", "Suspicious lines discarded as too short to be an oops",
		stat.Prometheus("koops_too_short"))
	statMarkerResets = stat.New("marker resets", "Times the reported marker discarded previous output",
		stat.Prometheus("koops_marker_resets"))
	statRecordLines = stat.New("oops lines", "Lines per extracted oops",
		stat.Distribution{})
	statHashFailures = stat.New("hash failures", "Oopses without a usable duplicate hash",
		stat.Prometheus("koops_hash_failures"))
)

// Extract returns texts of all oopses found in buf, in order of appearance.
// buf is not modified.
func Extract(buf []byte) []string {
	lines := splitLines(buf)
	var oopses []string
	for _, sp := range segment(lines) {
		if text, ok := buildRecord(lines, sp.start, sp.end); ok {
			oopses = append(oopses, text)
		}
	}
	return oopses
}

// Report is an extracted oops with the details needed to store and deduplicate it.
type Report struct {
	Text    string
	Version string
	// Reason is the first line of the oops, e.g. "BUG: unable to handle kernel NULL pointer dereference".
	Reason  string
	Tainted string
	DupHash string
	// HashErr is set if DupHash could not be computed.
	HashErr error
}

// ExtractReports extracts oopses from buf and hashes each of them.
func ExtractReports(buf []byte, depth int) []*Report {
	var reports []*Report
	for _, text := range Extract(buf) {
		rep := ParseReport(text)
		rep.DupHash, rep.HashErr = HashOops(text, depth)
		reports = append(reports, rep)
	}
	return reports
}

// ParseReport splits text as returned by Extract into version and oops lines.
func ParseReport(text string) *Report {
	version, body, _ := strings.Cut(text, "\n")
	rep := &Report{
		Text:    text,
		Version: version,
		Tainted: TaintedFlags(body),
	}
	for _, line := range strings.Split(body, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			rep.Reason = line
			break
		}
	}
	return rep
}
