// Copyright 2026 kerneloops project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package koops

import (
	"math"
	"regexp"
	"strings"

	"github.com/kerneloops/kerneloops/pkg/log"
)

const (
	// Records longer than this are dropped altogether.
	maxRecordLines = 80
	// Records that don't reach a backtrace within this many lines are reported as a single line.
	maxLinesWithoutTrace = 40
	// How far past the first line we look for "---[ end trace".
	endMarkerLookahead = 50
	// Oops lines are always at least this long.
	minTraceLineLen = 8
	endTraceMarker  = "---[ end trace"
	noEnd           = math.MaxInt
)

type segState int

const (
	noRecord segState = iota
	inRecord
	inBacktrace
)

type span struct {
	start int
	end   int
}

type linePred struct {
	name  string
	match func(line string) bool
}

// ARM dumps registers intermingled with the backtrace.
var armRegistersRe = regexp.MustCompile(`r[0-9]:[0-9a-f]{8}`)

// backtraceStarts decide that a record has reached its call trace.
var backtraceStarts = []linePred{
	{"call trace header", func(line string) bool {
		return containsFold(line, "Call Trace:")
	}},
	// Fatal MCEs don't have a backtrace, take the few lines after the panic.
	{"machine check panic", func(line string) bool {
		return strings.Contains(line, "Kernel panic - not syncing:") && containsFold(line, "Machine check")
	}},
	// "[<ffffffff8106e276>] warn_slowpath_common+0x86/0xc0".
	{"frame", func(line string) bool {
		return len(line) > minTraceLineLen &&
			(strings.HasPrefix(line, "[<") || strings.HasPrefix(line, "([<")) &&
			strings.Contains(line, ">]") &&
			strings.Contains(line, "+0x") &&
			strings.Contains(line, "/0x")
	}},
}

var traceContextMarkers = []string{
	"--- Exception",
	"LR =",
	"<#DF>",
	"<IRQ>",
	"<EOI>",
	"<NMI>",
	"<<EOE>>",
	"Comm:",
	"Hardware name:",
	"Backtrace:",
}

// traceContinuations say that a line still belongs to the backtrace.
var traceContinuations = []linePred{
	// "[<ffffffffa006c156>] radeon_get_ring_head+0x16/0x41 [radeon]",
	// s390: "([<ffffffffa006c156>] 0xdeadbeaf)".
	{"bracketed frame", func(line string) bool {
		return strings.HasPrefix(line, "[") || strings.HasPrefix(line, "([")
	}},
	// ppc: "[c0000000fffdbd30] [c00000000009c9f0] .dump_stack+0x1c/0x30".
	{"ppc frame", func(line string) bool {
		return strings.Contains(line, "] [")
	}},
	{"context marker", func(line string) bool {
		return containsAny(line, traceContextMarkers)
	}},
	{"register dump", func(line string) bool {
		return strings.HasPrefix(line, "Code: ") ||
			strings.HasPrefix(line, "RIP ") ||
			strings.HasPrefix(line, "RSP ")
	}},
	// s390 call trace ends with this line followed by a single frame.
	{"s390 breaking event", func(line string) bool {
		return strings.HasPrefix(line, "Last Breaking-Event-Address:")
	}},
	{"arm registers", armRegistersRe.MatchString},
}

type endRule struct {
	name string
	// inclusive rules end the record on the current line, others on the previous one.
	inclusive bool
	match     func(line string, level, prevLevel int) bool
}

// traceEnds are evaluated in order for every line inside a backtrace.
var traceEnds = []endRule{
	{name: "not a trace line", match: func(line string, level, prevLevel int) bool {
		return !continuesTrace(line)
	}},
	{name: "short line", match: func(line string, level, prevLevel int) bool {
		return len(line) < minTraceLineLen
	}},
	// A single oops is printed with the same log level.
	{name: "log level change", match: func(line string, level, prevLevel int) bool {
		return level != prevLevel
	}},
	{name: "instruction dump", inclusive: true, match: func(line string, level, prevLevel int) bool {
		return strings.Contains(line, "Instruction dump:")
	}},
	// The marker itself is not part of the oops.
	{name: "end trace marker", match: func(line string, level, prevLevel int) bool {
		return strings.Contains(line, endTraceMarker)
	}},
	{name: "new oops", match: func(line string, level, prevLevel int) bool {
		return suspiciousLine(line)
	}},
}

func startsBacktrace(line string) bool {
	for _, pred := range backtraceStarts {
		if pred.match(line) {
			return true
		}
	}
	return false
}

func continuesTrace(line string) bool {
	for _, pred := range traceContinuations {
		if pred.match(line) {
			return true
		}
	}
	return false
}

// traceEnd returns the last line of the record if line i terminates it, or noEnd.
func traceEnd(i int, line string, level, prevLevel int) (int, string) {
	for _, rule := range traceEnds {
		if !rule.match(line, level, prevLevel) {
			continue
		}
		if rule.inclusive {
			return i, rule.name
		}
		return i - 1, rule.name
	}
	return noEnd, ""
}

type segmenter struct {
	lines     []LineInfo
	state     segState
	start     int
	prevLevel int
	spans     []span
}

// segment finds oops boundaries in classified lines.
func segment(lines []LineInfo) []span {
	s := &segmenter{
		lines: lines,
		start: -1,
	}
	for i := 0; i < len(lines); {
		i = s.step(i)
		if s.state == noRecord {
			continue
		}
		if i-s.start > maxRecordLines {
			log.Logf(2, "dropped oops at line %v: too long", s.start)
			statDropped.Add(1)
			s.reset()
		} else if s.state == inRecord && i-s.start > maxLinesWithoutTrace {
			log.Logf(2, "oops at line %v has no backtrace, taking the first line", s.start)
			statSalvaged.Add(1)
			s.emit(s.start, s.start)
		}
	}
	switch s.state {
	case inRecord:
		s.emit(s.start, s.start)
	case inBacktrace:
		log.Logf(2, "end of oops at line %v (end of input)", len(lines)-1)
		s.emit(s.start, len(lines)-1)
	}
	return s.spans
}

// step processes line i and returns the index of the next line to process.
func (s *segmenter) step(i int) int {
	line := strings.TrimLeft(s.lines[i].Text, " ")
	if s.state == noRecord && suspiciousLine(line) {
		log.Logf(2, "found oops at line %v: %q", i, line)
		s.start = i
		s.state = inRecord
		if marker := s.findEndMarker(i); marker != -1 {
			// Already delimited oops: skip straight to its end.
			s.state = inBacktrace
			s.prevLevel = s.lines[marker-1].Level
			i = marker
			line = strings.TrimLeft(s.lines[i].Text, " ")
		}
	}
	switch s.state {
	case inRecord:
		if startsBacktrace(line) {
			s.state = inBacktrace
		}
	case inBacktrace:
		if end, reason := traceEnd(i, line, s.lines[i].Level, s.prevLevel); end <= i {
			log.Logf(2, "end of oops at line %v (%v): %q", end, reason, s.lines[end].Text)
			// The line that ended the record is consumed, even if it looks like a new oops.
			s.emit(s.start, end)
		}
	}
	s.prevLevel = s.lines[i].Level
	return i + 1
}

func (s *segmenter) findEndMarker(start int) int {
	for i := start + 1; i < len(s.lines) && i < start+endMarkerLookahead; i++ {
		if strings.Contains(s.lines[i].Text, endTraceMarker) {
			return i
		}
	}
	return -1
}

func (s *segmenter) emit(start, end int) {
	s.spans = append(s.spans, span{start, end})
	s.reset()
}

func (s *segmenter) reset() {
	s.state = noRecord
	s.start = -1
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
