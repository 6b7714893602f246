// Copyright 2026 kerneloops project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package koops

import (
	"bytes"
	"strings"

	"github.com/kerneloops/kerneloops/pkg/log"
)

// LineInfo is a single kernel log line with syslog, log level and jiffies prefixes removed.
type LineInfo struct {
	Text  string
	Level int
}

const (
	syslogKernelTag = "kernel: "
	// Written to syslog by the reporting daemon after the oopses were submitted,
	// e.g. "abrt: Kerneloops: Reported 1 kernel oopses to Abrt".
	reportedMarker = "kernel oopses to Abrt"
	// Longest "[sssss.uuuuuu]" prefix we strip.
	maxJiffiesLen = 21
)

// splitLines classifies every physical line of buf.
// Lines of a syslog file that don't come from the kernel are skipped.
func splitLines(buf []byte) []LineInfo {
	if len(buf) == 0 {
		return nil
	}
	if buf[len(buf)-1] != '\n' {
		// The last byte is overwritten, not appended, so we never scan past the input.
		buf = append([]byte{}, buf...)
		buf[len(buf)-1] = '\n'
	}
	var lines []LineInfo
	lineNo := 0
	for pos := 0; pos < len(buf); {
		next := bytes.IndexByte(buf[pos:], '\n') + pos
		line := string(buf[pos:next])
		pos = next + 1
		lineNo++
		if isSyslogLine(line) {
			tag := strings.Index(line, syslogKernelTag)
			if tag == -1 {
				if strings.Contains(line, reportedMarker) {
					log.Logf(2, "found reported marker at line %v, dropping %v lines", lineNo, len(lines))
					statMarkerResets.Add(1)
					lines = nil
				}
				continue
			}
			line = line[tag+len(syslogKernelTag):]
		}
		line, level := stripLogLevel(line)
		line = stripJiffies(line)
		lines = append(lines, LineInfo{Text: line, Level: level})
	}
	return lines
}

// isSyslogLine detects "Nov 19 12:34:38 localhost kernel: xxx" style lines.
// Some syslogs use non-C locale timestamps ("2010-02-22T09:24:08.156534-08:00 host ..."),
// so we look for N:NN:NN in the first 15 chars instead of parsing the date.
func isSyslogLine(line string) bool {
	colon := strings.IndexByte(line, ':')
	if colon < 1 || colon >= 15 || colon+5 >= len(line) {
		return false
	}
	return isDigit(line[colon-1]) &&
		isDigit(line[colon+1]) && isDigit(line[colon+2]) &&
		line[colon+3] == ':' &&
		isDigit(line[colon+4]) && isDigit(line[colon+5])
}

// stripLogLevel removes the "<N>" prefix and returns the level.
func stripLogLevel(line string) (string, int) {
	if !strings.HasPrefix(line, "<") {
		return line, 0
	}
	end := strings.IndexByte(line, '>')
	if end == -1 {
		return line, 0
	}
	level := 0
	for i := 1; i < end; i++ {
		if !isDigit(line[i]) {
			return line, 0
		}
		level = level*10 + int(line[i]-'0')
		if level > 1<<16 {
			// Not a real log level, don't overflow on garbage.
			return line, 0
		}
	}
	return line[end+1:], level
}

// stripJiffies removes the "[  123.456789] " timestamp prefix.
func stripJiffies(line string) string {
	if !strings.HasPrefix(line, "[") {
		return line
	}
	end := strings.IndexByte(line, ']')
	dot := strings.IndexByte(line, '.')
	if end == -1 || end >= maxJiffiesLen || dot == -1 || dot > end {
		return line
	}
	line = line[end+1:]
	return strings.TrimPrefix(line, " ")
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
