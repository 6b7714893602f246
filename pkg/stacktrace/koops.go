// Copyright 2026 kerneloops project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package stacktrace parses kernel oops text into structured stack frames
// and computes duplicate hashes over them.
package stacktrace

import (
	"bufio"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Stacktrace is a parsed kernel oops backtrace.
type Stacktrace struct {
	// Modules lists names from "Modules linked in:".
	Modules []string
	thread  *Thread
}

// Thread is a sequence of frames, innermost first.
// Kernel oopses always have a single thread.
type Thread struct {
	Frames []*Frame
}

// Frame is a single backtrace line.
type Frame struct {
	Address uint64
	// Frames printed with '?' are stale values found on the stack.
	Reliable bool
	Function string
	Offset   uint64
	Length   uint64
	Module   string
	// Context is the stack the frame was printed on ("IRQ", "NMI", "#DF"), or "".
	Context string
	// ARM prints the caller on the same line.
	FromAddress  uint64
	FromFunction string
	FromOffset   uint64
	FromLength   uint64
}

var (
	ErrEmpty    = errors.New("empty oops text")
	ErrNoFrames = errors.New("no stack frames found")
)

// ParseError is returned when oops text has no usable backtrace.
type ParseError struct {
	// Lines is the number of lines that were scanned.
	Lines int
	Err   error
}

func (err *ParseError) Error() string {
	return fmt.Sprintf("failed to parse oops (%v lines): %v", err.Lines, err.Err)
}

func (err *ParseError) Unwrap() error {
	return err.Err
}

var (
	jiffiesRe = regexp.MustCompile(`^\[ *[0-9]+\.[0-9]+\] ?`)
	// "[<ffffffff8141b191>] ? sysfs_remove_group+0x12/0x20 [mod]",
	// "([<000000000011e434>] do_exit+0x4e/0x90)", " ? __warn+0xe5/0x1d0".
	x86FrameRe = regexp.MustCompile(`^\(?(?:\[<([0-9a-f]+)>\] +)?(\? +)?([a-zA-Z0-9_.$]+)\+0x([0-9a-f]+)/0x([0-9a-f]+)(?: +\[([a-zA-Z0-9_\-]+)\])?`)
	// "[c0000000fffdbd30] [c00000000009c9f0] .dump_stack+0x1c/0x30 (unreliable)".
	ppcFrameRe = regexp.MustCompile(`^\[[0-9a-f]+\] \[([0-9a-f]+)\] \.?([a-zA-Z0-9_.$]+)\+0x([0-9a-f]+)/0x([0-9a-f]+)( \(unreliable\))?`)
	// "[<c0017f10>] (dump_backtrace+0x0/0x10c) from [<c03b6c64>] (dump_stack+0x18/0x1c)".
	armFrameRe = regexp.MustCompile(`^\[<([0-9a-f]+)>\] \(([a-zA-Z0-9_.$]+)(?:\+0x([0-9a-f]+)/0x([0-9a-f]+))?(?: \[([a-zA-Z0-9_\-]+)\])?\) from \[<([0-9a-f]+)>\] \(([a-zA-Z0-9_.$]+)(?:\+0x([0-9a-f]+)/0x([0-9a-f]+))?`)
	// s390 frames without symbols: "([<000000000011e434>] 0x11e434)".
	addrFrameRe = regexp.MustCompile(`^\(?\[<([0-9a-f]+)>\] +\(?0x[0-9a-f]+\)?`)
)

var contextMarkers = map[string]string{
	"<IRQ>":   "IRQ",
	"<NMI>":   "NMI",
	"<#DF>":   "#DF",
	"<EOI>":   "",
	"<<EOE>>": "",
}

// ParseKoops parses kernel oops text.
func ParseKoops(text string) (*Stacktrace, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ParseError{Err: ErrEmpty}
	}
	st := &Stacktrace{thread: new(Thread)}
	context := ""
	lines := 0
	s := bufio.NewScanner(strings.NewReader(text))
	s.Buffer(nil, 1<<20)
	for s.Scan() {
		lines++
		line := jiffiesRe.ReplaceAllString(strings.TrimSpace(s.Text()), "")
		line = strings.TrimSpace(line)
		if mods, ok := strings.CutPrefix(line, "Modules linked in:"); ok {
			st.Modules = append(st.Modules, parseModules(mods)...)
			continue
		}
		// Older kernels print the first frame on the marker line: "<IRQ>  [<ffffffff81052b0d>] ...".
		for marker, ctx := range contextMarkers {
			if rest, ok := strings.CutPrefix(line, marker); ok {
				context = ctx
				line = strings.TrimSpace(rest)
				break
			}
		}
		if frame := parseFrame(line); frame != nil {
			frame.Context = context
			st.thread.Frames = append(st.thread.Frames, frame)
		}
	}
	if err := s.Err(); err != nil {
		return nil, &ParseError{Lines: lines, Err: err}
	}
	if len(st.thread.Frames) == 0 {
		return nil, &ParseError{Lines: lines, Err: ErrNoFrames}
	}
	return st, nil
}

// CrashThread returns the thread that crashed.
func (st *Stacktrace) CrashThread() *Thread {
	return st.thread
}

func parseFrame(line string) *Frame {
	if m := armFrameRe.FindStringSubmatch(line); m != nil {
		return &Frame{
			Address:      parseHex(m[1]),
			Reliable:     true,
			Function:     m[2],
			Offset:       parseHex(m[3]),
			Length:       parseHex(m[4]),
			Module:       m[5],
			FromAddress:  parseHex(m[6]),
			FromFunction: m[7],
			FromOffset:   parseHex(m[8]),
			FromLength:   parseHex(m[9]),
		}
	}
	if m := ppcFrameRe.FindStringSubmatch(line); m != nil {
		return &Frame{
			Address:  parseHex(m[1]),
			Reliable: m[5] == "",
			Function: m[2],
			Offset:   parseHex(m[3]),
			Length:   parseHex(m[4]),
		}
	}
	if m := x86FrameRe.FindStringSubmatch(line); m != nil {
		return &Frame{
			Address:  parseHex(m[1]),
			Reliable: m[2] == "",
			Function: m[3],
			Offset:   parseHex(m[4]),
			Length:   parseHex(m[5]),
			Module:   m[6],
		}
	}
	if m := addrFrameRe.FindStringSubmatch(line); m != nil {
		return &Frame{
			Address:  parseHex(m[1]),
			Reliable: true,
		}
	}
	return nil
}

// parseModules parses "snd_hda_intel(+) nvidia(PO) [last unloaded: foo]".
func parseModules(list string) []string {
	if pos := strings.Index(list, "[last unloaded:"); pos != -1 {
		list = list[:pos]
	}
	var mods []string
	for _, mod := range strings.Fields(list) {
		if pos := strings.IndexByte(mod, '('); pos != -1 {
			mod = mod[:pos]
		}
		if mod != "" {
			mods = append(mods, mod)
		}
	}
	return mods
}

func parseHex(s string) uint64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0
	}
	return v
}
