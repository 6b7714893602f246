// Copyright 2026 kerneloops project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package koops

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		lines []LineInfo
	}{
		{
			name:  "empty",
			input: "",
			lines: nil,
		},
		{
			name:  "dmesg",
			input: "[  772.918915] BUG: unable to handle kernel paging request\n[  772.919010] IP: foo\n",
			lines: []LineInfo{
				{Text: "BUG: unable to handle kernel paging request"},
				{Text: "IP: foo"},
			},
		},
		{
			name:  "syslog",
			input: "Jan 1 00:00:00 host kernel: <4>[  12.345678] BUG: foo\n",
			lines: []LineInfo{
				{Text: "BUG: foo", Level: 4},
			},
		},
		{
			name: "syslog non-kernel lines",
			input: "Jan 1 00:00:00 host systemd[1]: Started foo\n" +
				"2010-02-22T09:24:08.156534-08:00 gnu-4 gnome-session[2048]: blah blah\n" +
				"2010-02-22T09:24:08.156534-08:00 gnu-4 kernel: [<ffffffff81234567>] foo+0x1/0x2\n",
			lines: []LineInfo{
				{Text: "[<ffffffff81234567>] foo+0x1/0x2"},
			},
		},
		{
			// Looks like a syslog timestamp.
			name:  "syslog false positive",
			input: "pci 0000:15:00.0: PME# disabled\n",
			lines: nil,
		},
		{
			name: "reported marker",
			input: "Jan 1 00:00:00 host kernel: BUG: first\n" +
				"Jan  1 00:00:01 host abrt: Kerneloops: Reported 1 kernel oopses to Abrt\n" +
				"Jan 1 00:00:02 host kernel: BUG: second\n",
			lines: []LineInfo{
				{Text: "BUG: second"},
			},
		},
		{
			name:  "empty lines are kept",
			input: "a\n\n<3>\nb\n",
			lines: []LineInfo{
				{Text: "a"},
				{Text: ""},
				{Text: "", Level: 3},
				{Text: "b"},
			},
		},
		{
			// The last byte is overwritten with a newline.
			name:  "no trailing newline",
			input: "foo\nbar baz",
			lines: []LineInfo{
				{Text: "foo"},
				{Text: "bar ba"},
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			lines := splitLines([]byte(test.input))
			if diff := cmp.Diff(test.lines, lines); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestSplitLinesDoesNotModifyInput(t *testing.T) {
	buf := []byte("foo\nbar")
	splitLines(buf)
	assert.Equal(t, "foo\nbar", string(buf))
}

func TestStripLogLevel(t *testing.T) {
	tests := []struct {
		line  string
		text  string
		level int
	}{
		{"<4>foo", "foo", 4},
		{"<12>foo", "foo", 12},
		{"<>foo", "foo", 0},
		{"<x>foo", "<x>foo", 0},
		{"<4 foo", "<4 foo", 0},
		{"<99999999999999999999>foo", "<99999999999999999999>foo", 0},
		{"foo <4>", "foo <4>", 0},
	}
	for _, test := range tests {
		text, level := stripLogLevel(test.line)
		assert.Equal(t, test.text, text, test.line)
		assert.Equal(t, test.level, level, test.line)
	}
}

func TestStripJiffies(t *testing.T) {
	tests := []struct {
		line string
		text string
	}{
		{"[  772.918915] BUG: foo", "BUG: foo"},
		{"[1.5]foo", "foo"},
		{"[1.5]  foo", " foo"},
		{"[ cut here ]", "[ cut here ]"},
		{"[12345678901234567890.123456] foo", "[12345678901234567890.123456] foo"},
		{"[<ffffffff81234567>] foo+0x1/0x2", "[<ffffffff81234567>] foo+0x1/0x2"},
		{"[  772.918915 no bracket", "[  772.918915 no bracket"},
	}
	for _, test := range tests {
		assert.Equal(t, test.text, stripJiffies(test.line), test.line)
	}
}

func TestSuspiciousLine(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"BUG: unable to handle kernel NULL pointer dereference at 0000000000000010", true},
		{"   kernel BUG at mm/slab.c:2809!", true},
		{"WARNING: CPU: 1 PID: 2636 at ipc/shm.c:162 shm_open+0x74/0x80", true},
		{"general protection fault: 0000 [#1] SMP", true},
		{"Kernel panic - not syncing: Fatal exception", true},
		{"invalid opcode: 0000 [#1] SMP", true},
		{"irq 16: nobody cared (try booting with the \"irqpoll\" option)", true},
		{"DEBUG: BUG: not really", false},
		{"usb 1-1: new high-speed USB device number 2 using ehci-pci", false},
		{"", false},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, suspiciousLine(test.line), test.line)
	}
}
