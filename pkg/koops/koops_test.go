// Copyright 2026 kerneloops project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package koops

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/kerneloops/kerneloops/pkg/hash"
	"github.com/kerneloops/kerneloops/pkg/stacktrace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nullDerefOops = []string{
	"BUG: unable to handle kernel NULL pointer dereference at 0000000000000010",
	"IP: [<ffffffff8148e81d>] foo_bar+0x2d/0x50 [foo]",
	"Pid: 1234, comm: insmod Tainted: P           O 3.10.0-123.el7.x86_64 #1 LENOVO",
	"Call Trace:",
	" [<ffffffff81000001>] func_a+0x1/0x10 [foo]",
	" [<ffffffff81000002>] ? stale_func+0x2/0x10",
	" [<ffffffff81000003>] func_b+0x3/0x10",
	" [<ffffffff81000004>] func_c+0x4/0x10",
	" [<ffffffff81000005>] func_d+0x5/0x10",
	" [<ffffffff81000006>] func_e+0x6/0x10",
	" [<ffffffff81000007>] func_f+0x7/0x10",
	" [<ffffffff81000008>] func_g+0x8/0x10",
	"---[ end trace 1234567890abcdef ]---",
}

func syslog(msgs ...string) string {
	buf := new(strings.Builder)
	for i, msg := range msgs {
		fmt.Fprintf(buf, "Jan  1 00:00:%02d host kernel: [  100.%06d] %v\n", i%60, i, msg)
	}
	return buf.String()
}

func TestExtractSyslog(t *testing.T) {
	input := "Jan  1 00:00:00 host systemd[1]: Starting foo...\n" +
		syslog(nullDerefOops...) +
		"Jan  1 00:00:30 host systemd[1]: Started foo.\n"
	oopses := Extract([]byte(input))
	require.Len(t, oopses, 1)
	want := "3.10.0-123.el7.x86_64\n" + strings.Join(nullDerefOops[:len(nullDerefOops)-1], "\n") + "\n"
	assert.Equal(t, want, oopses[0])
	assert.NotContains(t, oopses[0], "end trace")

	sum, err := HashOops(oopses[0], 0)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile("^[0-9a-f]{40}$"), sum)
	assert.Equal(t, hash.Text("Thread\nfunc_a\nfunc_b\nfunc_c\nfunc_d\nfunc_e\nfunc_f\n"), sum)
}

func TestExtractSkipsOtherDaemons(t *testing.T) {
	input := syslog(nullDerefOops[:6]...) +
		"Jan  1 00:00:06 host NetworkManager[712]: <info> device state change\n" +
		syslog(nullDerefOops[6:]...)
	oopses := Extract([]byte(input))
	require.Len(t, oopses, 1)
	assert.NotContains(t, oopses[0], "NetworkManager")
	assert.Contains(t, oopses[0], "func_g+0x8/0x10")
}

func TestExtractReportedMarker(t *testing.T) {
	first := syslog(nullDerefOops...)
	second := syslog(
		"WARNING: CPU: 2 PID: 77 at kernel/workqueue.c:1234 queue_work_on+0x10/0x20()",
		"CPU: 2 PID: 77 Comm: kworker/2:1 Tainted: G        W 4.8.0-rc3+ #33",
		"Call Trace:",
		" [<ffffffff81000011>] queue_work_on+0x10/0x20",
		" [<ffffffff81000012>] worker_thread+0x1/0x2",
		"---[ end trace 0000000000000002 ]---",
	)
	marker := "Jan  1 00:01:00 host abrt-dump-oops: Reported 1 kernel oopses to Abrt\n"
	want := Extract([]byte(second))
	require.Len(t, want, 1)
	assert.Equal(t, want, Extract([]byte(first+marker+second)))
	assert.Empty(t, Extract([]byte(first+second+marker)))
}

func TestExtractDmesg(t *testing.T) {
	input := `[    0.000000] Linux version 4.8.0-rc3+ (user@host) (gcc version 6.1.1) #33 SMP
[   42.000001] ------------[ cut here ]------------
[   42.000002] WARNING: CPU: 1 PID: 4070 at fs/inode.c:111 drop_nlink+0x3e/0x50
[   42.000003] Modules linked in: ext4 mbcache jbd2
[   42.000004] CPU: 1 PID: 4070 Comm: a.out Not tainted 4.8.0-rc3+ #33
[   42.000005] Call Trace:
[   42.000006]  [<ffffffff81234567>] dump_stack+0x4d/0x63
[   42.000007]  [<ffffffff81234568>] __warn+0xcb/0xf0
[   42.000008]  [<ffffffff81234569>] drop_nlink+0x3e/0x50
[   42.000009]  [<ffffffff8123456a>] vfs_unlink+0x10/0x20
[   42.000010] ---[ end trace 8a7e1c1f2f6c8f5a ]---
[   43.000000] e1000e: eth0 NIC Link is Up
`
	reports := ExtractReports([]byte(input), 0)
	require.Len(t, reports, 1)
	rep := reports[0]
	assert.Equal(t, "4.8.0-rc3+", rep.Version)
	assert.Equal(t, "WARNING: CPU: 1 PID: 4070 at fs/inode.c:111 drop_nlink+0x3e/0x50", rep.Reason)
	assert.Equal(t, "", rep.Tainted)
	require.NoError(t, rep.HashErr)
	assert.Equal(t, hash.Text("Thread\ndump_stack\n__warn\ndrop_nlink\nvfs_unlink\n"), rep.DupHash)
	assert.NotContains(t, rep.Text, "cut here")
}

func TestExtractTooShort(t *testing.T) {
	assert.Empty(t, Extract([]byte("BUG: x\n")))
	// Exactly at the limit.
	assert.Empty(t, Extract([]byte("BUG: "+strings.Repeat("x", minRecordLen-6)+"\n")))
	assert.Len(t, Extract([]byte("BUG: "+strings.Repeat("x", minRecordLen-5)+"\n")), 1)
}

func TestExtractWithoutTrace(t *testing.T) {
	input := new(strings.Builder)
	input.WriteString("BUG: scheduling while atomic: swapper/0/0/0x00000002\n")
	for i := 0; i < 60; i++ {
		fmt.Fprintf(input, "ordinary message %v\n", i)
	}
	oopses := Extract([]byte(input.String()))
	assert.Equal(t, []string{"\nBUG: scheduling while atomic: swapper/0/0/0x00000002\n"}, oopses)
}

func TestExtractRunaway(t *testing.T) {
	input := new(strings.Builder)
	input.WriteString("BUG: soft lockup - CPU#3 stuck for 23s! [a.out:1234]\nCall Trace:\n")
	for i := 0; i < 2*maxRecordLines; i++ {
		fmt.Fprintf(input, " [<ffffffff81%06x>] func%v+0x1/0x2\n", i, i)
	}
	assert.Empty(t, Extract([]byte(input.String())))
}

func TestExtractEmpty(t *testing.T) {
	assert.Empty(t, Extract(nil))
	assert.Empty(t, Extract([]byte("\n\n\n")))
	assert.Empty(t, ExtractReports([]byte("nothing to see here\n"), 0))
}

func TestExtractDoesNotModifyInput(t *testing.T) {
	input := []byte(syslog(nullDerefOops...))
	input = input[:len(input)-1]
	saved := string(input)
	Extract(input)
	assert.Equal(t, saved, string(input))
}

func TestHashOopsIgnoresAddresses(t *testing.T) {
	oops1 := "\nBUG: foo\nCall Trace:\n [<ffffffff81000001>] func_a+0x1/0x10\n [<ffffffff81000002>] func_b+0x2/0x10\n"
	oops2 := "\nBUG: foo\nCall Trace:\n [<ffffffff82000001>] func_a+0x11/0x20\n [<ffffffff82000002>] func_b+0x12/0x20\n"
	oops3 := "\nBUG: foo\nCall Trace:\n [<ffffffff82000001>] func_a+0x11/0x20\n [<ffffffff82000002>] func_c+0x12/0x20\n"
	sum1, err := HashOops(oops1, 0)
	require.NoError(t, err)
	sum2, err := HashOops(oops2, 0)
	require.NoError(t, err)
	sum3, err := HashOops(oops3, 0)
	require.NoError(t, err)
	assert.Equal(t, sum1, sum2)
	assert.NotEqual(t, sum1, sum3)
}

func TestHashOopsDepth(t *testing.T) {
	text := strings.Join(nullDerefOops, "\n")
	def, err := HashOops(text, 0)
	require.NoError(t, err)
	six, err := HashOops(text, DefaultFrameDepth)
	require.NoError(t, err)
	all, err := HashOops(text, 100)
	require.NoError(t, err)
	assert.Equal(t, def, six)
	assert.NotEqual(t, def, all)
	assert.Equal(t, hash.Text("Thread\nfunc_a\nfunc_b\nfunc_c\nfunc_d\nfunc_e\nfunc_f\nfunc_g\n"), all)
}

func TestDupHashText(t *testing.T) {
	text, err := DupHashText(strings.Join(nullDerefOops, "\n"), 0)
	require.NoError(t, err)
	assert.Equal(t, "Thread\nfunc_a\nfunc_b\nfunc_c\nfunc_d\nfunc_e\nfunc_f\n", text)
	sum, err := HashOops(strings.Join(nullDerefOops, "\n"), 0)
	require.NoError(t, err)
	assert.Equal(t, hash.Text(text), sum)

	_, err = DupHashText("BUG: no frames", 0)
	assert.True(t, errors.Is(err, stacktrace.ErrNoFrames))
}

func TestHashOopsErrors(t *testing.T) {
	_, err := HashOops("\nBUG: no frames here at all\n", 0)
	var perr *stacktrace.ParseError
	require.True(t, errors.As(err, &perr))
	assert.True(t, errors.Is(err, stacktrace.ErrNoFrames))

	_, err = HashOops("\nBUG: foo\n [<ffffffff81000001>] ? stale+0x1/0x2\n", 0)
	assert.True(t, errors.Is(err, stacktrace.ErrNothingToHash))

	_, err = HashOops("", 0)
	assert.True(t, errors.Is(err, stacktrace.ErrEmpty))
}

func TestParseReport(t *testing.T) {
	rep := ParseReport("3.10.0-123.el7.x86_64\n\n  BUG: foo\nPid: 1, comm: a Tainted: G W 3.10.0-123.el7.x86_64 #1\n")
	assert.Equal(t, "3.10.0-123.el7.x86_64", rep.Version)
	assert.Equal(t, "BUG: foo", rep.Reason)
	assert.Equal(t, "GW", rep.Tainted)
	assert.Empty(t, rep.DupHash)
}

func BenchmarkExtract(b *testing.B) {
	input := new(strings.Builder)
	for i := 0; i < 100; i++ {
		input.WriteString("Jan  1 00:00:00 host systemd[1]: Started foo.\n")
		input.WriteString(syslog(nullDerefOops...))
	}
	buf := []byte(input.String())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Extract(buf)
	}
}
