// Copyright 2026 kerneloops project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package problem stores extracted oopses as problem directories:
// one directory per oops with one small text file per item
// (the layout used by the abrt crash reporting daemons).
package problem

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kerneloops/kerneloops/pkg/koops"
	"github.com/kerneloops/kerneloops/pkg/log"
	"github.com/kerneloops/kerneloops/pkg/osutil"
	"github.com/kerneloops/kerneloops/pkg/stat"
)

// Item names.
const (
	Analyzer      = "analyzer"
	Type          = "type"
	Reason        = "reason"
	Backtrace     = "backtrace"
	Kernel        = "kernel"
	Time          = "time"
	UUID          = "uuid"
	DupHash       = "duphash"
	NotReportable = "not-reportable"
	TaintFlags    = "taint_flags"
)

const (
	analyzerName = "abrt-oops"
	problemType  = "Kerneloops"
	dirPrefix    = "oops-"
	timeFormat   = "2006-01-02-15:04:05"
)

var statSaved = stat.New("saved problems", "Problem directories created", stat.Console,
	stat.Prometheus("koops_problems_saved"))

// Save creates a new problem directory for rep under base and returns its path.
func Save(base string, rep *koops.Report, now time.Time) (string, error) {
	if err := osutil.MkdirAll(base); err != nil {
		return "", fmt.Errorf("failed to create dump location: %w", err)
	}
	id := uuid.New().String()
	dir := filepath.Join(base, fmt.Sprintf("%v%v-%v", dirPrefix, now.Format(timeFormat), id))
	if err := osutil.WriteDirAtomic(dir, items(rep, id, now)); err != nil {
		return "", fmt.Errorf("failed to save problem: %w", err)
	}
	statSaved.Add(1)
	log.Logf(1, "saved %q to %v", rep.Reason, dir)
	return dir, nil
}

func items(rep *koops.Report, id string, now time.Time) map[string][]byte {
	_, backtrace, _ := strings.Cut(rep.Text, "\n")
	res := map[string]string{
		Analyzer:  analyzerName,
		Type:      problemType,
		Reason:    rep.Reason,
		Backtrace: backtrace,
		Time:      strconv.FormatInt(now.Unix(), 10),
		UUID:      id,
	}
	if rep.Version != "" {
		res[Kernel] = rep.Version
	}
	if rep.DupHash != "" {
		res[DupHash] = rep.DupHash
	}
	if rep.Tainted != "" {
		res[TaintFlags] = rep.Tainted
	}
	if koops.Tainted(rep.Tainted) {
		res[NotReportable] = notReportable(rep.Tainted)
	}
	files := make(map[string][]byte)
	for name, val := range res {
		files[name] = []byte(val)
	}
	return files
}

func notReportable(flags string) string {
	buf := new(strings.Builder)
	fmt.Fprintf(buf, "A kernel problem occurred, but your kernel has been tainted (flags:%v).\n", flags)
	fmt.Fprintf(buf, "Kernel maintainers are unable to diagnose tainted reports.\n")
	for _, taint := range koops.TaintDescriptions(flags) {
		if taint.Desc != "" {
			fmt.Fprintf(buf, "%c - %v\n", taint.Flag, taint.Desc)
		}
	}
	return buf.String()
}

// Load reads all items of a problem directory.
func Load(dir string) (map[string]string, error) {
	names, err := osutil.ListDir(dir)
	if err != nil {
		return nil, err
	}
	res := make(map[string]string)
	for _, name := range names {
		file := filepath.Join(dir, name)
		if st, err := os.Stat(file); err != nil || st.IsDir() {
			continue
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		res[name] = string(data)
	}
	return res, nil
}

// DupHashes returns duplicate hashes of all oops problems under base.
// A missing base is not an error.
func DupHashes(base string) (map[string]bool, error) {
	names, err := osutil.ListDir(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	res := make(map[string]bool)
	for _, name := range names {
		if !strings.HasPrefix(name, dirPrefix) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(base, name, DupHash))
		if err != nil {
			// Oopses without a hash or unrelated dirs.
			continue
		}
		res[strings.TrimSpace(string(data))] = true
	}
	return res, nil
}

// Exists says if a problem with the duplicate hash is already stored under base.
func Exists(base, duphash string) (bool, error) {
	hashes, err := DupHashes(base)
	if err != nil {
		return false, err
	}
	return hashes[duphash], nil
}
