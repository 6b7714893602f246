// Copyright 2026 kerneloops project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package oopsconfig

import (
	"regexp"
)

type Config struct {
	// Directory where problem directories are created (e.g. "/var/spool/abrt").
	DumpLocation string `json:"dump_location" yaml:"dump_location"`
	// Number of leading reliable frames used for the duplicate hash (optional, default 6).
	FrameDepth int `json:"frame_depth,omitempty" yaml:"frame_depth,omitempty"`
	// Regexps matched against the first line of an oops.
	// Matching oopses are neither printed nor saved, e.g.:
	//	"ignores": ["WARNING: CPU: [0-9]+ PID: [0-9]+ at drivers/gpu/"]
	Ignores []string `json:"ignores,omitempty" yaml:"ignores,omitempty"`
	// Max number of oopses reported per run, 0 means no limit.
	MaxReports int `json:"max_reports,omitempty" yaml:"max_reports,omitempty"`
	// Number of log files processed in parallel (optional, default is number of CPUs).
	Parallel int `json:"parallel,omitempty" yaml:"parallel,omitempty"`

	// Implementation details beyond this point. Filled after parsing.
	ignores []*regexp.Regexp
}
