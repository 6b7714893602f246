// Copyright 2026 kerneloops project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package oopsconfig

import (
	"fmt"
	"regexp"
	"runtime"

	"github.com/kerneloops/kerneloops/pkg/config"
	"github.com/kerneloops/kerneloops/pkg/koops"
)

const DefaultDumpLocation = "/var/spool/abrt"

func LoadData(data []byte) (*Config, error) {
	cfg := DefaultValues()
	if err := config.LoadData(data, cfg); err != nil {
		return nil, err
	}
	if err := Complete(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads JSON or YAML config (by extension).
// An empty filename means the default config.
func LoadFile(filename string) (*Config, error) {
	cfg := DefaultValues()
	if filename != "" {
		if err := config.LoadFile(filename, cfg); err != nil {
			return nil, err
		}
	}
	if err := Complete(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func DefaultValues() *Config {
	return &Config{
		DumpLocation: DefaultDumpLocation,
		FrameDepth:   koops.DefaultFrameDepth,
		Parallel:     runtime.NumCPU(),
	}
}

func Complete(cfg *Config) error {
	if cfg.DumpLocation == "" {
		return fmt.Errorf("config param dump_location is empty")
	}
	if cfg.FrameDepth == 0 {
		cfg.FrameDepth = koops.DefaultFrameDepth
	}
	if cfg.FrameDepth < 0 {
		return fmt.Errorf("bad config param frame_depth: %v", cfg.FrameDepth)
	}
	if cfg.MaxReports < 0 {
		return fmt.Errorf("bad config param max_reports: %v", cfg.MaxReports)
	}
	if cfg.Parallel == 0 {
		cfg.Parallel = runtime.NumCPU()
	}
	if cfg.Parallel < 0 || cfg.Parallel > 1024 {
		return fmt.Errorf("bad config param parallel: %v, want [1, 1024]", cfg.Parallel)
	}
	cfg.ignores = nil
	for _, re := range cfg.Ignores {
		compiled, err := regexp.Compile(re)
		if err != nil {
			return fmt.Errorf("bad ignores regexp %q: %w", re, err)
		}
		cfg.ignores = append(cfg.ignores, compiled)
	}
	return nil
}

// Ignored says if the oops matches one of the ignores regexps.
func (cfg *Config) Ignored(rep *koops.Report) bool {
	for _, re := range cfg.ignores {
		if re.MatchString(rep.Reason) {
			return true
		}
	}
	return false
}
