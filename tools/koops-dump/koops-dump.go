// Copyright 2026 kerneloops project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// koops-dump finds kernel oopses in log files (stdin by default), prints them
// and/or saves them as problem directories, skipping duplicates.
//
//	koops-dump -o /var/log/messages
//	dmesg | koops-dump -d -config /etc/koops.yaml
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kerneloops/kerneloops/pkg/koops"
	"github.com/kerneloops/kerneloops/pkg/log"
	"github.com/kerneloops/kerneloops/pkg/logsource"
	"github.com/kerneloops/kerneloops/pkg/oopsconfig"
	"github.com/kerneloops/kerneloops/pkg/osutil"
	"github.com/kerneloops/kerneloops/pkg/problem"
	"github.com/kerneloops/kerneloops/pkg/stat"
	"github.com/kerneloops/kerneloops/pkg/tool"
	"golang.org/x/exp/maps"
	"golang.org/x/sync/errgroup"
)

var (
	flagPrint  = flag.Bool("o", false, "print found oopses on standard output")
	flagSave   = flag.Bool("d", false, "create a problem directory for every new oops in dump_location")
	flagJSON   = flag.Bool("j", false, "print found oopses as JSON")
	flagDepth  = flag.Int("depth", 0, "number of frames used for the duplicate hash (default: from config)")
	flagConfig = flag.String("config", "", "JSON or YAML config file")
	flagStats  = flag.Bool("stats", false, "print statistics to stderr before exit")
)

var (
	statDuplicates = stat.New("duplicates", "Oopses skipped as duplicates", stat.Console,
		stat.Prometheus("koops_duplicates"))
	statIgnored = stat.New("ignored", "Oopses matching the ignores config",
		stat.Prometheus("koops_ignored"))
	statThrottled = stat.New("throttled", "Oopses over max_reports",
		stat.Prometheus("koops_throttled"))
)

func main() {
	stop := tool.Init()
	err := run(*flagConfig, *flagDepth, flag.Args())
	// Profiles must be flushed before a failure exits the process.
	stop()
	if err != nil {
		tool.Fail(err)
	}
}

func run(cfgFile string, depth int, files []string) error {
	cfg, err := oopsconfig.LoadFile(cfgFile)
	if err != nil {
		return err
	}
	if depth < 0 {
		return fmt.Errorf("bad -depth %v", depth)
	}
	if depth != 0 {
		cfg.FrameDepth = depth
	}
	if len(files) == 0 {
		files = []string{logsource.Stdin}
	}
	shutdown := make(chan struct{})
	osutil.HandleInterrupts(shutdown)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-shutdown:
			cancel()
		case <-ctx.Done():
		}
	}()
	d := &dumper{
		cfg:   cfg,
		print: *flagPrint,
		json:  *flagJSON,
		save:  *flagSave,
		out:   os.Stdout,
		now:   time.Now,
	}
	if err := d.run(ctx, files); err != nil {
		return err
	}
	if *flagStats {
		tool.PrintStats(os.Stderr, stat.All)
	}
	return nil
}

type dumper struct {
	cfg   *oopsconfig.Config
	print bool
	json  bool
	save  bool
	out   io.Writer
	now   func() time.Time
}

type oops struct {
	file string
	*koops.Report
}

type jsonOops struct {
	File      string `json:"file"`
	Version   string `json:"version,omitempty"`
	Reason    string `json:"reason"`
	Tainted   string `json:"tainted,omitempty"`
	DupHash   string `json:"duphash,omitempty"`
	HashError string `json:"hash_error,omitempty"`
	Dir       string `json:"dir,omitempty"`
	Text      string `json:"text"`
}

func (d *dumper) run(ctx context.Context, files []string) error {
	oopses, err := extract(ctx, files, d.cfg)
	if err != nil {
		return err
	}
	total := len(oopses)
	if oopses, err = d.filter(oopses); err != nil {
		return err
	}
	log.Logf(0, "found %v oopses (%v new) in %v files", total, len(oopses), len(files))
	dirs := make([]string, len(oopses))
	if d.save {
		for i, o := range oopses {
			if dirs[i], err = problem.Save(d.cfg.DumpLocation, o.Report, d.now()); err != nil {
				return err
			}
		}
	}
	switch {
	case d.json:
		return d.printJSON(oopses, dirs)
	case d.print:
		for _, o := range oopses {
			fmt.Fprintf(d.out, "%v\n", o.Text)
		}
	}
	return nil
}

func extract(ctx context.Context, files []string, cfg *oopsconfig.Config) ([]*oops, error) {
	results := make([][]*oops, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Parallel)
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := logsource.Read(file)
			if err != nil {
				return err
			}
			for _, rep := range koops.ExtractReports(data, cfg.FrameDepth) {
				if rep.HashErr != nil {
					log.Logf(1, "%v: no duplicate hash for %q: %v", file, rep.Reason, rep.HashErr)
				}
				results[i] = append(results[i], &oops{file: file, Report: rep})
			}
			log.Logf(1, "%v: %v oopses", file, len(results[i]))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var res []*oops
	for _, oopses := range results {
		res = append(res, oopses...)
	}
	return res, nil
}

// filter drops ignored oopses and duplicates, and applies max_reports.
// Oopses without a hash are never considered duplicates.
func (d *dumper) filter(oopses []*oops) ([]*oops, error) {
	seen := make(map[string]bool)
	if d.save {
		stored, err := problem.DupHashes(d.cfg.DumpLocation)
		if err != nil {
			return nil, err
		}
		maps.Copy(seen, stored)
	}
	var res []*oops
	for i, o := range oopses {
		if d.cfg.Ignored(o.Report) {
			statIgnored.Add(1)
			log.Logf(1, "%v: ignoring %q", o.file, o.Reason)
			continue
		}
		if o.DupHash != "" {
			if seen[o.DupHash] {
				statDuplicates.Add(1)
				log.Logf(1, "%v: duplicate %q (%v)", o.file, o.Reason, o.DupHash)
				continue
			}
			seen[o.DupHash] = true
		}
		if d.cfg.MaxReports != 0 && len(res) == d.cfg.MaxReports {
			statThrottled.Add(len(oopses) - i)
			log.Logf(0, "reached max_reports %v, throttling", d.cfg.MaxReports)
			break
		}
		res = append(res, o)
	}
	return res, nil
}

func (d *dumper) printJSON(oopses []*oops, dirs []string) error {
	res := []jsonOops{}
	for i, o := range oopses {
		jo := jsonOops{
			File:    o.file,
			Version: o.Version,
			Reason:  o.Reason,
			Tainted: o.Tainted,
			DupHash: o.DupHash,
			Dir:     dirs[i],
			Text:    o.Text,
		}
		if o.HashErr != nil {
			jo.HashError = o.HashErr.Error()
		}
		res = append(res, jo)
	}
	enc := json.NewEncoder(d.out)
	enc.SetIndent("", "\t")
	return enc.Encode(res)
}
