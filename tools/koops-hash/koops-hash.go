// Copyright 2026 kerneloops project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// koops-hash prints the duplicate hash of a single extracted oops (a file or stdin).
package main

import (
	"flag"
	"fmt"

	"github.com/kerneloops/kerneloops/pkg/koops"
	"github.com/kerneloops/kerneloops/pkg/logsource"
	"github.com/kerneloops/kerneloops/pkg/tool"
)

var (
	flagRaw   = flag.Bool("raw", false, "print the string that is hashed instead of the hash")
	flagDepth = flag.Int("depth", koops.DefaultFrameDepth, "number of frames used for the hash")
)

func main() {
	stop := tool.Init()
	res, err := run(flag.Args(), *flagDepth, *flagRaw)
	stop()
	if err != nil {
		tool.Fail(err)
	}
	fmt.Println(res)
}

func run(args []string, depth int, raw bool) (string, error) {
	if len(args) > 1 {
		return "", fmt.Errorf("usage: koops-hash [-raw] [-depth N] [oops.txt]")
	}
	file := logsource.Stdin
	if len(args) == 1 {
		file = args[0]
	}
	data, err := logsource.Read(file)
	if err != nil {
		return "", err
	}
	return hashText(string(data), depth, raw)
}

func hashText(text string, depth int, raw bool) (string, error) {
	if raw {
		return koops.DupHashText(text, depth)
	}
	return koops.HashOops(text, depth)
}
