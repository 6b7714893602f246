// Copyright 2026 kerneloops project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

//go:build !unix

package osutil

import (
	"os"
	"os/signal"
)

func HandleInterrupts(shutdown chan struct{}) {
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		<-c
		close(shutdown)
		<-c
		os.Exit(1)
	}()
}
