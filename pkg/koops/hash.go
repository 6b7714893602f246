// Copyright 2026 kerneloops project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package koops

import (
	"fmt"

	"github.com/kerneloops/kerneloops/pkg/log"
	"github.com/kerneloops/kerneloops/pkg/stacktrace"
)

// DefaultFrameDepth is the number of leading frames that identify an oops.
const DefaultFrameDepth = 6

const dupHashFlags = stacktrace.NoNormalize | stacktrace.KoopsCompat

// HashOops returns the duplicate hash of an oops (40 hex chars).
// The error wraps *stacktrace.ParseError if the text has no parsable backtrace,
// or stacktrace.ErrNothingToHash if none of the frames have a symbol.
// Depth <= 0 means DefaultFrameDepth.
func HashOops(text string, depth int) (string, error) {
	thread, err := crashThread(text)
	if err != nil {
		statHashFailures.Add(1)
		return "", err
	}
	depth = frameDepth(depth)
	if log.V(3) {
		if raw, err := thread.DupHash(depth, dupHashFlags|stacktrace.NoHash); err == nil {
			log.Logf(3, "generating duphash: %q", raw)
		} else {
			log.Logf(3, "nothing useful for duphash")
		}
	}
	sum, err := thread.DupHash(depth, dupHashFlags)
	if err != nil {
		statHashFailures.Add(1)
		return "", fmt.Errorf("failed to hash oops: %w", err)
	}
	return sum, nil
}

// DupHashText returns the string that HashOops hashes.
func DupHashText(text string, depth int) (string, error) {
	thread, err := crashThread(text)
	if err != nil {
		return "", err
	}
	return thread.DupHash(frameDepth(depth), dupHashFlags|stacktrace.NoHash)
}

func crashThread(text string) (*stacktrace.Thread, error) {
	st, err := stacktrace.ParseKoops(text)
	if err != nil {
		log.Logf(2, "failed to parse koops: %v", err)
		return nil, err
	}
	return st.CrashThread(), nil
}

func frameDepth(depth int) int {
	if depth <= 0 {
		return DefaultFrameDepth
	}
	return depth
}
