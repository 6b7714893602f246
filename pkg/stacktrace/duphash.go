// Copyright 2026 kerneloops project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package stacktrace

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kerneloops/kerneloops/pkg/hash"
)

// DupHashFlags control what DupHash includes and returns.
type DupHashFlags int

const (
	// NoNormalize keeps frames of the error reporting machinery (warn_slowpath_*, dump_stack, ...).
	NoNormalize DupHashFlags = 1 << iota
	// KoopsCompat produces hashes compatible with previously stored kernel oops problems:
	// "Thread\n" prefix, unreliable frames skipped.
	KoopsCompat
	// NoHash returns the text that would be hashed.
	NoHash
)

var ErrNothingToHash = errors.New("no frames usable for duphash")

// DupHash hashes function names of the first depth frames (all frames if depth <= 0).
// Addresses and offsets never contribute to the hash.
func (t *Thread) DupHash(depth int, flags DupHashFlags) (string, error) {
	frames := t.Frames
	if flags&NoNormalize == 0 {
		frames = Normalize(frames)
	}
	buf := new(strings.Builder)
	if flags&KoopsCompat != 0 {
		buf.WriteString("Thread\n")
	}
	used := 0
	for _, frame := range frames {
		if depth > 0 && used == depth {
			break
		}
		if frame.Function == "" || flags&KoopsCompat != 0 && !frame.Reliable {
			continue
		}
		fmt.Fprintf(buf, "%v\n", frame.Function)
		used++
	}
	if used == 0 {
		return "", ErrNothingToHash
	}
	if flags&NoHash != 0 {
		return buf.String(), nil
	}
	return hash.Text(buf.String()), nil
}
