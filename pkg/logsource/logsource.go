// Copyright 2026 kerneloops project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package logsource reads kernel logs (dmesg dumps, syslog files, pstore records)
// from files or stdin. Compressed input is recognized by its magic bytes.
package logsource

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/kerneloops/kerneloops/pkg/log"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Stdin is the path that denotes standard input.
const Stdin = "-"

type format struct {
	name  string
	magic []byte
	open  func(r io.Reader) (io.ReadCloser, error)
}

var formats = []format{
	{"xz", []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}, func(r io.Reader) (io.ReadCloser, error) {
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(xr), nil
	}},
	{"zstd", []byte{0x28, 0xb5, 0x2f, 0xfd}, func(r io.Reader) (io.ReadCloser, error) {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	}},
	{"gzip", []byte{0x1f, 0x8b}, func(r io.Reader) (io.ReadCloser, error) {
		return gzip.NewReader(r)
	}},
}

const maxMagicLen = 6

// Read returns the whole decompressed contents of path ("-" or "" for stdin).
func Read(path string) ([]byte, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %v: %w", name(path), err)
	}
	return data, nil
}

// Open opens path ("-" or "" for stdin) for reading decompressed contents.
func Open(path string) (io.ReadCloser, error) {
	if path == "" || path == Stdin {
		return NewReader(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to open %v: %w", path, err)
	}
	return &fileReader{r, f}, nil
}

// NewReader returns a reader of r decompressed according to its magic bytes.
// Closing the result does not close r.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(maxMagicLen)
	if err != nil && err != io.EOF {
		return nil, err
	}
	for _, f := range formats {
		if bytes.HasPrefix(magic, f.magic) {
			log.Logf(1, "reading %v compressed log", f.name)
			return f.open(br)
		}
	}
	return io.NopCloser(br), nil
}

type fileReader struct {
	io.ReadCloser
	f *os.File
}

func (r *fileReader) Close() error {
	err := r.ReadCloser.Close()
	if err1 := r.f.Close(); err == nil {
		err = err1
	}
	return err
}

func name(path string) string {
	if path == "" || path == Stdin {
		return "stdin"
	}
	return path
}
