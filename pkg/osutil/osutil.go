// Copyright 2026 kerneloops project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package osutil

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	DefaultDirPerm  = 0755
	DefaultFilePerm = 0644
)

// IsExist returns true if the file name exists.
func IsExist(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

func MkdirAll(dir string) error {
	return os.MkdirAll(dir, DefaultDirPerm)
}

func WriteFile(filename string, data []byte) error {
	return os.WriteFile(filename, data, DefaultFilePerm)
}

// WriteDirAtomic creates dir with the given files (relative names in slash notation).
// The files are written to a temp dir first, so dir either does not exist or is complete.
func WriteDirAtomic(dir string, files map[string][]byte) error {
	if IsExist(dir) {
		return fmt.Errorf("%v already exists", dir)
	}
	tmpDir := filepath.Join(filepath.Dir(dir), "."+filepath.Base(dir)+".tmp")
	if err := os.RemoveAll(tmpDir); err != nil {
		return err
	}
	if err := MkdirAll(tmpDir); err != nil {
		return err
	}
	for name, data := range files {
		file := filepath.Join(tmpDir, filepath.FromSlash(name))
		if err := MkdirAll(filepath.Dir(file)); err != nil {
			os.RemoveAll(tmpDir)
			return err
		}
		if err := WriteFile(file, data); err != nil {
			os.RemoveAll(tmpDir)
			return err
		}
	}
	if err := os.Rename(tmpDir, dir); err != nil {
		os.RemoveAll(tmpDir)
		return err
	}
	return nil
}

// Return all files in a directory.
func ListDir(dir string) ([]string, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Readdirnames(-1)
}
