// Copyright 2026 kerneloops project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package osutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsExist(t *testing.T) {
	if f := os.Args[0]; !IsExist(f) {
		t.Fatalf("executable %v does not exist", f)
	}
	if f := os.Args[0] + "-foo-bar-buz"; IsExist(f) {
		t.Fatalf("file %v exists", f)
	}
}

func TestWriteDirAtomic(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "problem")
	files := map[string][]byte{
		"reason":    []byte("BUG: foo"),
		"sub/inner": []byte("inner"),
	}
	require.NoError(t, WriteDirAtomic(dir, files))
	for name, want := range files {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
		require.NoError(t, err)
		assert.Equal(t, want, data)
	}
	// No leftovers from the temp dir.
	names, err := ListDir(base)
	require.NoError(t, err)
	assert.Equal(t, []string{"problem"}, names)

	assert.Error(t, WriteDirAtomic(dir, files))
}

func TestListDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b", "a", "c"} {
		require.NoError(t, WriteFile(filepath.Join(dir, name), nil))
	}
	names, err := ListDir(dir)
	require.NoError(t, err)
	sort.Strings(names)
	assert.Equal(t, []string{"a", "b", "c"}, names)

	_, err = ListDir(filepath.Join(dir, "missing"))
	assert.True(t, os.IsNotExist(err))
}
