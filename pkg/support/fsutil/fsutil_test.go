// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package fsutil

import (
	"os/user"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandHome(t *testing.T) {
	usr, err := user.Current()
	require.NoError(t, err)

	got, err := ExpandHome("out/matmul.bin")
	require.NoError(t, err)
	assert.Equal(t, "out/matmul.bin", got)

	got, err = ExpandHome("~/out/matmul.bin")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(usr.HomeDir, "out/matmul.bin"), got)

	got, err = ExpandHome("~")
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(usr.HomeDir), got)

	_, err = ExpandHome("~no_such_user_for_ppim_tests/x")
	require.Error(t, err)
}

func TestOutputFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "pPIM_full.bin")
	got, err := OutputFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	exists, err := FileExists(filepath.Join(dir, "a", "b"))
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = FileExists(path)
	require.NoError(t, err)
	assert.False(t, exists)
}
