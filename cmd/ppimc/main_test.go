// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gomlx/ppim/pkg/compiler"
	"github.com/gomlx/ppim/pkg/core/layout"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDims(t *testing.T) {
	dims, err := parseDims("2x3, 3x2")
	require.NoError(t, err)
	assert.Equal(t, layout.Shape{Rows: 2, Cols: 3}, dims.A)
	assert.Equal(t, layout.Shape{Rows: 3, Cols: 2}, dims.B)

	for _, s := range []string{"2x3", "2x3,4x2", "2by3,3x2", "ax3,3x2", "2x3,3x"} {
		_, err := parseDims(s)
		require.Errorf(t, err, "%q should fail", s)
		require.True(t, errors.Is(err, compiler.ErrDimensionExtraction))
	}
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, *flagOutput, outputPath("dir/matmul.ll", 1))
	assert.Equal(t, "dir/matmul.bin", outputPath("dir/matmul.ll", 2))
	*flagOutputDir = "out"
	defer func() { *flagOutputDir = "" }()
	assert.Equal(t, "out/matmul.bin", outputPath("dir/matmul.ll", 2))
}

func TestNewCompiler(t *testing.T) {
	c, err := newCompiler()
	require.NoError(t, err)
	assert.Equal(t, layout.DefaultTopology(), c.Topology())

	*flagCrossCore = "move"
	defer func() { *flagCrossCore = compiler.CrossCoreShared.String() }()
	_, err = newCompiler()
	require.Error(t, err)
}

func TestWriteOutputs(t *testing.T) {
	c := compiler.New()
	var results []compiler.BatchResult
	for _, dims := range []string{"1x1,1x1", "2x3,3x2"} {
		d, err := parseDims(dims)
		require.NoError(t, err)
		p, err := c.Compile(d)
		require.NoError(t, err)
		results = append(results, compiler.BatchResult{Job: compiler.Job{Name: dims, Dims: d}, Program: p})
	}

	dir := t.TempDir()
	inputs := []input{
		{id: "job-0", path: "a.ll", output: filepath.Join(dir, "out", "a.bin")},
		{id: "job-1", path: "b.ll", output: filepath.Join(dir, "out", "b.bin")},
	}
	require.NoError(t, writeOutputs(inputs, results))
	for _, in := range inputs {
		_, err := os.Stat(in.output)
		require.NoError(t, err)
	}

	// The second output can't be created: the first one must not be written either.
	dir = t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	inputs = []input{
		{id: "job-0", path: "a.ll", output: filepath.Join(dir, "a.bin")},
		{id: "job-1", path: "b.ll", output: filepath.Join(blocker, "b.bin")},
	}
	require.Error(t, writeOutputs(inputs, results))
	_, err := os.Stat(inputs[0].output)
	require.True(t, os.IsNotExist(err))
}

func TestCheckInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "matmul.ll")
	err := checkInput(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NotContains(t, err.Error(), "<nil>")

	require.NoError(t, os.WriteFile(path, []byte("; empty"), 0o644))
	require.NoError(t, checkInput(path))
}
