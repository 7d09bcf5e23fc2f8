// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package commandline

import (
	"bytes"
	"context"
	"testing"

	"github.com/gomlx/ppim/pkg/compiler"
	"github.com/gomlx/ppim/pkg/core/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSprintProgram(t *testing.T) {
	c := compiler.New()
	p, err := c.CompileNamed("matmul.ll", compiler.MatmulDims{
		A: layout.Shape{Rows: 2, Cols: 3},
		B: layout.Shape{Rows: 3, Cols: 2},
	})
	require.NoError(t, err)
	report := SprintProgram(p)
	for _, want := range []string{"matmul.ll", "A=2x3 x B=3x2 -> C=2x2", "81", "0x100", "PROG", "EXE compute", "cores=8", "LUT row aliases"} {
		assert.Contains(t, report, want)
	}

	var buf bytes.Buffer
	require.NoError(t, ReportProgram(&buf, p))
	assert.Equal(t, report, buf.String())
}

func TestSprintBatch(t *testing.T) {
	jobs := []compiler.Job{
		{Name: "good", Dims: compiler.MatmulDims{A: layout.Shape{Rows: 1, Cols: 1}, B: layout.Shape{Rows: 1, Cols: 1}}},
		{Name: "bad", Dims: compiler.MatmulDims{A: layout.Shape{Rows: 2, Cols: 3}, B: layout.Shape{Rows: 4, Cols: 2}}},
	}
	progress := &BatchProgress{total: len(jobs)}
	results := compiler.New().CompileBatch(context.Background(), jobs, 2, progress.OnDone)
	assert.Equal(t, 1, progress.Finish())
	report := SprintBatch(results)
	assert.Contains(t, report, "1 compiled, 1 failed")
	assert.Contains(t, report, "good")
	assert.Contains(t, report, "bad")
	assert.Contains(t, report, "23")
}
