// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package stream

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gomlx/ppim/pkg/compiler"
	"github.com/gomlx/ppim/pkg/core/layout"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(aRows, aCols, bRows, bCols int) *compiler.Program {
	return compiler.New().MustCompile(compiler.MatmulDims{
		A: layout.Shape{Rows: aRows, Cols: aCols},
		B: layout.Shape{Rows: bRows, Cols: bCols},
	})
}

func TestWrite(t *testing.T) {
	p := compile(1, 1, 1, 1)
	contents := string(must.M1(Bytes(p)))
	require.True(t, strings.HasSuffix(contents, "\n"))
	lines := strings.Split(strings.TrimSuffix(contents, "\n"), "\n")
	require.Len(t, lines, 2+23)
	assert.Equal(t, "// pPIM Instruction Stream", lines[0])
	assert.Equal(t, "// 24-bit format: [2 op][6 ptr][1 rd][1 wr][8 addr][6 reserved]", lines[1])
	assert.Equal(t, "010000000000000000000000  // PROG core 0", lines[2])
	assert.Equal(t, "000000000000000000000000  // NOP", lines[3])
	assert.Equal(t, "010000010001000000000000  // PROG core 1", lines[4])
	assert.Equal(t, []string{
		"100000000100001000000000  // EXE write core 0",
		"100000001000000000000000  // EXE read core 0",
		"000000000000000000000000  // NOP",
		"100000001000000100000000  // EXE read core 0",
		"000000000000000000000000  // NOP",
		"100000000000000000000000  // EXE compute core 0",
		"110000000000000000000000  // END",
	}, lines[18:])

	// Fixed width, and no EXE before the 16 preamble lines.
	for ii, line := range lines[2:] {
		word, _, found := strings.Cut(line, "  ")
		require.True(t, found)
		require.Len(t, word, 24)
		if ii < 16 {
			require.NotContains(t, line, "EXE")
		}
	}
}

func TestReadRoundTrip(t *testing.T) {
	p := compile(3, 4, 4, 2)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, p))
	words, instructions, err := Read(&buf)
	require.NoError(t, err)
	require.Equal(t, p.Words(), words)
	require.Len(t, instructions, p.Len())
	topo := p.Topology()
	for ii, inst := range p.Instructions() {
		inst.RowAddr = must.M1(topo.RowAddr(inst.RowAddr))
		require.Equal(t, inst, instructions[ii])
	}
}

func TestReadErrors(t *testing.T) {
	header := strings.Join(HeaderLines[:], "\n") + "\n"
	for _, contents := range []string{
		"",
		"// other header\n",
		header + "0100000000000000000000  // PROG core 0\n",
		header + "010000000000000000000000 // PROG core 0\n",
		header + "010000000000000000000000  // PROG core 1\n",
		header + "010000000000000000000001  // PROG core 0\n",
	} {
		_, _, err := Read(strings.NewReader(contents))
		require.Errorf(t, err, "contents %q should fail", contents)
	}
	words, _, err := Read(strings.NewReader(header))
	require.NoError(t, err)
	require.Empty(t, words)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pPIM_full.bin")
	p := compile(2, 3, 3, 2)
	require.NoError(t, WriteFile(path, p))
	words, _, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, words, 81)

	// No temporary files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// Nothing is written if the directory doesn't exist.
	missing := filepath.Join(dir, "missing", "out.bin")
	require.Error(t, WriteFile(missing, p))
	_, err = os.Stat(missing)
	require.True(t, os.IsNotExist(err))
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	programs := []*compiler.Program{compile(1, 1, 1, 1), compile(2, 3, 3, 2)}
	paths := []string{filepath.Join(dir, "a.bin"), filepath.Join(dir, "b.bin")}
	require.NoError(t, WriteFiles(paths, programs))
	for ii, path := range paths {
		words, _, err := ReadFile(path)
		require.NoError(t, err)
		assert.Len(t, words, programs[ii].Len())
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// The last artifact can't be written: none of them is.
	dir = t.TempDir()
	paths = []string{filepath.Join(dir, "a.bin"), filepath.Join(dir, "missing", "b.bin")}
	require.Error(t, WriteFiles(paths, programs))
	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)

	require.Error(t, WriteFiles(paths[:1], programs))
}
