// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package toolchain

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const matmulSource = `#include <iostream>
#include "helpers.h"
using namespace std;

int main() {
    int A[2][3] = {{1, 2, 3}, {4, 5, 6}};
    int B[3][2] = {{1, 2}, {3, 4}, {5, 6}};
    int C[2][2] = {};
    std::cout << "start" << endl;
    cout << C[0][0];
    return 0;
}
`

func TestCleanSource(t *testing.T) {
	cleaned := CleanSource(matmulSource)
	assert.NotContains(t, cleaned, "#include")
	assert.NotContains(t, cleaned, "using namespace")
	assert.NotContains(t, cleaned, "cout")
	assert.Contains(t, cleaned, `// << "start" << endl;`)
	assert.Contains(t, cleaned, "// << C[0][0];")
	assert.Contains(t, cleaned, "int B[3][2] = {{1, 2}, {3, 4}, {5, 6}};")

	// Identifiers merely containing cout/cin are kept.
	assert.Equal(t, "int cinema = coutput;", CleanSource("int cinema = coutput;"))
}

func TestCleanFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "matmul.cpp")
	require.NoError(t, os.WriteFile(path, []byte(matmulSource), 0o644))
	cleanedPath, err := CleanFile(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "matmul_cleaned.cpp"), cleanedPath)
	contents, err := os.ReadFile(cleanedPath)
	require.NoError(t, err)
	assert.Equal(t, CleanSource(matmulSource), string(contents))

	_, err = CleanFile(filepath.Join(dir, "missing.cpp"))
	require.Error(t, err)
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "x/matmul_cleaned.ll", withSuffix("x/matmul_cleaned.cpp", "", ".ll"))
	assert.Equal(t, "x/matmul_cleaned_optimized.ll", withSuffix("x/matmul_cleaned.ll", "_optimized", ".ll"))
}

func TestMissingTool(t *testing.T) {
	tc := Toolchain{Clang: "/nonexistent/clang++", Opt: "/nonexistent/opt", OptLevel: "-O3"}
	dir := t.TempDir()
	path := filepath.Join(dir, "matmul.cpp")
	require.NoError(t, os.WriteFile(path, []byte(matmulSource), 0o644))
	_, err := tc.CompileSource(context.Background(), path)
	require.Error(t, err)
}
